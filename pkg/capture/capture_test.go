package capture

import (
	"bytes"
	"context"
	"image/color"
	"strings"
	"testing"

	"github.com/matzehuels/tracetower/pkg/colorconv"
	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/scene"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#ff0000", want: color.RGBA{255, 0, 0, 255}},
		{in: "#1f77b4", want: color.RGBA{0x1f, 0x77, 0xb4, 255}},
		{in: "rgb(10,20,30)", want: color.RGBA{10, 20, 30, 255}},
		{in: "RGB( 1 , 2 , 3 )", want: color.RGBA{1, 2, 3, 255}},
		{in: "white", want: color.RGBA{255, 255, 255, 255}},
		{in: "oklch(0.5 0.1 200)", wantErr: true},
		{in: "rgb(300,0,0)", wantErr: true},
		{in: "#zzzzzz", wantErr: true},
		{in: "tomato", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeCaptureFailed) {
					t.Fatalf("err = %v, want CAPTURE_FAILED", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := color.RGBAModel.Convert(c).(color.RGBA)
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func testScene(fill string) *scene.Scene {
	return &scene.Scene{
		Width:      40,
		Height:     20,
		Background: "#ffffff",
		Root: scene.Element{Kind: scene.Group, Children: []scene.Element{
			{Kind: scene.Rect, X: 0, Y: 0, W: 20, H: 20, Style: scene.Style{Fill: fill}},
			{Kind: scene.Text, X: 30, Y: 10, Text: "x", Anchor: scene.AnchorMiddle, Style: scene.Style{Fill: "#000000"}},
		}},
	}
}

func TestRasterRejectsOKLCH(t *testing.T) {
	s := testScene("oklch(0.7 0.15 30)")
	_, err := NewRaster().Capture(context.Background(), s)
	if !errors.Is(err, errors.ErrCodeCaptureFailed) {
		t.Fatalf("err = %v, want CAPTURE_FAILED", err)
	}

	img, err := NewRaster().Capture(context.Background(), scene.Normalize(s, colorconv.Convert))
	if err != nil {
		t.Fatalf("normalized capture: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("bounds = %v, want 40x20", b)
	}
}

func TestRasterPaints(t *testing.T) {
	img, err := NewRaster(WithScale(2)).Capture(context.Background(), testScene("#ff0000"))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Fatalf("bounds = %v, want 80x40", b)
	}
	r, g, b, _ := img.At(10, 10).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("rect pixel = (%d,%d,%d), want red", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(79, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("background pixel = (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestRasterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRaster().Capture(ctx, testScene("#ff0000")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestRasterEmptySurface(t *testing.T) {
	_, err := NewRaster().Capture(context.Background(), &scene.Scene{})
	if !errors.Is(err, errors.ErrCodeCaptureFailed) {
		t.Fatalf("err = %v, want CAPTURE_FAILED", err)
	}
}

func TestParseColorNamesUnnormalized(t *testing.T) {
	_, err := ParseColor("oklch(0.7 0.1 30)")
	if err == nil || !strings.Contains(errors.UserMessage(err), "unnormalized") {
		t.Errorf("err = %v, want an unnormalized color error", err)
	}
	_, err = ParseColor("hsl(0, 100%, 50%)")
	if err == nil || strings.Contains(errors.UserMessage(err), "unnormalized") {
		t.Errorf("err = %v, want a plain unsupported color error", err)
	}
}

func TestRenderSVGConvertsColors(t *testing.T) {
	s := testScene("oklch(0.7 0.1 30)")
	s.Background = "oklab(1 0 0)"
	s.Root.Children = append(s.Root.Children, scene.Element{
		Kind: scene.Line, X2: 10, Y2: 10,
		Style: scene.Style{Stroke: "oklch(0.5 0.05 200)", StrokeWidth: 1},
	})
	out := string(RenderSVG(s))

	for _, want := range []string{
		`fill="rgb(255,255,255)"`,
		`fill="rgb(244,209,201)"`,
		`stroke="rgb(169,193,194)"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "oklch") || strings.Contains(out, "oklab") {
		t.Errorf("svg still carries OKLCH colors:\n%s", out)
	}
}

func TestRenderSVG(t *testing.T) {
	s := testScene("#ff0000")
	s.Root.Children = append(s.Root.Children, scene.Element{Kind: scene.Text, Text: "a<b", Style: scene.Style{Fill: "#000000"}})
	out := string(RenderSVG(s))

	for _, want := range []string{
		`viewBox="0 0 40.0 20.0"`,
		`fill="#ff0000"`,
		`text-anchor="middle"`,
		`a&lt;b`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if !bytes.HasSuffix(RenderSVG(s), []byte("</svg>\n")) {
		t.Error("svg not closed")
	}
}

func TestRSVGRejectsOKLCH(t *testing.T) {
	_, err := NewRSVG().Capture(context.Background(), testScene("oklch(0.7 0.15 30)"))
	if !errors.Is(err, errors.ErrCodeCaptureFailed) {
		t.Fatalf("err = %v, want CAPTURE_FAILED", err)
	}
}

func TestRSVGCapture(t *testing.T) {
	if !Available() {
		t.Skip("rsvg-convert not installed")
	}
	img, err := NewRSVG().Capture(context.Background(), testScene("#ff0000"))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("bounds = %v, want 40x20", b)
	}
}
