package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/scene"
)

// RSVGBinary is the librsvg command-line rasterizer.
const RSVGBinary = "rsvg-convert"

// RSVG rasterizes scenes through rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
type RSVG struct {
	opts options
}

// NewRSVG creates an rsvg-convert capturer.
func NewRSVG(opts ...Option) *RSVG {
	return &RSVG{opts: newOptions(opts...)}
}

// Available reports whether rsvg-convert is on PATH.
func Available() bool {
	_, err := exec.LookPath(RSVGBinary)
	return err == nil
}

// Key returns "rsvg".
func (r *RSVG) Key() string { return "rsvg" }

// Scale returns the output scale factor.
func (r *RSVG) Scale() float64 { return r.opts.scale }

// Capture renders s to SVG and converts it to a raster image.
func (r *RSVG) Capture(ctx context.Context, s *scene.Scene) (image.Image, error) {
	for _, c := range s.Colors() {
		if _, err := ParseColor(c); err != nil {
			return nil, err
		}
	}
	data, err := ToPNG(ctx, RenderSVG(s), r.opts.scale)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCaptureFailed, err, "decode rsvg output")
	}
	return img, nil
}

// ToPNG converts an SVG document to PNG with rsvg-convert.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return rsvgConvert(ctx, svg, "-f", "png", "-z", fmt.Sprintf("%g", scale))
}

func rsvgConvert(ctx context.Context, svg []byte, args ...string) ([]byte, error) {
	if !Available() {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s not found: install librsvg", RSVGBinary)
	}
	cmd := exec.CommandContext(ctx, RSVGBinary, args...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCaptureFailed, err, "%s: %s", RSVGBinary, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
