package capture

import (
	"context"
	"image"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/scene"
)

// Raster paints scenes in-process.
type Raster struct {
	opts options
}

// NewRaster creates an in-process capturer.
func NewRaster(opts ...Option) *Raster {
	return &Raster{opts: newOptions(opts...)}
}

// Key returns "raster".
func (r *Raster) Key() string { return "raster" }

// Scale returns the output scale factor.
func (r *Raster) Scale() float64 { return r.opts.scale }

// Capture paints s onto a fresh surface of the scene's size.
func (r *Raster) Capture(ctx context.Context, s *scene.Scene) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := int(math.Ceil(s.Width * r.opts.scale))
	h := int(math.Ceil(s.Height * r.opts.scale))
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeCaptureFailed, "empty capture surface %dx%d", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.Scale(r.opts.scale, r.opts.scale)
	dc.SetFontFace(basicfont.Face7x13)
	if s.Background != "" {
		bg, err := ParseColor(s.Background)
		if err != nil {
			return nil, err
		}
		dc.SetColor(bg)
		dc.Clear()
	}

	var paintErr error
	s.Walk(func(e *scene.Element) {
		if paintErr == nil {
			paintErr = paint(dc, e)
		}
	})
	if paintErr != nil {
		return nil, paintErr
	}
	return dc.Image(), nil
}

func paint(dc *gg.Context, e *scene.Element) error {
	switch e.Kind {
	case scene.Rect:
		if e.Style.Radius > 0 {
			dc.DrawRoundedRectangle(e.X, e.Y, e.W, e.H, e.Style.Radius)
		} else {
			dc.DrawRectangle(e.X, e.Y, e.W, e.H)
		}
		return fillStroke(dc, e.Style)
	case scene.Circle:
		dc.DrawCircle(e.X, e.Y, e.R)
		return fillStroke(dc, e.Style)
	case scene.Line:
		dc.DrawLine(e.X, e.Y, e.X2, e.Y2)
		return fillStroke(dc, scene.Style{Stroke: e.Style.Stroke, StrokeWidth: e.Style.StrokeWidth})
	case scene.Text:
		if e.Style.Fill == "" {
			return nil
		}
		c, err := ParseColor(e.Style.Fill)
		if err != nil {
			return err
		}
		dc.SetColor(c)
		ax := []float64{0, 0.5, 1}[e.Anchor]
		dc.DrawStringAnchored(e.Text, e.X, e.Y, ax, 0.5)
		if e.Bold {
			dc.DrawStringAnchored(e.Text, e.X+0.6, e.Y, ax, 0.5)
		}
	}
	return nil
}

// fillStroke paints the current path.
func fillStroke(dc *gg.Context, st scene.Style) error {
	if st.Fill != "" {
		c, err := ParseColor(st.Fill)
		if err != nil {
			return err
		}
		dc.SetColor(c)
		if st.Stroke != "" {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if st.Stroke != "" {
		c, err := ParseColor(st.Stroke)
		if err != nil {
			dc.ClearPath()
			return err
		}
		dc.SetColor(c)
		dc.SetLineWidth(math.Max(st.StrokeWidth, 1))
		dc.Stroke()
	}
	dc.ClearPath()
	return nil
}
