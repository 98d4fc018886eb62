// Package capture turns laid-out scenes into raster frames.
//
// Two capturers are provided: [Raster] paints scenes in-process with
// fogleman/gg, and [RSVG] writes an SVG document and rasterizes it with the
// external rsvg-convert tool (from librsvg). Neither understands OKLCH or
// OKLab colors, so scenes must be normalized with [scene.Normalize] first;
// an unnormalized color fails the capture with CAPTURE_FAILED.
package capture

import (
	"context"
	"image"
	"image/color"
	"regexp"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/tracetower/pkg/colorconv"
	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/scene"
)

// Capturer renders a scene to an image.
//
// Key and Scale identify the output: two capturers with the same key and
// scale produce the same pixels for the same scene.
type Capturer interface {
	Capture(ctx context.Context, s *scene.Scene) (image.Image, error)
	Key() string
	Scale() float64
}

// Option configures a capturer.
type Option func(*options)

type options struct {
	scale float64
}

// WithScale sets the output scale factor (default 1.0).
func WithScale(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.scale = s
		}
	}
}

func newOptions(opts ...Option) options {
	o := options{scale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var rgbRe = regexp.MustCompile(`(?i)^\s*rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*[0-9.]+\s*)?\)\s*$`)

var named = map[string]color.Color{
	"white":       color.White,
	"black":       color.Black,
	"transparent": color.Transparent,
}

// ParseColor reads the color syntaxes a capturer can paint: hex, rgb() and
// a few names. Everything else, OKLCH included, is rejected.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if colorconv.Is(s) {
		return nil, errors.New(errors.ErrCodeCaptureFailed, "unnormalized color %q: convert OKLCH and OKLab before capture", s)
	}
	if c, ok := named[strings.ToLower(s)]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCaptureFailed, err, "unsupported color %q", s)
		}
		r, g, b := c.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
	}
	if m := rgbRe.FindStringSubmatch(s); m != nil {
		var ch [3]uint8
		for i := range ch {
			v, err := strconv.Atoi(m[i+1])
			if err != nil || v > 255 {
				return nil, errors.New(errors.ErrCodeCaptureFailed, "unsupported color %q", s)
			}
			ch[i] = uint8(v)
		}
		return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}, nil
	}
	return nil, errors.New(errors.ErrCodeCaptureFailed, "unsupported color %q", s)
}
