// Package colorconv converts OKLCH and OKLab CSS colors to sRGB.
//
// Rasterizers that predate CSS Color 4 cannot paint oklch() or oklab()
// values. [Convert] rewrites such a value as an rgb() triple and leaves every
// other string untouched, so it can be applied blindly to any style color
// right before capture.
package colorconv

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const number = `[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:e[+-]?\d+)?`

var (
	colorPattern = `(oklch|oklab)\(\s*(` + number + `)(%?)\s+(` + number + `)\s+(` + number + `)(?:deg)?\s*(?:/\s*` + number + `%?\s*)?\)`
	exact        = regexp.MustCompile(`(?i)^\s*` + colorPattern + `\s*$`)
	embedded     = regexp.MustCompile(`(?i)` + colorPattern)
)

// Convert returns the sRGB form of an oklch() or oklab() color as
// "rgb(r,g,b)". Any input that is not exactly one such color is returned
// unchanged. Alpha components are accepted and dropped.
func Convert(s string) string {
	m := exact.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	out, ok := convertMatch(m)
	if !ok {
		return s
	}
	return out
}

// ReplaceAll converts every oklch() and oklab() color embedded in s, such as
// inside a border shorthand or a style attribute.
func ReplaceAll(s string) string {
	return embedded.ReplaceAllStringFunc(s, func(c string) string {
		m := embedded.FindStringSubmatch(c)
		if out, ok := convertMatch(m); ok {
			return out
		}
		return c
	})
}

// Is reports whether s is an oklch() or oklab() color.
func Is(s string) bool {
	return exact.MatchString(s)
}

func convertMatch(m []string) (string, bool) {
	fn := strings.ToLower(m[1])
	l, err1 := strconv.ParseFloat(m[2], 64)
	x, err2 := strconv.ParseFloat(m[4], 64)
	y, err3 := strconv.ParseFloat(m[5], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if m[3] == "%" {
		l /= 100
	}

	var c colorful.Color
	if fn == "oklch" {
		c = FromOKLCH(l, x, y)
	} else {
		c = FromOKLab(l, x, y)
	}
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b), true
}

// FromOKLCH converts lightness, chroma and hue in degrees to a clamped sRGB
// color.
func FromOKLCH(l, c, h float64) colorful.Color {
	rad := h * math.Pi / 180
	return FromOKLab(l, c*math.Cos(rad), c*math.Sin(rad))
}

// FromOKLab converts OKLab coordinates to a clamped sRGB color.
func FromOKLab(l, a, b float64) colorful.Color {
	// LMS feeds the RGB matrix without the cube step.
	lc := l + 0.3963377774*a + 0.2158037573*b
	mc := l - 0.1055613458*a - 0.0638541728*b
	sc := l - 0.0894841775*a - 1.2914855480*b

	r := 4.0767416621*lc - 3.3077115913*mc + 0.2309699292*sc
	g := -1.2684380046*lc + 2.6097574011*mc - 0.3413193965*sc
	bl := -0.0041960863*lc - 0.7034186147*mc + 1.7076147010*sc

	// LinearRgb applies the sRGB transfer curve.
	return colorful.LinearRgb(r, g, bl).Clamped()
}
