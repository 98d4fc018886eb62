package capture

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/tracetower/pkg/colorconv"
	"github.com/matzehuels/tracetower/pkg/scene"
)

// RenderSVG writes s as a standalone SVG document. OKLCH and OKLab colors
// in paint attributes are written as rgb() triples; every other color is
// emitted as given.
func RenderSVG(s *scene.Scene) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	if s.Background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", paint(s.Background))
	}
	renderElement(&buf, &s.Root, 1)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderElement(buf *bytes.Buffer, e *scene.Element, depth int) {
	ind := bytes.Repeat([]byte("  "), depth)
	buf.Write(ind)
	switch e.Kind {
	case scene.Group:
		if e.ID != "" {
			fmt.Fprintf(buf, `<g id="%s">`+"\n", html.EscapeString(e.ID))
		} else {
			buf.WriteString("<g>\n")
		}
		for i := range e.Children {
			renderElement(buf, &e.Children[i], depth+1)
		}
		buf.Write(ind)
		buf.WriteString("</g>\n")
	case scene.Rect:
		fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f"%s/>`+"\n",
			e.X, e.Y, e.W, e.H, e.Style.Radius, paintAttrs(e.Style))
	case scene.Circle:
		fmt.Fprintf(buf, `<circle cx="%.1f" cy="%.1f" r="%.1f"%s/>`+"\n", e.X, e.Y, e.R, paintAttrs(e.Style))
	case scene.Line:
		fmt.Fprintf(buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"%s/>`+"\n",
			e.X, e.Y, e.X2, e.Y2, paintAttrs(scene.Style{Stroke: e.Style.Stroke, StrokeWidth: e.Style.StrokeWidth}))
	case scene.Text:
		anchor := []string{"start", "middle", "end"}[e.Anchor]
		weight := ""
		if e.Bold {
			weight = ` font-weight="bold"`
		}
		fmt.Fprintf(buf, `<text x="%.1f" y="%.1f" text-anchor="%s" dominant-baseline="central" font-family="monospace" font-size="12" fill="%s"%s>%s</text>`+"\n",
			e.X, e.Y, anchor, paint(e.Style.Fill), weight, html.EscapeString(e.Text))
	}
}

func paintAttrs(st scene.Style) string {
	fill := st.Fill
	if fill == "" {
		fill = "none"
	}
	out := fmt.Sprintf(` fill="%s"`, paint(fill))
	if st.Stroke != "" {
		out += fmt.Sprintf(` stroke="%s" stroke-width="%.1f"`, paint(st.Stroke), st.StrokeWidth)
	}
	return out
}

func paint(c string) string {
	return html.EscapeString(colorconv.ReplaceAll(c))
}
