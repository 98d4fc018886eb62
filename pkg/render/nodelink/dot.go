package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tracetower/pkg/capture"
	"github.com/matzehuels/tracetower/pkg/colorconv"
	"github.com/matzehuels/tracetower/pkg/scene"
	"github.com/matzehuels/tracetower/pkg/structure"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Theme supplies the graph palette. Nil selects scene.DefaultTheme.
	Theme *scene.Theme

	// Label is drawn under the diagram when non-empty, typically the
	// variable name.
	Label string
}

// nodeRadius matches the circle radius of the scene renderer, in points.
const nodeRadius = 20

// ToDOT converts a graph model to Graphviz DOT.
func ToDOT(g *structure.Graph, opts Options) string {
	th := opts.Theme
	if th == nil {
		th = &scene.DefaultTheme
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Label != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  fontname=\"monospace\";\n", opts.Label)
	}
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fixedsize=true, width=%.2f, fontname=\"monospace\", fontsize=14, fontcolor=%q, color=%q, penwidth=2];\n",
		2*nodeRadius/72.0, th.GraphLabel, th.GraphStroke)
	fmt.Fprintf(&buf, "  edge [color=%q, penwidth=2];\n", dotColor(th.GraphEdge))
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [pos=\"%.0f,%.0f!\", fillcolor=%q];\n",
			n.ID, n.X, g.Height-n.Y, dotColor(fillColor(th, n.Fill)))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fillColor(th *scene.Theme, f structure.Fill) string {
	switch f {
	case structure.FillActive:
		return th.GraphActive
	case structure.FillFrontier:
		return th.GraphFrontier
	case structure.FillVisited:
		return th.GraphVisited
	default:
		return th.GraphDefault
	}
}

// dotColor converts CSS colors Graphviz cannot read to hex.
func dotColor(c string) string {
	if strings.HasPrefix(c, "#") {
		return c
	}
	parsed, err := capture.ParseColor(colorconv.Convert(c))
	if err != nil {
		return c
	}
	r, g, b, _ := parsed.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// RenderSVG renders DOT source to SVG using the Graphviz neato engine, which
// honors the pinned node positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root tag with a plain
// pixel-sized one so the SVG scales like the scene exports.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPNG renders DOT source as PNG via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return capture.ToPNG(ctx, svg, scale)
}
