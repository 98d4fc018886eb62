// Package nodelink renders a graph snapshot as a Graphviz node-link diagram.
//
// # Overview
//
// The interactive player and raster exports draw graphs from the scene
// element tree. This package produces the same picture through Graphviz so
// a graph step can be exported as a standalone SVG, or as PNG through
// rsvg-convert.
//
// # Usage
//
// Convert a graph model to DOT, then render:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Layout
//
// Nodes keep the fixed slot positions of the graph model: rendering uses
// the neato engine and the DOT source pins every node with pos="x,y!", flipping
// the y axis because Graphviz grows upward. Edges are undirected and drawn
// once per pair. Node fills follow the traversal state (active, frontier,
// visited, default) using the theme's graph palette.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PNG conversion requires librsvg (rsvg-convert).
package nodelink
