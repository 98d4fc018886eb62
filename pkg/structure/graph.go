package structure

import (
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Graph canvas size, in the units of Slots.
const (
	GraphWidth  = 600
	GraphHeight = 300
)

// Slots are the fixed node positions. Node i sits at Slots[i mod len(Slots)].
var Slots = [...]struct{ X, Y float64 }{
	{300, 50}, {150, 130}, {450, 130},
	{100, 220}, {200, 220}, {400, 220},
	{50, 50}, {550, 50}, {50, 250}, {550, 250},
}

// Helper variable names read while filling graph nodes.
var (
	currentNames = []string{"current_node", "current", "node"}
	visitedName  = "visited"
)

// ExtractGraph reads an adjacency mapping from node id to neighbor ids.
// A tagged object is unwrapped once through a graph-like field.
//
// Edges are emitted once per unordered pair, as (s, t) with s < t; self
// loops and neighbors that are not themselves nodes are skipped.
func ExtractGraph(v trace.Value, ctx *Context) (*Graph, bool) {
	g := &Graph{Width: GraphWidth, Height: GraphHeight}
	if v.Kind() == trace.KindReference {
		if inner, ok := field(v, roles.RuleFor(roles.Graph).Wrap); ok && inner.IsObject() {
			v = inner
		}
	}
	if !v.IsObject() {
		return g, false
	}

	adj := v.Fields()
	known := make(map[string]bool, len(adj))
	for i, f := range adj {
		slot := Slots[i%len(Slots)]
		g.Nodes = append(g.Nodes, GraphNode{ID: f.Name, X: slot.X, Y: slot.Y})
		known[f.Name] = true
	}

	seen := map[Edge]bool{}
	for _, f := range adj {
		if f.Value.Kind() != trace.KindSequence {
			continue
		}
		for _, n := range f.Value.Items() {
			target := n.String()
			if !known[target] || !(f.Name < target) {
				continue
			}
			e := Edge{Source: f.Name, Target: target}
			if seen[e] {
				continue
			}
			seen[e] = true
			g.Edges = append(g.Edges, e)
		}
	}

	fills := newFiller(ctx)
	for i := range g.Nodes {
		g.Nodes[i].Fill = fills.fill(g.Nodes[i].ID)
	}
	return g, true
}

type filler struct {
	current  string
	active   bool
	frontier map[string]bool
	visited  map[string]bool
}

func newFiller(ctx *Context) *filler {
	f := &filler{}
	for _, name := range currentNames {
		if v, ok := ctx.lookup(name); ok && !v.IsNull() {
			f.current, f.active = v.String(), true
			break
		}
	}
	queue := frontierItems(ctx, roles.Queue, "queue")
	if len(queue) == 0 {
		queue = frontierItems(ctx, roles.Stack, "stack")
	}
	f.frontier = toSet(queue)
	if v, ok := ctx.lookup(visitedName); ok {
		f.visited = toSet(collectionItems(v))
	}
	return f
}

func (f *filler) fill(id string) Fill {
	switch {
	case f.active && f.current == id:
		return FillActive
	case f.frontier[id]:
		return FillFrontier
	case f.visited[id]:
		return FillVisited
	}
	return FillDefault
}

// frontierItems returns the items of the first non-empty variable assigned
// role, falling back to the variable literally named fallback.
func frontierItems(ctx *Context, role roles.Role, fallback string) []string {
	if ctx == nil {
		return nil
	}
	for _, name := range ctx.Assignment.WithRole(role) {
		if v, ok := ctx.lookup(name); ok {
			if l, ok := ExtractList(v, role); ok && len(l.Items) > 0 {
				return l.Items
			}
		}
	}
	if v, ok := ctx.lookup(fallback); ok {
		if l, ok := ExtractList(v, role); ok {
			return l.Items
		}
	}
	return nil
}

// collectionItems reads a visited-like collection: a sequence, a set-like
// object with an item field, or a mapping whose keys are the members.
func collectionItems(v trace.Value) []string {
	switch v.Kind() {
	case trace.KindSequence:
		return displayItems(v)
	case trace.KindReference:
		if l, ok := ExtractList(v, roles.Set); ok {
			return l.Items
		}
	case trace.KindMapping:
		keys := make([]string, 0, v.Len())
		for _, f := range v.Fields() {
			keys = append(keys, f.Name)
		}
		return keys
	}
	return nil
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
