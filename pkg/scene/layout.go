package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/structure"
)

// Font metrics of the fixed-width face every capturer draws with.
const (
	CharWidth  = 7
	LineHeight = 13
)

const (
	DefaultWidth = 800
	MinWidth     = 320

	pad       = 16
	inset     = 8
	gap       = 6
	chipH     = 28
	rowH      = 24
	labelH    = 20
	sectionGp = 16
	treeLevel = 56
	treeR     = 16
)

// Options configure layout.
type Options struct {
	Width float64
	Theme *Theme
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Width < MinWidth {
		o.Width = MinWidth
	}
	if o.Theme == nil {
		o.Theme = &DefaultTheme
	}
	return o
}

// TextWidth is the rendered width of s.
func TextWidth(s string) float64 {
	return float64(len([]rune(s)) * CharWidth)
}

// Measure returns the height v lays out to at the given options.
func Measure(v *structure.View, opts Options) float64 {
	return Build(v, opts).Height
}

// Build lays out a snapshot view.
func Build(v *structure.View, opts Options) *Scene {
	opts = opts.withDefaults()
	b := &builder{th: opts.Theme, width: opts.Width, y: pad}

	b.header(v)
	if v.NoVariables() {
		if v.Finished {
			b.banner()
		} else {
			b.note("(No variables to show for this step)")
		}
	} else {
		for _, e := range v.Structures {
			b.entry(e)
		}
		if len(v.Structures) > 0 {
			b.divider()
		}
		b.others(v.Others)
		if v.Finished {
			b.banner()
		}
	}
	b.output(v.Output)

	return &Scene{
		Width:      b.width,
		Height:     math.Ceil(b.y + pad),
		Background: b.th.Background,
		Root:       Element{Kind: Group, ID: "root", Children: b.els},
	}
}

type builder struct {
	th    *Theme
	width float64
	y     float64
	els   []Element
}

func (b *builder) left() float64  { return pad }
func (b *builder) right() float64 { return b.width - pad }
func (b *builder) inner() float64 { return b.width - 2*pad }

func (b *builder) add(e Element) int {
	b.els = append(b.els, e)
	return len(b.els) - 1
}

// wrap moves the elements added since start into a group.
func (b *builder) wrap(start int, id string) {
	children := append([]Element(nil), b.els[start:]...)
	b.els = append(b.els[:start], Element{Kind: Group, ID: id, Children: children})
}

func (b *builder) text(x, y float64, s, color string, anchor Anchor, bold bool) {
	b.add(Element{Kind: Text, X: x, Y: y, Text: s, Anchor: anchor, Bold: bold, Style: Style{Fill: color}})
}

func (b *builder) panel(h float64) int {
	return b.add(Element{
		Kind: Rect, X: b.left(), Y: b.y, W: b.inner(), H: h,
		Style: Style{Fill: b.th.Panel, Stroke: b.th.Border, StrokeWidth: 1, Radius: 8},
	})
}

func (b *builder) chip(x, y, w float64, s string, fill, stroke, color string, bold bool) {
	b.add(Element{Kind: Rect, X: x, Y: y, W: w, H: chipH, Style: Style{Fill: fill, Stroke: stroke, StrokeWidth: 1, Radius: 4}})
	b.text(x+w/2, y+chipH/2, s, color, AnchorMiddle, bold)
}

func chipWidth(s string) float64 {
	return math.Max(30, TextWidth(s)+24)
}

func (b *builder) header(v *structure.View) {
	s := fmt.Sprintf("Step %d", v.Index+1)
	if v.Line != nil {
		s += fmt.Sprintf(", line %d", *v.Line)
	}
	if v.Event != "" && v.Event != "line" {
		s += fmt.Sprintf(" (%s)", v.Event)
	}
	b.text(b.left(), b.y+labelH/2, s, b.th.Heading, AnchorStart, true)
	b.y += labelH + gap
}

func (b *builder) note(s string) {
	b.text(b.left(), b.y+labelH/2, s, b.th.Muted, AnchorStart, false)
	b.y += labelH + gap
}

func (b *builder) label(s string) {
	b.text(b.left(), b.y+labelH/2, s, b.th.Label, AnchorStart, true)
	b.y += labelH
}

func (b *builder) divider() {
	b.add(Element{Kind: Line, X: b.left(), Y: b.y, X2: b.right(), Y2: b.y, Style: Style{Stroke: b.th.Border, StrokeWidth: 1}})
	b.y += sectionGp
}

func (b *builder) banner() {
	h := 32.0
	b.add(Element{
		Kind: Rect, X: b.left(), Y: b.y, W: b.inner(), H: h,
		Style: Style{Fill: b.th.BannerFill, Stroke: b.th.BannerStroke, StrokeWidth: 1, Radius: 4},
	})
	b.text(b.width/2, b.y+h/2, "Execution Finished!", b.th.BannerText, AnchorMiddle, true)
	b.y += h + sectionGp
}

func (b *builder) entry(e structure.Entry) {
	start := len(b.els)
	switch m := e.Model.(type) {
	case *structure.List:
		b.list(e.Name, m)
	case *structure.Dict:
		b.dict(e.Name, m)
	case *structure.LinkedList:
		b.linked(e.Name, m)
	case *structure.Tree:
		b.tree(e.Name, m)
	case *structure.Graph:
		b.graph(e.Name, m)
	}
	b.wrap(start, e.Name)
	b.y += sectionGp
}

// flow places fixed-height items left to right, wrapping at the right edge.
type flow struct {
	left, right float64
	x, y        float64
	lineH       float64
}

func (f *flow) place(w float64) (float64, float64) {
	if f.x+w > f.right && f.x > f.left {
		f.x = f.left
		f.y += f.lineH + gap
	}
	x, y := f.x, f.y
	f.x += w + gap
	return x, y
}

func (f *flow) bottom() float64 { return f.y + f.lineH }

func (b *builder) newFlow(lineH float64) *flow {
	l := b.left() + inset
	return &flow{left: l, right: b.right() - inset, x: l, y: b.y + inset, lineH: lineH}
}

// closePanel sizes the panel at idx to end below bottom.
func (b *builder) closePanel(idx int, bottom float64) {
	h := bottom + inset - b.y
	if h < chipH+2*inset {
		h = chipH + 2*inset
	}
	b.els[idx].H = h
	b.y += h
}

func (b *builder) emptyPanel(msg string) {
	h := float64(chipH + 2*inset)
	b.panel(h)
	b.text(b.width/2, b.y+h/2, msg, b.th.Muted, AnchorMiddle, false)
	b.y += h
}

func (b *builder) list(name string, l *structure.List) {
	switch l.Kind {
	case roles.Stack:
		b.stack(name, l)
		return
	case roles.Set:
		b.label(name + " = set()")
	case roles.Heap:
		b.label(name + " = heap[]")
	default:
		b.label(name + " =")
	}

	empty := map[roles.Role]string{roles.Queue: "Queue is empty", roles.Heap: "Heap is empty", roles.Set: "Set is empty"}[l.Kind]
	if len(l.Items) == 0 {
		b.emptyPanel(empty)
		return
	}

	idx := b.panel(0)
	f := b.newFlow(chipH)
	lead := map[roles.Role]string{roles.Queue: "Front", roles.Heap: "Root (Min)"}[l.Kind]
	if lead != "" {
		x, y := f.place(TextWidth(lead))
		b.text(x, y+chipH/2, lead, b.th.Muted, AnchorStart, false)
	}
	marked := l.Marked()
	for i, it := range l.Items {
		fill, stroke, color := b.th.QueueFill, b.th.QueueStroke, b.th.QueueText
		switch l.Kind {
		case roles.Set:
			fill, stroke, color = b.th.StackFill, b.th.StackStroke, b.th.StackText
		case roles.Heap:
			fill, stroke, color = b.th.HeapFill, b.th.HeapStroke, b.th.HeapText
			if i == marked {
				fill, stroke, color = b.th.HeapRoot, b.th.HeapRootLine, b.th.HeapRootT
			}
		}
		w := chipWidth(it)
		x, y := f.place(w)
		b.chip(x, y, w, it, fill, stroke, color, i == marked && l.Kind == roles.Heap)
	}
	if l.Kind == roles.Queue {
		x, y := f.place(TextWidth("Back"))
		b.text(x, y+chipH/2, "Back", b.th.Muted, AnchorStart, false)
	}
	b.closePanel(idx, f.bottom())
}

// stack draws items bottom-up with the top at the upper edge.
func (b *builder) stack(name string, l *structure.List) {
	b.label(name + " =")
	if len(l.Items) == 0 {
		b.emptyPanel("Stack is empty")
		return
	}
	h := float64(2*inset + 2*labelH + len(l.Items)*(rowH+2))
	b.panel(h)
	w := b.inner() * 0.75
	x := b.left() + (b.inner()-w)/2
	y := b.y + inset
	b.text(b.width/2, y+labelH/2, "Top", b.th.Muted, AnchorMiddle, false)
	y += labelH
	top := l.Marked()
	for i := len(l.Items) - 1; i >= 0; i-- {
		b.add(Element{Kind: Rect, X: x, Y: y, W: w, H: rowH, Style: Style{Fill: b.th.StackFill, Stroke: b.th.StackStroke, StrokeWidth: 1, Radius: 4}})
		b.text(b.width/2, y+rowH/2, l.Items[i], b.th.StackText, AnchorMiddle, i == top)
		y += rowH + 2
	}
	b.text(b.width/2, y+labelH/2, "Bottom", b.th.Muted, AnchorMiddle, false)
	b.y += h
}

func (b *builder) dict(name string, d *structure.Dict) {
	b.label(name + " =")
	rows := len(d.Pairs)
	if rows == 0 {
		rows = 1
	}
	h := float64((rows + 1) * rowH)
	b.panel(h)
	keyX := b.left() + inset
	valX := b.left() + b.inner()/3
	b.add(Element{Kind: Rect, X: b.left(), Y: b.y, W: b.inner(), H: rowH, Style: Style{Fill: b.th.PanelHead}})
	b.text(keyX, b.y+rowH/2, "Key", b.th.DictHead, AnchorStart, true)
	b.text(valX, b.y+rowH/2, "Value", b.th.DictHead, AnchorStart, true)
	y := b.y + rowH
	if len(d.Pairs) == 0 {
		b.text(b.width/2, y+rowH/2, "Dictionary is empty", b.th.Muted, AnchorMiddle, false)
	}
	for i, p := range d.Pairs {
		if i > 0 {
			b.add(Element{Kind: Line, X: b.left(), Y: y, X2: b.right(), Y2: y, Style: Style{Stroke: b.th.Border, StrokeWidth: 1}})
		}
		b.text(keyX, y+rowH/2, p.Key, b.th.Key, AnchorStart, false)
		b.text(valX, y+rowH/2, p.Value, b.th.Text, AnchorStart, false)
		y += rowH
	}
	b.y += h
}

func (b *builder) linked(name string, l *structure.LinkedList) {
	b.label(name + " =")
	idx := b.panel(0)
	// Room under each node for its front/rear tag.
	f := b.newFlow(chipH + LineHeight)
	x, y := f.place(TextWidth("Head"))
	b.text(x, y+chipH/2, "Head", b.th.Muted, AnchorStart, false)

	if l.HeadNull {
		x, y = f.place(TextWidth("None"))
		b.text(x, y+chipH/2, "None", b.th.Muted, AnchorStart, false)
		b.closePanel(idx, f.bottom())
		return
	}
	if len(l.Nodes) == 0 && !l.Truncated {
		x, y = f.place(TextWidth("Linked List is empty"))
		b.text(x, y+chipH/2, "Linked List is empty", b.th.Muted, AnchorStart, false)
		b.closePanel(idx, f.bottom())
		return
	}

	for i, n := range l.Nodes {
		if i > 0 {
			x, y = f.place(TextWidth("->"))
			b.text(x, y+chipH/2, "->", b.th.Arrow, AnchorStart, true)
		}
		w := chipWidth(n.Value)
		x, y = f.place(w)
		b.chip(x, y, w, n.Value, b.th.NodeFill, b.th.NodeStroke, b.th.NodeText, false)
		var tags []string
		if n.Front {
			tags = append(tags, "front")
		}
		if n.Rear {
			tags = append(tags, "rear")
		}
		if len(tags) > 0 {
			b.text(x+w/2, y+chipH+LineHeight/2, strings.Join(tags, "/"), b.th.Muted, AnchorMiddle, false)
		}
	}
	tail := "None"
	if l.Truncated {
		tail = "..."
	}
	if len(l.Nodes) > 0 {
		x, y = f.place(TextWidth("->"))
		b.text(x, y+chipH/2, "->", b.th.Arrow, AnchorStart, true)
	}
	x, y = f.place(TextWidth(tail))
	b.text(x, y+chipH/2, tail, b.th.Muted, AnchorStart, false)
	b.closePanel(idx, f.bottom())
}

func (b *builder) tree(name string, t *structure.Tree) {
	b.label(name + " =")
	if t.Empty() {
		b.emptyPanel("Tree is empty")
		return
	}

	// In-order rank gives x, depth gives y.
	rank := make([]int, len(t.Nodes))
	depth := make([]int, len(t.Nodes))
	next := 0
	type frame struct {
		idx, d  int
		visited bool
	}
	stack := []frame{{idx: t.Root, d: 0}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.Nodes[fr.idx]
		if fr.visited {
			rank[fr.idx] = next
			next++
			continue
		}
		depth[fr.idx] = fr.d
		if n.Right >= 0 {
			stack = append(stack, frame{idx: n.Right, d: fr.d + 1})
		}
		stack = append(stack, frame{idx: fr.idx, d: fr.d, visited: true})
		if n.Left >= 0 {
			stack = append(stack, frame{idx: n.Left, d: fr.d + 1})
		}
	}

	levels := t.Depth()
	h := float64(2*inset + levels*treeLevel)
	b.panel(h)
	spacing := math.Min(3*treeR, (b.inner()-2*inset)/float64(len(t.Nodes)))
	width := spacing * float64(len(t.Nodes))
	left := b.left() + (b.inner()-width)/2
	pos := func(i int) (float64, float64) {
		return left + (float64(rank[i])+0.5)*spacing, b.y + inset + treeLevel/2 + float64(depth[i]*treeLevel)
	}

	for i, n := range t.Nodes {
		x, y := pos(i)
		for _, c := range []int{n.Left, n.Right} {
			if c >= 0 {
				cx, cy := pos(c)
				b.add(Element{Kind: Line, X: x, Y: y, X2: cx, Y2: cy, Style: Style{Stroke: b.th.Arrow, StrokeWidth: 1.5}})
			}
		}
	}
	for i, n := range t.Nodes {
		x, y := pos(i)
		b.add(Element{Kind: Circle, X: x, Y: y, R: treeR, Style: Style{Fill: b.th.NodeFill, Stroke: b.th.NodeStroke, StrokeWidth: 1.5}})
		b.text(x, y, n.Value, b.th.NodeText, AnchorMiddle, true)
		if n.Truncated {
			b.text(x, y+treeR+LineHeight/2, "...", b.th.Muted, AnchorMiddle, false)
		}
	}
	b.y += h
}

func (b *builder) graph(name string, g *structure.Graph) {
	b.label(name + " =")
	scale := math.Min(1, b.inner()/g.Width)
	w, h := g.Width*scale, g.Height*scale
	ox := b.left() + (b.inner()-w)/2
	b.add(Element{Kind: Rect, X: ox, Y: b.y, W: w, H: h, Style: Style{Fill: b.th.Panel, Stroke: b.th.Border, StrokeWidth: 1, Radius: 4}})

	at := func(n structure.GraphNode) (float64, float64) {
		return ox + n.X*scale, b.y + n.Y*scale
	}
	for _, e := range g.Edges {
		s, _ := g.Node(e.Source)
		t, _ := g.Node(e.Target)
		x1, y1 := at(s)
		x2, y2 := at(t)
		b.add(Element{Kind: Line, ID: e.Source + "-" + e.Target, X: x1, Y: y1, X2: x2, Y2: y2, Style: Style{Stroke: b.th.GraphEdge, StrokeWidth: 2}})
	}
	for _, n := range g.Nodes {
		x, y := at(n)
		b.add(Element{Kind: Circle, ID: n.ID, X: x, Y: y, R: 22 * scale, Style: Style{Fill: b.fill(n.Fill), Stroke: b.th.GraphStroke, StrokeWidth: 2}})
		b.text(x, y, n.ID, b.th.GraphLabel, AnchorMiddle, true)
	}
	b.y += h
}

func (b *builder) fill(f structure.Fill) string {
	switch f {
	case structure.FillActive:
		return b.th.GraphActive
	case structure.FillFrontier:
		return b.th.GraphFrontier
	case structure.FillVisited:
		return b.th.GraphVisited
	}
	return b.th.GraphDefault
}

func (b *builder) others(entries []structure.Entry) {
	if len(entries) == 0 {
		b.note("(No other variables to show)")
		return
	}
	start := len(b.els)
	b.text(b.left(), b.y+labelH/2, "Other Variables", b.th.Heading, AnchorStart, true)
	b.y += labelH + gap
	for _, e := range entries {
		g, ok := e.Model.(*structure.Generic)
		if !ok {
			continue
		}
		prefix := e.Name + " = "
		switch {
		case g.IsList:
			b.label(e.Name + " =")
			f := b.newFlow(chipH)
			f.x, f.y = b.left(), b.y
			if len(g.Chips) == 0 {
				b.text(f.x, f.y+chipH/2, "(empty list)", b.th.Muted, AnchorStart, false)
			}
			for _, c := range g.Chips {
				w := chipWidth(c)
				x, y := f.place(w)
				b.chip(x, y, w, c, b.th.ChipFill, b.th.ChipStroke, b.th.ChipText, false)
			}
			b.y = f.bottom() + gap
		default:
			color := b.th.Value
			if g.Opaque {
				color = b.th.Muted
			}
			b.text(b.left(), b.y+labelH/2, prefix, b.th.Label, AnchorStart, true)
			b.text(b.left()+TextWidth(prefix), b.y+labelH/2, g.Text, color, AnchorStart, false)
			b.y += labelH
		}
	}
	b.wrap(start, "others")
	b.y += gap
}

func (b *builder) output(out string) {
	b.text(b.left(), b.y+labelH/2, "Output", b.th.Heading, AnchorStart, true)
	b.y += labelH
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if out == "" {
		lines = []string{"(no output yet)"}
	}
	h := float64(2*inset + len(lines)*(LineHeight+3))
	b.panel(h)
	y := b.y + inset
	for _, l := range lines {
		color := b.th.Label
		if out == "" {
			color = b.th.Muted
		}
		b.text(b.left()+inset, y+LineHeight/2, l, color, AnchorStart, false)
		y += LineHeight + 3
	}
	b.y += h
}
