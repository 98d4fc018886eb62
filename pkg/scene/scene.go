// Package scene lays out a snapshot view as a tree of drawable elements.
//
// The layout is deterministic: the same view and width always produce the
// same elements at the same coordinates. Colors stay CSS strings until a
// capturer paints them, which lets [Normalize] rewrite them for backends
// with limited color support.
package scene

// Kind identifies an element shape.
type Kind int

const (
	Group Kind = iota
	Rect
	Circle
	Line
	Text
)

func (k Kind) String() string {
	switch k {
	case Rect:
		return "rect"
	case Circle:
		return "circle"
	case Line:
		return "line"
	case Text:
		return "text"
	}
	return "group"
}

// Anchor is the horizontal alignment of text around its X coordinate.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// Style carries the paint of an element. Empty colors are not painted.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
	// Radius rounds rectangle corners.
	Radius float64
}

// Element is one node of the scene tree.
//
// Rect uses X, Y, W, H. Circle is centered on X, Y with radius R. Line runs
// from X, Y to X2, Y2. Text is anchored at X and vertically centered on Y,
// painted with Style.Fill. Group only holds Children.
type Element struct {
	Kind     Kind
	ID       string
	X, Y     float64
	W, H     float64
	R        float64
	X2, Y2   float64
	Text     string
	Anchor   Anchor
	Bold     bool
	Style    Style
	Children []Element
}

// Scene is a laid-out frame.
type Scene struct {
	Width      float64
	Height     float64
	Background string
	Root       Element
}

// Walk calls fn for every element in paint order, parents first.
func (s *Scene) Walk(fn func(*Element)) {
	walk(&s.Root, fn)
}

func walk(e *Element, fn func(*Element)) {
	fn(e)
	for i := range e.Children {
		walk(&e.Children[i], fn)
	}
}

// Colors returns every non-empty color the scene paints, background first.
func (s *Scene) Colors() []string {
	out := []string{}
	if s.Background != "" {
		out = append(out, s.Background)
	}
	s.Walk(func(e *Element) {
		for _, c := range []string{e.Style.Fill, e.Style.Stroke} {
			if c != "" {
				out = append(out, c)
			}
		}
	})
	return out
}

// Normalize returns a deep copy of s with every color passed through
// convert. s itself is not modified.
func Normalize(s *Scene, convert func(string) string) *Scene {
	out := *s
	out.Background = convertColor(s.Background, convert)
	out.Root = copyElement(s.Root, convert)
	return &out
}

func copyElement(e Element, convert func(string) string) Element {
	e.Style.Fill = convertColor(e.Style.Fill, convert)
	e.Style.Stroke = convertColor(e.Style.Stroke, convert)
	if e.Children != nil {
		children := make([]Element, len(e.Children))
		for i, c := range e.Children {
			children[i] = copyElement(c, convert)
		}
		e.Children = children
	}
	return e
}

func convertColor(c string, convert func(string) string) string {
	if c == "" {
		return c
	}
	return convert(c)
}
