package scene

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/tracetower/pkg/colorconv"
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/structure"
	"github.com/matzehuels/tracetower/pkg/trace"
)

func viewOf(t *testing.T, payload string, step int) *structure.View {
	t.Helper()
	tr, err := trace.Normalize([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	return structure.BuildView(tr.At(step), roles.Classify(tr, nil))
}

const sample = `{"steps":[
	{"line":1,"variables":{}},
	{"line":4,"variables":{
		"s":{"__type__":"Stack","items":[1,2,3]},
		"queue":["A","B"],
		"graph":{"A":["B"],"B":[]},
		"tree":{"key":5,"left":{"key":2},"right":null},
		"ll":{"__type__":"LinkedList","head":{"data":1,"next":null}},
		"dmap":{"x":1},
		"i":7,
		"xs":[1,2]
	},"output":"hello\nworld\n"},
	{"event":"finished","variables":{"i":8}}
]}`

func findText(s *Scene, text string) *Element {
	var found *Element
	s.Walk(func(e *Element) {
		if found == nil && e.Kind == Text && e.Text == text {
			found = e
		}
	})
	return found
}

func TestBuildDeterministic(t *testing.T) {
	v := viewOf(t, sample, 1)
	a := Build(v, Options{})
	b := Build(v, Options{})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("layout not deterministic:\n%s", diff)
	}
	if a.Width != DefaultWidth {
		t.Errorf("width = %v, want %v", a.Width, DefaultWidth)
	}
}

func TestBuildContents(t *testing.T) {
	s := Build(viewOf(t, sample, 1), Options{})

	top := findText(s, "3")
	if top == nil || !top.Bold {
		t.Errorf("stack top should be drawn bold, got %+v", top)
	}
	for _, want := range []string{"Top", "Bottom", "Front", "Back", "Key", "Head", "None", "Other Variables", "hello", "world", "i = ", "7"} {
		if findText(s, want) == nil {
			t.Errorf("missing text %q", want)
		}
	}
	if findText(s, "Execution Finished!") != nil {
		t.Error("banner drawn before the last step")
	}

	groups := map[string]bool{}
	for _, c := range s.Root.Children {
		if c.Kind == Group {
			groups[c.ID] = true
		}
	}
	for _, name := range []string{"s", "queue", "graph", "tree", "ll", "dmap", "others"} {
		if !groups[name] {
			t.Errorf("missing group %q", name)
		}
	}
}

func TestBuildGraphFills(t *testing.T) {
	s := Build(viewOf(t, `{"steps":[{"variables":{"graph":{"A":["B"],"B":[]},"current":"A","visited":["B"]}}]}`, 0), Options{})
	fills := map[string]string{}
	s.Walk(func(e *Element) {
		if e.Kind == Circle {
			fills[e.ID] = e.Style.Fill
		}
	})
	want := map[string]string{"A": "#d62728", "B": "#ff7f0e"}
	if diff := cmp.Diff(want, fills); diff != "" {
		t.Errorf("fills (-want +got):\n%s", diff)
	}
}

func TestBuildEmptyStates(t *testing.T) {
	s := Build(viewOf(t, sample, 0), Options{})
	if findText(s, "(No variables to show for this step)") == nil {
		t.Error("missing empty-step note")
	}
	if findText(s, "(no output yet)") == nil {
		t.Error("missing empty output note")
	}

	fin := Build(viewOf(t, sample, 2), Options{})
	if findText(fin, "Execution Finished!") == nil {
		t.Error("missing finished banner")
	}
}

func TestMeasureGrows(t *testing.T) {
	small := Measure(viewOf(t, sample, 0), Options{})
	large := Measure(viewOf(t, sample, 1), Options{})
	if !(large > small) {
		t.Errorf("measure %v should exceed %v", large, small)
	}
}

func TestNormalize(t *testing.T) {
	s := Build(viewOf(t, sample, 1), Options{})
	before := Build(viewOf(t, sample, 1), Options{})

	n := Normalize(s, colorconv.Convert)
	for _, c := range n.Colors() {
		if colorconv.Is(c) {
			t.Errorf("color %q survived normalization", c)
		}
	}
	if diff := cmp.Diff(before, s); diff != "" {
		t.Errorf("Normalize modified its input:\n%s", diff)
	}

	oklch := 0
	for _, c := range s.Colors() {
		if strings.HasPrefix(c, "oklch(") {
			oklch++
		}
	}
	if oklch == 0 {
		t.Error("default theme should be authored in OKLCH")
	}
	if !strings.HasPrefix(n.Background, "rgb(") {
		t.Errorf("background = %q", n.Background)
	}
}
