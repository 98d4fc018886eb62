package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/structure"
	"github.com/matzehuels/tracetower/pkg/trace"
)

const renderTrace = `{
  "steps": [
    {"line": 1, "event": "line", "variables": {}},
    {"line": 4, "event": "line", "variables": {"stack": [7, 9], "total": 16, "current": "A"}, "output": "pushed\n"},
    {"line": null, "event": "finished", "variables": {"stack": [7]}}
  ]
}`

func viewAt(t *testing.T, i int) (*structure.View, int) {
	t.Helper()
	tr, err := trace.Normalize([]byte(renderTrace))
	if err != nil {
		t.Fatal(err)
	}
	return structure.BuildView(tr.At(i), roles.Classify(tr, nil)), tr.Len()
}

func TestRenderViewEmptyScope(t *testing.T) {
	v, n := viewAt(t, 0)
	out := renderView(v, n)
	for _, want := range []string{"Step 1/3", "line 1", "No variables in scope."} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderViewStructures(t *testing.T) {
	v, n := viewAt(t, 1)
	out := renderView(v, n)
	for _, want := range []string{"Step 2/3", "stack", "7", "9", "↑ top", "Other variables", "total", "16", "Output", "pushed"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "current") {
		t.Errorf("helper variable rendered:\n%s", out)
	}
	// Top of the stack comes first.
	if strings.Index(out, "9") > strings.Index(out, "7") {
		t.Errorf("stack not drawn top first:\n%s", out)
	}
}

func TestRenderViewFinished(t *testing.T) {
	v, n := viewAt(t, 2)
	out := renderView(v, n)
	if !strings.Contains(out, "Execution Finished!") {
		t.Errorf("missing banner in:\n%s", out)
	}
	if !strings.Contains(out, "line -") {
		t.Errorf("null line not shown as -:\n%s", out)
	}
}

func TestRenderLinked(t *testing.T) {
	tests := []struct {
		name string
		list *structure.LinkedList
		want []string
	}{
		{"null head", &structure.LinkedList{HeadNull: true}, []string{"head → None"}},
		{"two nodes", &structure.LinkedList{Nodes: []structure.ListNode{{Value: "1", Front: true}, {Value: "2", Rear: true}}}, []string{"1 (front)", "2 (rear)", "None"}},
		{"truncated", &structure.LinkedList{Nodes: []structure.ListNode{{Value: "1"}}, Truncated: true}, []string{"1", "…"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderLinked(tt.list)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("renderLinked() = %q, missing %q", out, want)
				}
			}
		})
	}
}

func TestRenderTree(t *testing.T) {
	tree := &structure.Tree{
		Root: 0,
		Nodes: []structure.TreeNode{
			{Value: "20", Left: 1, Right: 2},
			{Value: "10", Left: -1, Right: -1},
			{Value: "30", Left: -1, Right: -1},
		},
	}
	out := renderTree(tree)
	right, root, left := strings.Index(out, "30"), strings.Index(out, "20"), strings.Index(out, "10")
	if !(right < root && root < left) {
		t.Errorf("renderTree() order wrong:\n%s", out)
	}
	if got := renderTree(&structure.Tree{Root: -1}); !strings.Contains(got, "empty tree") {
		t.Errorf("empty tree = %q", got)
	}
}

func TestRenderGraph(t *testing.T) {
	g := &structure.Graph{
		Nodes: []structure.GraphNode{{ID: "A", Fill: structure.FillVisited}, {ID: "B", Fill: structure.FillActive}},
		Edges: []structure.Edge{{Source: "A", Target: "B"}},
	}
	out := renderGraph(g)
	for _, want := range []string{"● A", "● B", "active", "frontier", "visited"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderGraph() missing %q:\n%s", want, out)
		}
	}
}

func TestRenderGeneric(t *testing.T) {
	tests := []struct {
		g    *structure.Generic
		want string
	}{
		{&structure.Generic{Text: "42"}, "42"},
		{&structure.Generic{IsList: true, Chips: []string{"a", "b"}}, "[a, b]"},
		{&structure.Generic{Text: "<Foo>", Opaque: true}, "<Foo>"},
	}
	for _, tt := range tests {
		if got := renderGeneric(tt.g); !strings.Contains(got, tt.want) {
			t.Errorf("renderGeneric() = %q, want %q", got, tt.want)
		}
	}
}
