package structure

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/trace"
)

func decode(t *testing.T, s string) trace.Value {
	t.Helper()
	var v trace.Value
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return v
}

func TestExtractList(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		role       roles.Role
		want       []string
		wantMarked int
		wantOK     bool
	}{
		{"StackObject", `{"__type__":"Stack","items":[1,2,3]}`, roles.Stack, []string{"1", "2", "3"}, 2, true},
		{"StackBare", `["a","b"]`, roles.Stack, []string{"a", "b"}, 1, true},
		{"QueuePreferred", `{"__type__":"Queue","data":[9],"queue":[1,2]}`, roles.Queue, []string{"1", "2"}, 0, true},
		{"QueueFallback", `{"__type__":"Queue","elements":["x"]}`, roles.Queue, []string{"x"}, 0, true},
		{"HeapRawOrder", `[5,1,3]`, roles.Heap, []string{"5", "1", "3"}, 0, true},
		{"SetNoEnd", `{"__type__":"MySet","set":["a"]}`, roles.Set, []string{"a"}, -1, true},
		{"EmptyStack", `[]`, roles.Stack, []string{}, -1, true},
		{"NoSequence", `{"__type__":"Stack","top":1}`, roles.Stack, nil, -1, false},
		{"Scalar", `7`, roles.Queue, nil, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, ok := ExtractList(decode(t, tt.value), tt.role)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, l.Items); diff != "" {
				t.Errorf("items (-want +got):\n%s", diff)
			}
			if got := l.Marked(); got != tt.wantMarked {
				t.Errorf("marked = %d, want %d", got, tt.wantMarked)
			}
		})
	}
}

func TestExtractDictOrder(t *testing.T) {
	d, ok := ExtractDict(decode(t, `{"b":1,"a":[1,2],"c":null}`))
	if !ok {
		t.Fatal("expected dict")
	}
	want := []Pair{{"b", "1"}, {"a", "[1, 2]"}, {"c", "None"}}
	if diff := cmp.Diff(want, d.Pairs); diff != "" {
		t.Errorf("pairs (-want +got):\n%s", diff)
	}
}

func TestExtractLinkedList(t *testing.T) {
	tests := []struct {
		name          string
		value         string
		want          []ListNode
		wantTruncated bool
		wantHeadNull  bool
	}{
		{
			name:  "HeadAndRear",
			value: `{"__type__":"LinkedList","head":{"__type__":"Node","data":1,"next":{"__type__":"Node","data":2,"next":null}},"tail":{"__type__":"Node","data":2}}`,
			want:  []ListNode{{Value: "1", Front: true}, {Value: "2", Rear: true}},
		},
		{
			name:  "NullRear",
			value: `{"head":{"val":"a","nxt":null},"rear":null}`,
			want:  []ListNode{{Value: "a", Front: true}},
		},
		{
			name:          "Cyclic",
			value:         `{"head":{"data":1,"next":{"data":2,"next":"repr(Circular reference)"}}}`,
			want:          []ListNode{{Value: "1", Front: true}, {Value: "2"}},
			wantTruncated: true,
		},
		{
			name:  "BareNode",
			value: `{"__type__":"Node","value":"x","link":{"value":"y"}}`,
			want:  []ListNode{{Value: "x", Front: true}, {Value: "y"}},
		},
		{
			name:         "HeadNull",
			value:        `{"__type__":"LinkedList","head":null}`,
			wantHeadNull: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := ExtractLinkedList(decode(t, tt.value))
			if diff := cmp.Diff(tt.want, l.Nodes); diff != "" {
				t.Errorf("nodes (-want +got):\n%s", diff)
			}
			if l.Truncated != tt.wantTruncated {
				t.Errorf("truncated = %v", l.Truncated)
			}
			if l.HeadNull != tt.wantHeadNull {
				t.Errorf("head null = %v", l.HeadNull)
			}
		})
	}
}

func TestExtractTree(t *testing.T) {
	v := decode(t, `{"__type__":"BST","root":{"key":8,"left":{"key":3,"left":null,"right":{"key":6}},"right":{"key":10,"left":"repr(Circular reference)","right":7}}}`)
	tree, ok := ExtractTree(v)
	if !ok {
		t.Fatal("expected tree")
	}
	want := &Tree{
		Root: 0,
		Nodes: []TreeNode{
			{Value: "8", Left: 1, Right: 3},
			{Value: "3", Left: -1, Right: 2},
			{Value: "6", Left: -1, Right: -1},
			{Value: "10", Left: -1, Right: -1, Truncated: true},
		},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree (-want +got):\n%s", diff)
	}
	if got := tree.Depth(); got != 3 {
		t.Errorf("depth = %d, want 3", got)
	}
}

func TestExtractTreeEmpty(t *testing.T) {
	for _, s := range []string{`{"root":null}`, `null`, `"repr(Circular reference)"`, `{"size":0}`} {
		tree, ok := ExtractTree(decode(t, s))
		if ok || !tree.Empty() {
			t.Errorf("%s: ok=%v empty=%v, want empty", s, ok, tree.Empty())
		}
	}
}

func TestExtractGraph(t *testing.T) {
	g, ok := ExtractGraph(decode(t, `{"0":["1","2"],"1":[],"2":[]}`), nil)
	if !ok {
		t.Fatal("expected graph")
	}
	if len(g.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(g.Nodes))
	}
	wantEdges := []Edge{{"0", "1"}, {"0", "2"}}
	if diff := cmp.Diff(wantEdges, g.Edges); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
	for _, n := range g.Nodes {
		if n.Fill != FillDefault {
			t.Errorf("node %s fill = %v, want default", n.ID, n.Fill)
		}
	}
	if n, _ := g.Node("2"); n.X != 450 || n.Y != 130 {
		t.Errorf("node 2 at (%v,%v), want slot 2", n.X, n.Y)
	}
}

func TestExtractGraphEdgeRules(t *testing.T) {
	g, _ := ExtractGraph(decode(t, `{"A":["B","A","B","Z"],"B":["A","C"],"C":["B",1]}`), nil)
	want := []Edge{{"A", "B"}, {"B", "C"}}
	if diff := cmp.Diff(want, g.Edges); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
	seen := map[Edge]bool{}
	for _, e := range g.Edges {
		if e.Source == e.Target {
			t.Errorf("self loop %v", e)
		}
		if seen[Edge{e.Target, e.Source}] {
			t.Errorf("both directions of %v", e)
		}
		seen[e] = true
	}
}

func TestExtractGraphPaletteWraps(t *testing.T) {
	payload := `{"a":[],"b":[],"c":[],"d":[],"e":[],"f":[],"g":[],"h":[],"i":[],"j":[],"k":[]}`
	g, _ := ExtractGraph(decode(t, payload), nil)
	first, _ := g.Node("a")
	eleventh, _ := g.Node("k")
	if first.X != eleventh.X || first.Y != eleventh.Y {
		t.Errorf("slot 10 should reuse slot 0: %v vs %v", first, eleventh)
	}
}

func TestExtractGraphFills(t *testing.T) {
	graph := decode(t, `{"A":["B","C"],"B":["D"],"C":[],"D":[],"E":[]}`)
	vars := []trace.Field{
		{Name: "current_node", Value: trace.Scalar("A")},
		{Name: "queue", Value: decode(t, `["A","B"]`)},
		{Name: "frontier", Value: decode(t, `{"__type__":"Deque","items":["C"]}`)},
		{Name: "visited", Value: decode(t, `["A","B","D"]`)},
	}
	a := roles.Classify(&trace.Trace{
		Hints:     []trace.Hint{{Name: "frontier", Role: "queue"}, {Name: "g", Role: "graph"}},
		Snapshots: []trace.Snapshot{{Variables: vars}},
	}, nil)

	g, _ := ExtractGraph(graph, &Context{Variables: vars, Assignment: a})
	want := map[string]Fill{
		"A": FillActive,  // active beats frontier and visited
		"B": FillVisited, // role-assigned frontier wins over literal queue
		"C": FillFrontier,
		"D": FillVisited,
		"E": FillDefault,
	}
	got := map[string]Fill{}
	for _, n := range g.Nodes {
		got[n.ID] = n.Fill
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fills (-want +got):\n%s", diff)
	}
}

func TestExtractGraphStackFrontier(t *testing.T) {
	vars := []trace.Field{
		{Name: "queue", Value: decode(t, `[]`)},
		{Name: "stack", Value: decode(t, `["2"]`)},
	}
	g, _ := ExtractGraph(decode(t, `{"1":["2"],"2":[]}`), &Context{Variables: vars})
	if n, _ := g.Node("2"); n.Fill != FillFrontier {
		t.Errorf("node 2 fill = %v, want frontier", n.Fill)
	}
}

func TestExtractGeneric(t *testing.T) {
	tests := []struct {
		value string
		want  *Generic
	}{
		{`42`, &Generic{Text: "42"}},
		{`null`, &Generic{Text: "None"}},
		{`[1,"a"]`, &Generic{Text: "[1, a]", Chips: []string{"1", "a"}, IsList: true}},
		{`{"__type__":"Point","x":1}`, &Generic{Text: "[Point object]", Opaque: true}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ExtractGeneric(decode(t, tt.value))); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tt.value, diff)
		}
	}
}

func TestBuildView(t *testing.T) {
	tr, err := trace.Normalize([]byte(`{"steps":[
		{"line":3,"event":"line","variables":{"s":{"__type__":"Stack","items":[1,2,3]},"i":2,"current":"x","queue":null},"output":"hi\n"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	a := roles.Classify(tr, nil)
	if got := a.Role("s"); got != roles.Stack {
		t.Fatalf("s classified %v, want stack", got)
	}

	v := BuildView(tr.At(0), a)
	if len(v.Structures) != 1 || v.Structures[0].Name != "s" {
		t.Fatalf("structures = %+v", v.Structures)
	}
	l := v.Structures[0].Model.(*List)
	if top := l.Items[l.Marked()]; top != "3" {
		t.Errorf("top = %q, want 3", top)
	}
	if len(v.Others) != 1 || v.Others[0].Name != "i" {
		t.Errorf("others = %+v, want only i", v.Others)
	}
	if v.Finished || v.Output != "hi\n" || *v.Line != 3 {
		t.Errorf("view header = %+v", v)
	}
}

func TestBuildViewNil(t *testing.T) {
	v := BuildView(nil, roles.Assignment{})
	if !v.NoVariables() {
		t.Error("nil snapshot should give an empty view")
	}
}
