package roles

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/tracetower/pkg/trace"
)

func TestInfer(t *testing.T) {
	tests := []struct {
		tag, name string
		want      Role
	}{
		{"Stack", "myHeap", Stack},
		{"PriorityQueue", "pq", Heap},
		{"priority_queue", "", Heap},
		{"", "priority_queue", Heap},
		{"Deque", "x", Queue},
		{"", "queue", Queue},
		{"ListNode", "head", LinkedList},
		{"LinkedList", "", LinkedList},
		{"BSTNode", "", LinkedList}, // node precedes tree
		{"BST", "", BinaryTree},
		{"", "tree", BinaryTree},
		{"", "graph", Graph},
		{"", "adjacency_map", Dictionary},
		{"", "seen_set", Set},
		{"Point", "p", Unclassified},
		{"", "count", Unclassified},
		{"", "", Unclassified},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.tag, tt.name), func(t *testing.T) {
			if got := Infer(tt.tag, tt.name); got != tt.want {
				t.Errorf("Infer(%q, %q) = %v, want %v", tt.tag, tt.name, got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"graph", Graph, true},
		{"STACK", Stack, true},
		{"priority_queue", Heap, true},
		{"linked_list", LinkedList, true},
		{"binary_tree", BinaryTree, true},
		{"dictionary", Dictionary, true},
		{"matrix", Unclassified, false},
		{"", Unclassified, false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func snap(fields ...trace.Field) trace.Snapshot {
	return trace.Snapshot{Event: trace.EventLine, Variables: fields}
}

func TestClassifyInference(t *testing.T) {
	stack := trace.Reference("Stack", trace.Field{Name: "items", Value: trace.Sequence(trace.Number("1"))})
	tr := &trace.Trace{Snapshots: []trace.Snapshot{
		snap(trace.Field{Name: "myHeap", Value: trace.Null()}),
		snap(
			trace.Field{Name: "myHeap", Value: stack},
			trace.Field{Name: "count", Value: trace.Number("1")},
		),
		snap(
			trace.Field{Name: "myHeap", Value: trace.Reference("Queue")},
			trace.Field{Name: "count", Value: trace.Number("2")},
		),
	}}

	a := Classify(tr, nil)
	if a.External() {
		t.Error("assignment should be inferred")
	}
	want := map[string]Role{"myHeap": Stack, "count": Unclassified}
	got := map[string]Role{}
	for _, n := range a.Names() {
		got[n] = a.Role(n)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyExternalGoverns(t *testing.T) {
	tr := &trace.Trace{Snapshots: []trace.Snapshot{
		snap(
			trace.Field{Name: "s", Value: trace.Reference("Stack")},
			trace.Field{Name: "g", Value: trace.Mapping()},
		),
	}}

	a := Classify(tr, RoleMap{"g": Graph})
	if !a.External() {
		t.Fatal("external map should govern")
	}
	if got := a.Role("g"); got != Graph {
		t.Errorf("g = %v, want graph", got)
	}
	// Absent from a governing map means no local inference.
	if got := a.Role("s"); got != Unclassified {
		t.Errorf("s = %v, want unclassified", got)
	}
}

func TestClassifyHints(t *testing.T) {
	tr := &trace.Trace{
		Hints: []trace.Hint{{Name: "frontier", Role: "queue"}, {Name: "m", Role: "matrix"}},
		Snapshots: []trace.Snapshot{
			snap(trace.Field{Name: "frontier", Value: trace.Sequence()}, trace.Field{Name: "m", Value: trace.Sequence()}),
		},
	}
	a := Classify(tr, nil)
	if got := a.Role("frontier"); got != Queue {
		t.Errorf("frontier = %v, want queue", got)
	}
	if got := a.Role("m"); got != Unclassified {
		t.Errorf("m = %v, want unclassified", got)
	}
}

func TestClassifyMixedHints(t *testing.T) {
	tr := &trace.Trace{
		Hints: []trace.Hint{{Name: "g", Role: "graph"}, {Name: "work_stack", Role: "matrix"}},
		Snapshots: []trace.Snapshot{
			snap(
				trace.Field{Name: "g", Value: trace.Mapping()},
				trace.Field{Name: "work_stack", Value: trace.Sequence()},
				trace.Field{Name: "pending_queue", Value: trace.Sequence()},
			),
		},
	}
	a := Classify(tr, nil)
	if !a.External() {
		t.Fatal("recognized hint should govern")
	}
	want := map[string]Role{"g": Graph, "work_stack": Stack, "pending_queue": Unclassified}
	for name, role := range want {
		if got := a.Role(name); got != role {
			t.Errorf("%s = %v, want %v", name, got, role)
		}
	}
}

func TestClassifyExternalOverridesUnknownHint(t *testing.T) {
	tr := &trace.Trace{
		Hints:     []trace.Hint{{Name: "work_stack", Role: "matrix"}},
		Snapshots: []trace.Snapshot{snap(trace.Field{Name: "work_stack", Value: trace.Sequence()})},
	}
	a := Classify(tr, RoleMap{"work_stack": Queue})
	if got := a.Role("work_stack"); got != Queue {
		t.Errorf("work_stack = %v, want queue", got)
	}
}

func TestClassifyUnrecognizedHintsFallThrough(t *testing.T) {
	tr := &trace.Trace{
		Hints:     []trace.Hint{{Name: "stack", Role: "matrix"}},
		Snapshots: []trace.Snapshot{snap(trace.Field{Name: "stack", Value: trace.Sequence()})},
	}
	a := Classify(tr, nil)
	if a.External() {
		t.Error("map with no recognized entries should not govern")
	}
	if got := a.Role("stack"); got != Stack {
		t.Errorf("stack = %v, want stack", got)
	}
}

func TestClassifyPure(t *testing.T) {
	tr := &trace.Trace{Snapshots: []trace.Snapshot{
		snap(trace.Field{Name: "q", Value: trace.Reference("Deque")}),
		snap(trace.Field{Name: "q", Value: trace.Reference("Deque")}),
	}}
	first := Classify(tr, nil)
	for i := 0; i < 5; i++ {
		if got := Classify(tr, nil).Role("q"); got != first.Role("q") {
			t.Fatalf("run %d: q = %v, want %v", i, got, first.Role("q"))
		}
	}
}

func TestRuleFor(t *testing.T) {
	if got := RuleFor(Queue).Items; !cmp.Equal(got, []string{"queue", "items", "data"}) {
		t.Errorf("queue items = %v", got)
	}
	if got := RuleFor(Unclassified); len(got.Keywords) != 0 {
		t.Errorf("unclassified rule has keywords %v", got.Keywords)
	}
}

func ExampleInfer() {
	fmt.Println(Infer("Stack", "myHeap"))
	fmt.Println(Infer("", "priority_queue"))
	// Output:
	// stack
	// heap
}
