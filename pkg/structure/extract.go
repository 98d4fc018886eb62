package structure

import (
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Context carries the snapshot around the value being extracted. Only graph
// extraction reads it, to derive node fill states from helper variables.
type Context struct {
	Variables  []trace.Field
	Assignment roles.Assignment
}

func (c *Context) lookup(name string) (trace.Value, bool) {
	if c == nil {
		return trace.Value{}, false
	}
	for _, f := range c.Variables {
		if f.Name == name {
			return f.Value, true
		}
	}
	return trace.Value{}, false
}

// Extract builds the render model of v under role. The boolean is false
// when v holds no recognizable structure for the role; the model is then the
// role's empty model and can still be drawn.
func Extract(v trace.Value, role roles.Role, ctx *Context) (Model, bool) {
	switch role {
	case roles.Stack, roles.Queue, roles.Heap, roles.Set:
		return ExtractList(v, role)
	case roles.Dictionary:
		return ExtractDict(v)
	case roles.LinkedList:
		return ExtractLinkedList(v)
	case roles.BinaryTree:
		return ExtractTree(v)
	case roles.Graph:
		return ExtractGraph(v, ctx)
	}
	return ExtractGeneric(v), true
}

// ExtractList reads a list-shaped role. A bare sequence is used as is;
// objects are searched for the role's preferred item field. Items keep their
// delivered order.
func ExtractList(v trace.Value, role roles.Role) (*List, bool) {
	l := &List{Kind: role}
	switch role {
	case roles.Stack:
		l.End = EndLast
	case roles.Queue, roles.Heap:
		l.End = EndFirst
	}

	seq := v
	if v.Kind() != trace.KindSequence {
		var ok bool
		if seq, ok = sequenceField(v, roles.RuleFor(role).Items); !ok {
			return l, false
		}
	}
	l.Items = displayItems(seq)
	return l, true
}

// ExtractDict passes the entries of a mapping or reference through.
func ExtractDict(v trace.Value) (*Dict, bool) {
	d := &Dict{}
	if !v.IsObject() {
		return d, false
	}
	for _, f := range v.Fields() {
		d.Pairs = append(d.Pairs, Pair{Key: f.Name, Value: f.Value.String()})
	}
	return d, true
}

// ExtractLinkedList walks a linked list from its head.
//
// v is either a container with a head-like field or a bare node carrying
// both a next-like and a value-like field. The walk stops at a missing or
// null pointer, or at a cyclic placeholder, which marks the list truncated.
func ExtractLinkedList(v trace.Value) (*LinkedList, bool) {
	rule := roles.RuleFor(roles.LinkedList)
	l := &LinkedList{}
	if v.IsCyclic() {
		l.Truncated = true
		return l, false
	}
	if !v.IsObject() {
		return l, false
	}

	var (
		node trace.Value
		rear bool
	)
	_, hasNext := field(v, rule.Next)
	_, hasValue := field(v, rule.Value)
	switch {
	case hasNext && hasValue:
		node = v
	default:
		head, ok := field(v, rule.Head)
		if !ok {
			return l, false
		}
		if head.IsNull() {
			l.HeadNull = true
			return l, true
		}
		if head.IsCyclic() {
			l.Truncated = true
			return l, true
		}
		node = head
		if r, ok := field(v, rule.Rear); ok && !r.IsNull() {
			rear = true
		}
	}

	for node.IsObject() {
		val, ok := field(node, rule.Value)
		if !ok {
			val = trace.Null()
		}
		l.Nodes = append(l.Nodes, ListNode{Value: val.String()})

		next, ok := field(node, rule.Next)
		if !ok || next.IsNull() {
			break
		}
		if next.IsCyclic() {
			l.Truncated = true
			break
		}
		node = next
	}

	if n := len(l.Nodes); n > 0 {
		l.Nodes[0].Front = true
		l.Nodes[n-1].Rear = rear
	}
	return l, true
}

// ExtractTree builds an arena tree from a node-shaped value.
//
// A value without a value-like field is unwrapped once through a root-like
// field. Children that are not objects with a value field are absent; a
// cyclic child is absent and marks its parent truncated.
func ExtractTree(v trace.Value) (*Tree, bool) {
	rule := roles.RuleFor(roles.BinaryTree)
	t := &Tree{Root: -1}

	if _, ok := field(v, rule.Value); !ok {
		if inner, ok := field(v, rule.Root); ok {
			v = inner
		}
	}
	if !isTreeNode(v, rule) {
		return t, false
	}

	type pending struct {
		v      trace.Value
		parent int
		right  bool
	}
	stack := []pending{{v: v, parent: -1}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		val, _ := field(p.v, rule.Value)
		idx := len(t.Nodes)
		t.Nodes = append(t.Nodes, TreeNode{Value: val.String(), Left: -1, Right: -1})
		switch {
		case p.parent < 0:
			t.Root = idx
		case p.right:
			t.Nodes[p.parent].Right = idx
		default:
			t.Nodes[p.parent].Left = idx
		}

		// Right first so the left subtree is popped, and numbered, first.
		for _, side := range []struct {
			names []string
			right bool
		}{{rule.Right, true}, {rule.Left, false}} {
			child, ok := field(p.v, side.names)
			if !ok {
				continue
			}
			if child.IsCyclic() {
				t.Nodes[idx].Truncated = true
				continue
			}
			if isTreeNode(child, rule) {
				stack = append(stack, pending{v: child, parent: idx, right: side.right})
			}
		}
	}
	return t, true
}

func isTreeNode(v trace.Value, rule roles.Rule) bool {
	_, ok := field(v, rule.Value)
	return ok
}

// ExtractGeneric renders an unclassified value.
func ExtractGeneric(v trace.Value) *Generic {
	switch v.Kind() {
	case trace.KindSequence:
		return &Generic{Text: v.String(), Chips: displayItems(v), IsList: true}
	case trace.KindReference:
		return &Generic{Text: v.String(), Opaque: true}
	}
	return &Generic{Text: v.String()}
}
