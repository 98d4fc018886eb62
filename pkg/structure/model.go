// Package structure turns traced values into plain render models.
//
// Each role has an extractor that reads a [trace.Value] and produces a
// bounded, alias-free model: lists of display strings, key/value pairs, an
// arena-backed binary tree or a positioned graph. Rendering code consumes
// these models only and never walks raw traced values. Every extractor stops
// at cyclic placeholders, so extraction always terminates.
package structure

import "github.com/matzehuels/tracetower/pkg/roles"

// Model is the render model of one variable.
type Model interface {
	Role() roles.Role
}

// End identifies which end of a list is marked.
type End int

const (
	EndNone End = iota
	EndFirst
	EndLast
)

// List is the model of a stack, queue, heap or set.
type List struct {
	Kind  roles.Role
	Items []string
	End   End
}

func (l *List) Role() roles.Role { return l.Kind }

// Marked returns the index of the marked item, or -1.
func (l *List) Marked() int {
	if len(l.Items) == 0 {
		return -1
	}
	switch l.End {
	case EndFirst:
		return 0
	case EndLast:
		return len(l.Items) - 1
	}
	return -1
}

// Pair is one dictionary entry.
type Pair struct {
	Key   string
	Value string
}

// Dict is the model of a dictionary, in delivered order.
type Dict struct {
	Pairs []Pair
}

func (*Dict) Role() roles.Role { return roles.Dictionary }

// ListNode is one element of a linked list.
type ListNode struct {
	Value string
	Front bool
	Rear  bool
}

// LinkedList is the model of a singly linked list walked from its head.
type LinkedList struct {
	Nodes []ListNode
	// Truncated is set when the walk stopped at a cyclic placeholder.
	Truncated bool
	// HeadNull is set when the container exists but its head is null.
	HeadNull bool
}

func (*LinkedList) Role() roles.Role { return roles.LinkedList }

// TreeNode is one binary-tree node. Left and Right index into Tree.Nodes,
// -1 when absent.
type TreeNode struct {
	Value       string
	Left, Right int
	// Truncated marks a child that was a cyclic placeholder.
	Truncated bool
}

// Tree is an arena-backed binary tree. Nodes are in pre-order.
type Tree struct {
	Nodes []TreeNode
	Root  int
}

func (*Tree) Role() roles.Role { return roles.BinaryTree }

// Empty reports whether the tree has no root.
func (t *Tree) Empty() bool { return t.Root < 0 }

// Depth returns the number of levels in the tree.
func (t *Tree) Depth() int {
	if t.Empty() {
		return 0
	}
	type item struct{ idx, depth int }
	deepest := 0
	stack := []item{{t.Root, 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.depth > deepest {
			deepest = it.depth
		}
		n := t.Nodes[it.idx]
		for _, c := range []int{n.Left, n.Right} {
			if c >= 0 {
				stack = append(stack, item{c, it.depth + 1})
			}
		}
	}
	return deepest
}

// Fill is the traversal state of a graph node.
type Fill int

const (
	FillDefault Fill = iota
	FillVisited
	FillFrontier
	FillActive
)

func (f Fill) String() string {
	switch f {
	case FillVisited:
		return "visited"
	case FillFrontier:
		return "frontier"
	case FillActive:
		return "active"
	}
	return "default"
}

// GraphNode is a positioned graph node.
type GraphNode struct {
	ID   string
	X, Y float64
	Fill Fill
}

// Edge is an undirected edge with Source < Target.
type Edge struct {
	Source, Target string
}

// Graph is the model of an adjacency mapping.
type Graph struct {
	Nodes  []GraphNode
	Edges  []Edge
	Width  float64
	Height float64
}

func (*Graph) Role() roles.Role { return roles.Graph }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (GraphNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

// Generic is the fallback rendering of an unclassified variable.
type Generic struct {
	Text   string
	Chips  []string
	IsList bool
	// Opaque marks a tagged object shown only as a placeholder.
	Opaque bool
}

func (*Generic) Role() roles.Role { return roles.Unclassified }
