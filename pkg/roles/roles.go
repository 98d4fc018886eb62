// Package roles assigns a semantic container role to every traced variable.
//
// A role decides how a variable is drawn: as a stack of boxes, a node-link
// graph, a binary tree and so on. Roles come from three sources, consulted in
// order:
//
//  1. An external role map shipped with the trace (the tracer's variable_map).
//     When it carries at least one recognized entry it governs every variable
//     of the run and local inference is skipped.
//  2. The value's type tag, matched against the keyword table in [Rules].
//  3. The variable name, matched against the same table.
//
// Anything left over is [Unclassified]. Classification happens once per run
// via [Classify]; the resulting [Assignment] never changes afterwards, so a
// variable keeps its shape while its value evolves.
package roles

import "strings"

// Role is the semantic container type assigned to a variable.
type Role int

const (
	Unclassified Role = iota
	Graph
	Stack
	Queue
	Dictionary
	Set
	Heap
	LinkedList
	BinaryTree
)

var roleNames = [...]string{
	Unclassified: "unclassified",
	Graph:        "graph",
	Stack:        "stack",
	Queue:        "queue",
	Dictionary:   "dictionary",
	Set:          "set",
	Heap:         "heap",
	LinkedList:   "linked_list",
	BinaryTree:   "binary_tree",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unclassified"
	}
	return roleNames[r]
}

// ParseRole maps a tracer role string to a Role. The second result is false
// for strings outside the tracer's vocabulary.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "graph":
		return Graph, true
	case "stack":
		return Stack, true
	case "queue":
		return Queue, true
	case "dictionary":
		return Dictionary, true
	case "set":
		return Set, true
	case "heap", "priority_queue":
		return Heap, true
	case "linked_list":
		return LinkedList, true
	case "binary_tree":
		return BinaryTree, true
	}
	return Unclassified, false
}

// Sequential reports whether r renders as a flat list of items.
func (r Role) Sequential() bool {
	switch r {
	case Stack, Queue, Heap, Set:
		return true
	}
	return false
}

// Frontier reports whether variables of role r hold a traversal frontier.
func (r Role) Frontier() bool { return r == Queue || r == Stack }
