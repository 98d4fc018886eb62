package roles

import "strings"

// Rule binds a role to the keywords that select it and the field names its
// extractor looks up. Field lists are in preference order.
type Rule struct {
	Role     Role
	Keywords []string

	// Items names the sequence field of list-shaped roles.
	Items []string
	// Head, Next, Value and Rear describe linked-list nodes.
	Head  []string
	Next  []string
	Value []string
	Rear  []string
	// Root, Left and Right describe binary-tree nodes; Value is shared.
	Root  []string
	Left  []string
	Right []string
	// Wrap names the field of an object wrapping a graph's adjacency mapping.
	Wrap []string
}

// Rules is the ordered classification table. Keyword matching walks it top
// to bottom and stops at the first hit, so heap sits ahead of queue and a
// "priority_queue" tag resolves to Heap.
var Rules = []Rule{
	{Role: Graph, Keywords: []string{"graph"}, Wrap: []string{"graph", "adj", "adjacency", "adj_list"}},
	{Role: Stack, Keywords: []string{"stack"}, Items: []string{"items", "stack", "data"}},
	{Role: Heap, Keywords: []string{"heap", "priority"}, Items: []string{"heap", "items", "data"}},
	{Role: Queue, Keywords: []string{"queue", "deque"}, Items: []string{"queue", "items", "data"}},
	{
		Role:     LinkedList,
		Keywords: []string{"node", "linked"},
		Head:     []string{"head", "top", "front", "start", "first"},
		Next:     []string{"next", "nxt", "link"},
		Value:    []string{"data", "value", "val", "item"},
		Rear:     []string{"rear", "tail", "back", "last"},
	},
	{
		Role:     BinaryTree,
		Keywords: []string{"tree", "bst"},
		Root:     []string{"root", "head", "tree"},
		Value:    []string{"val", "key", "data", "value"},
		Left:     []string{"left", "l"},
		Right:    []string{"right", "r"},
	},
	{Role: Dictionary, Keywords: []string{"dict", "map"}},
	{Role: Set, Keywords: []string{"set"}, Items: []string{"items", "data", "set"}},
}

// RuleFor returns the table entry for r. Unclassified has an empty rule.
func RuleFor(r Role) Rule {
	for _, rule := range Rules {
		if rule.Role == r {
			return rule
		}
	}
	return Rule{Role: r}
}

// Match returns the role of the first rule with a keyword contained in s,
// ignoring case.
func Match(s string) (Role, bool) {
	if s == "" {
		return Unclassified, false
	}
	s = strings.ToLower(s)
	for _, rule := range Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(s, kw) {
				return rule.Role, true
			}
		}
	}
	return Unclassified, false
}

// Infer classifies a single variable from its type tag and name. Tag matches
// beat name matches.
func Infer(tag, name string) Role {
	if r, ok := Match(tag); ok {
		return r
	}
	if r, ok := Match(name); ok {
		return r
	}
	return Unclassified
}
