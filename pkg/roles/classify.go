package roles

import (
	"sort"

	"github.com/matzehuels/tracetower/pkg/trace"
)

// RoleMap is an externally supplied name → role table.
type RoleMap map[string]Role

// ParseHints keeps the recognized entries of a tracer's variable_map.
// Unrecognized role strings are dropped so the variable falls through to
// local inference.
func ParseHints(hints []trace.Hint) RoleMap {
	m := RoleMap{}
	for _, h := range hints {
		if r, ok := ParseRole(h.Role); ok {
			m[h.Name] = r
		}
	}
	return m
}

// Assignment is the frozen role of every variable for one run.
type Assignment struct {
	roles    map[string]Role
	external bool
}

// Role returns the role of name. Unknown names are Unclassified.
func (a Assignment) Role(name string) Role {
	return a.roles[name]
}

// External reports whether the assignment came from an external map.
func (a Assignment) External() bool { return a.external }

// Names returns the classified variable names in sorted order.
func (a Assignment) Names() []string {
	names := make([]string, 0, len(a.roles))
	for n := range a.roles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WithRole returns names bound to role r, sorted.
func (a Assignment) WithRole(r Role) []string {
	var names []string
	for _, n := range a.Names() {
		if a.roles[n] == r {
			names = append(names, n)
		}
	}
	return names
}

// Classify computes the run's role assignment.
//
// When external holds at least one entry it is authoritative: every traced
// variable takes its role from the map, or Unclassified when absent.
// Otherwise each variable is inferred once from its first appearance, with
// the tag taken from its first tagged value.
//
// Hints of the trace are merged into external before the check, so a trace
// carrying its own variable_map is honored without the caller parsing it.
// A variable whose hint named an unknown role is inferred locally even when
// the map governs.
func Classify(t *trace.Trace, external RoleMap) Assignment {
	fallThrough := map[string]bool{}
	if t != nil && len(t.Hints) > 0 {
		merged := ParseHints(t.Hints)
		for _, h := range t.Hints {
			if _, ok := merged[h.Name]; !ok {
				fallThrough[h.Name] = true
			}
		}
		for n, r := range external {
			merged[n] = r
			delete(fallThrough, n)
		}
		external = merged
	}

	tags := map[string]string{}
	var order []string
	for _, s := range snapshots(t) {
		for _, f := range s.Variables {
			if _, seen := tags[f.Name]; !seen {
				order = append(order, f.Name)
				tags[f.Name] = ""
			}
			if tags[f.Name] == "" {
				if tag, ok := f.Value.Tag(); ok {
					tags[f.Name] = tag
				}
			}
		}
	}

	a := Assignment{roles: map[string]Role{}}
	if len(external) == 0 {
		for _, n := range order {
			a.roles[n] = Infer(tags[n], n)
		}
		return a
	}

	a.external = true
	for n, r := range external {
		a.roles[n] = r
	}
	for _, n := range order {
		if _, ok := a.roles[n]; ok {
			continue
		}
		if fallThrough[n] {
			a.roles[n] = Infer(tags[n], n)
		} else {
			a.roles[n] = Unclassified
		}
	}
	return a
}

func snapshots(t *trace.Trace) []trace.Snapshot {
	if t == nil {
		return nil
	}
	return t.Snapshots
}
