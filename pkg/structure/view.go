package structure

import (
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Hidden are helper variables of graph traversals. They feed node fill
// states and are left out of the other-variables list.
var Hidden = map[string]bool{
	"current_node": true,
	"current":      true,
	"node":         true,
	"neighbors":    true,
	"start_node":   true,
	"start":        true,
	"variable_map": true,
}

// Entry is one rendered variable.
type Entry struct {
	Name  string
	Model Model
	// Empty is set when the value held no structure for its role.
	Empty bool
}

// View is everything drawn for one snapshot.
type View struct {
	Index    int
	Line     *int
	Event    trace.Event
	Finished bool

	// Structures are the classified variables, in snapshot order.
	Structures []Entry
	// Others are unclassified, non-helper variables.
	Others []Entry

	Output string
}

// NoVariables reports whether the snapshot had nothing to show at all.
func (v *View) NoVariables() bool {
	return len(v.Structures) == 0 && len(v.Others) == 0
}

// BuildView extracts a model for every variable of s. Classified variables
// holding null are skipped.
func BuildView(s *trace.Snapshot, a roles.Assignment) *View {
	v := &View{}
	if s == nil {
		return v
	}
	v.Index, v.Line, v.Event, v.Output = s.Index, s.Line, s.Event, s.Output
	v.Finished = s.Finished()

	ctx := &Context{Variables: s.Variables, Assignment: a}
	for _, f := range s.Variables {
		role := a.Role(f.Name)
		if role == roles.Unclassified {
			if Hidden[f.Name] {
				continue
			}
			v.Others = append(v.Others, Entry{Name: f.Name, Model: ExtractGeneric(f.Value)})
			continue
		}
		if f.Value.IsNull() {
			continue
		}
		m, ok := Extract(f.Value, role, ctx)
		v.Structures = append(v.Structures, Entry{Name: f.Name, Model: m, Empty: !ok})
	}
	return v
}
