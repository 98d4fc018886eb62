package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/trace"
)

func TestRolesTable(t *testing.T) {
	tr, err := trace.Normalize([]byte(renderTrace))
	if err != nil {
		t.Fatal(err)
	}
	out := rolesTable(tr, roles.Classify(tr, nil))

	rows := map[string][]string{
		"stack":   {"stack", "2"},
		"total":   {"unclassified", "2"},
		"current": {"unclassified", "2", "helper"},
	}
	for name, want := range rows {
		var line string
		for _, l := range strings.Split(out, "\n") {
			if strings.Contains(l, " "+name+" ") {
				line = l
				break
			}
		}
		if line == "" {
			t.Errorf("no row for %q in:\n%s", name, out)
			continue
		}
		for _, w := range want {
			if !strings.Contains(line, w) {
				t.Errorf("row %q = %q, missing %q", name, line, w)
			}
		}
	}
}

func TestRolesTableExternal(t *testing.T) {
	tr, err := trace.Normalize([]byte(renderTrace))
	if err != nil {
		t.Fatal(err)
	}
	out := rolesTable(tr, roles.Classify(tr, roles.RoleMap{"pending": roles.Queue}))
	if !strings.Contains(out, "pending") || !strings.Contains(out, "—") {
		t.Errorf("untraced external variable missing:\n%s", out)
	}
}
