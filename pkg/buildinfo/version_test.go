package buildinfo

import (
	"strings"
	"testing"
)

func TestStamp(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	t.Cleanup(func() { Version = old })

	if got := Get().Version; got != "v9.9.9" {
		t.Errorf("Get().Version = %s", got)
	}
	if !strings.Contains(String(), "version: v9.9.9") {
		t.Errorf("String() = %q", String())
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version v9.9.9\n") {
		t.Errorf("Template() = %q", Template())
	}
	if UserAgent() != "tracetower/v9.9.9" {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}
