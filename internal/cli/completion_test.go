package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// complete runs cobra's hidden completion request for args.
func complete(t *testing.T, args ...string) []string {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"__complete"}, args...))
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func TestCompletions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"PlayTraceFile", []string{"play", ""}, []string{"json", ":8"}},
		{"InspectTraceFile", []string{"inspect", ""}, []string{"json", ":8"}},
		{"ExportSecondArg", []string{"export", "bfs.json", ""}, []string{":4"}},
		{"RunProgram", []string{"run", ""}, []string{"py", ":8"}},
		{"ExportFormat", []string{"export", "--format", ""}, []string{"png", "gif", ":4"}},
		{"ExportCapturer", []string{"export", "--capturer", ""}, []string{"raster", "rsvg", ":4"}},
		{"SummarizeTrace", []string{"summarize", "--trace", ""}, []string{"json", ":8"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := complete(t, tt.args...)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("complete(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
