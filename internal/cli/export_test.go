package cli

import (
	"bytes"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/tracetower/pkg/errors"
)

func TestWriteExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames", "run")
	path, err := writeExport(dir, "tracetower-step-2.png", []byte("png"))
	if err != nil {
		t.Fatalf("writeExport() error: %v", err)
	}
	if want := filepath.Join(dir, "tracetower-step-2.png"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "png" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteExportInvalidDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := writeExport(file, "out.gif", []byte("gif"))
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("writeExport() error = %v, want INVALID_PATH", err)
	}
}

func writeTraceFile(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
}

func TestRunExportGIF(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "run.gif")
	c := New(os.Stderr, LogInfo)

	err := c.runExport(t.Context(), writeTraceFile(t, renderTrace), exportOpts{
		format: "gif",
		step:   1,
		output: out,
		speed:  "200ms",
		width:  320,
	})
	if err != nil {
		t.Fatalf("runExport() error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Image) != 3 {
		t.Errorf("frames = %d, want 3", len(g.Image))
	}
	for i, d := range g.Delay {
		if d != 20 {
			t.Errorf("frame %d delay = %d, want 20", i, d)
		}
	}
}

func TestRunExportErrors(t *testing.T) {
	isolate(t)
	c := New(os.Stderr, LogInfo)

	tests := []struct {
		name    string
		payload string
		opts    exportOpts
		want    errors.Code
	}{
		{"bad format", renderTrace, exportOpts{format: "bmp", step: 1}, errors.ErrCodeInvalidFormat},
		{"bad speed", renderTrace, exportOpts{format: "gif", step: 1, speed: "10ms"}, errors.ErrCodeInvalidSpeed},
		{"empty trace", `{"steps":[]}`, exportOpts{format: "png", step: 1}, errors.ErrCodeEmptyTrace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.runExport(t.Context(), writeTraceFile(t, tt.payload), tt.opts)
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}
