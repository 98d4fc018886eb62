package cli

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/config"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()

	tests := []struct {
		name string
		xdg  string
		dir  string
		want string
	}{
		{"home default", "", "", filepath.Join(home, ".cache", appName)},
		{"xdg", "/tmp/custom-cache", "", filepath.Join("/tmp/custom-cache", appName)},
		{"configured", "/tmp/custom-cache", "/srv/frames", "/srv/frames"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", home)
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			cfg := config.New()
			cfg.Cache.Dir = tt.dir

			got, err := cacheDir(cfg)
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCacheBackends(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)

	tests := []struct {
		name     string
		backend  string
		noCache  bool
		wantNull bool
	}{
		{"file", "file", false, false},
		{"none", "none", false, true},
		{"flag disables", "file", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Cache.Backend = tt.backend
			ca, err := c.newCache(t.Context(), cfg, tt.noCache)
			if err != nil {
				t.Fatal(err)
			}
			defer ca.Close()
			if _, null := ca.(cache.NullCache); null != tt.wantNull {
				t.Errorf("null cache = %v, want %v", null, tt.wantNull)
			}
		})
	}
}
