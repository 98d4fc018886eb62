package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/tracetower/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "a", []byte("alpha"), 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit || string(data) != "alpha" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("cleared key should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("explain", "abc"); got != "http:explain:abc" {
		t.Errorf("HTTPKey = %s", got)
	}

	base := FrameKeyOpts{Kind: "png", Step: 2, Width: 800}
	k1 := k.FrameKey("hash123", base)
	if k1 != k.FrameKey("hash123", base) {
		t.Error("FrameKey should be deterministic")
	}
	other := base
	other.Step = 3
	if k1 == k.FrameKey("hash123", other) {
		t.Error("different steps should produce different keys")
	}
	if k1 == k.FrameKey("hash456", base) {
		t.Error("different traces should produce different keys")
	}
	if !strings.HasPrefix(k1, "frame:") {
		t.Errorf("FrameKey = %s, want frame: prefix", k1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "tt:")
	if got := scoped.HTTPKey("summarize", "x"); got != "tt:http:summarize:x" {
		t.Errorf("HTTPKey = %s", got)
	}
	if got := scoped.FrameKey("h", FrameKeyOpts{}); !strings.HasPrefix(got, "tt:frame:") {
		t.Errorf("FrameKey = %s", got)
	}
	if got := NewScopedKeyer(nil, "p:").HTTPKey("n", "k"); got != "p:http:n:k" {
		t.Errorf("nil inner HTTPKey = %s", got)
	}
}

type recordingHooks struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingHooks) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recordingHooks) OnCacheHit(_ context.Context, k string)       { r.record("hit:" + k) }
func (r *recordingHooks) OnCacheMiss(_ context.Context, k string)      { r.record("miss:" + k) }
func (r *recordingHooks) OnCacheSet(_ context.Context, k string, _ int) { r.record("set:" + k) }

func TestWithHooks(t *testing.T) {
	rec := &recordingHooks{}
	observability.SetCacheHooks(rec)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	c := WithHooks(fc)
	key := NewScopedKeyer(nil, "tt:").FrameKey("h", FrameKeyOpts{})

	c.Get(ctx, key)
	c.Set(ctx, key, []byte("x"), 0)
	c.Get(ctx, key)

	want := []string{"miss:frame", "set:frame", "hit:frame"}
	if strings.Join(rec.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("TRACETOWER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TRACETOWER_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	key := "tracetower:test:" + Hash([]byte(t.Name()))
	defer c.Delete(ctx, key)
	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("deleted key should miss")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-url"); err == nil {
		t.Error("expected error for bad URL")
	}
}
