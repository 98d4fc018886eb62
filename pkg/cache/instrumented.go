package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/tracetower/pkg/observability"
)

// instrumented reports hits, misses and writes to the registered cache hooks.
type instrumented struct {
	Cache
}

// WithHooks wraps c so every access is reported to observability.Cache().
func WithHooks(c Cache) Cache {
	if c == nil {
		c = NewNullCache()
	}
	return instrumented{Cache: c}
}

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// keyType is the segment before the hash or namespace, e.g. "frame" or "http".
func keyType(key string) string {
	parts := strings.Split(key, ":")
	for _, p := range parts {
		if p == "frame" || p == "http" {
			return p
		}
	}
	return parts[0]
}
