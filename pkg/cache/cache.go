// Package cache stores rendered artifacts and service responses.
//
// Exported frames and explanation/summary responses are deterministic for a
// given input, so they are cached under content-derived keys. Three backends
// are provided: [FileCache] for the CLI, [RedisCache] for the shared server,
// and [NullCache] when caching is disabled.
//
// Keys are produced by a [Keyer] so that the key layout lives in one place:
//
//	k := cache.NewDefaultKeyer()
//	key := k.FrameKey(traceHash, cache.FrameKeyOpts{Step: 3, Width: 800})
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	FrameTTL   = 7 * 24 * time.Hour
	ServiceTTL = 24 * time.Hour
)

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey keys a raw service response.
	HTTPKey(namespace, key string) string

	// FrameKey keys an encoded export of a trace.
	FrameKey(traceHash string, opts FrameKeyOpts) string
}

// FrameKeyOpts are the inputs that change an exported artifact.
type FrameKeyOpts struct {
	Kind     string  `json:"kind"`
	Step     int     `json:"step"`
	Width    float64 `json:"width"`
	MaxWidth int     `json:"max_width,omitempty"`
	Speed    int64   `json:"speed,omitempty"`
	Capturer string  `json:"capturer,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// FrameKey hashes the trace hash together with opts.
func (DefaultKeyer) FrameKey(traceHash string, opts FrameKeyOpts) string {
	return hashKey("frame", traceHash, opts)
}
