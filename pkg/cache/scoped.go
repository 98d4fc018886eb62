package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each server instance or
// deployment its own namespace in a shared Redis.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "tracetower:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed service response key.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// FrameKey generates a prefixed export key.
func (k *ScopedKeyer) FrameKey(traceHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(traceHash, opts)
}
