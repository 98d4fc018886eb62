package playback

import "github.com/matzehuels/tracetower/pkg/errors"

// Lease is temporary exclusive ownership of the playback index, held by an
// export for the duration of a frame pass.
type Lease struct {
	c       *Controller
	saved   int
	cancel  func()
	revoked bool
}

// Acquire takes the lease. cancel is invoked if a new trace is loaded while
// the lease is held. Autoplay is stopped.
func (c *Controller) Acquire(cancel func()) (*Lease, error) {
	c.mu.Lock()
	if c.lease != nil {
		c.mu.Unlock()
		return nil, ErrLocked
	}
	if c.trace.Len() == 0 {
		c.mu.Unlock()
		return nil, errors.New(errors.ErrCodeEmptyTrace, "nothing to export: no trace is loaded")
	}
	from := c.index
	c.stopLocked()
	l := &Lease{c: c, saved: c.index, cancel: cancel}
	c.lease = l
	c.finish("acquire", from)
	return l, nil
}

// Saved returns the index the lease will restore.
func (l *Lease) Saved() int { return l.saved }

// Seek moves the index on behalf of the lease holder.
func (l *Lease) Seek(k int) error {
	c := l.c
	c.mu.Lock()
	if c.lease != l {
		c.mu.Unlock()
		return errors.New(errors.ErrCodeExportCancelled, "export cancelled: trace was reloaded")
	}
	from := c.index
	c.index = clamp(k, c.trace.Len())
	c.finish("export-seek", from)
	return nil
}

// Revoked reports whether a Load took the lease away.
func (l *Lease) Revoked() bool {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	return l.revoked
}

// Release restores the saved index and unlocks the controller. It is safe to
// call more than once and after the lease was revoked; a revoked lease
// leaves the newly loaded trace untouched.
func (l *Lease) Release() {
	c := l.c
	c.mu.Lock()
	if c.lease != l {
		c.mu.Unlock()
		return
	}
	from := c.index
	c.lease = nil
	c.index = clamp(l.saved, c.trace.Len())
	c.finish("release", from)
}
