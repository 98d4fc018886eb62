// Package playback drives step navigation over a loaded trace.
//
// A [Controller] owns the playback state (current index, autoplay flag and
// speed) and mutates it only through its transitions. Autoplay is a chain of
// one-shot timers: each tick advances one step and schedules the next, and a
// generation counter discards ticks that were cancelled after firing. At most
// one effective tick is ever pending.
//
// Exports borrow the index through a [Lease]. While a lease is held every
// user transition fails with PLAYBACK_LOCKED and changes nothing; releasing
// the lease restores the index it was acquired at.
package playback

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// DefaultSpeed is the autoplay interval used when none is configured.
const DefaultSpeed = 500 * time.Millisecond

// ErrLocked is returned by transitions attempted while an export holds the lease.
var ErrLocked = errors.New(errors.ErrCodePlaybackLocked, "playback is locked while an export is running")

// State is a copy of the controller state.
type State struct {
	Index   int
	Len     int
	Playing bool
	Speed   time.Duration
	Locked  bool
}

// Finished reports whether the last step is showing.
func (s State) Finished() bool { return s.Len > 0 && s.Index == s.Len-1 }

// Idle reports whether no trace is loaded.
func (s State) Idle() bool { return s.Len == 0 }

// Observer is called after every state change, outside the controller lock.
type Observer func(State)

// Options configure a Controller. Zero values select defaults.
type Options struct {
	Speed     time.Duration
	Scheduler Scheduler
	Logger    *log.Logger
}

// Controller is the single owner of playback state. It is safe for
// concurrent use.
type Controller struct {
	mu        sync.Mutex
	trace     *trace.Trace
	index     int
	playing   bool
	speed     time.Duration
	sched     Scheduler
	timer     Timer
	gen       uint64
	lease     *Lease
	observers []Observer
	logger    *log.Logger
}

// New creates an idle controller.
func New(opts Options) *Controller {
	if opts.Speed <= 0 {
		opts.Speed = DefaultSpeed
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Controller{speed: opts.Speed, sched: opts.Scheduler, logger: opts.Logger}
}

// Observe registers fn to be called on every state change.
func (c *Controller) Observe(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Trace returns the loaded trace, or nil.
func (c *Controller) Trace() *trace.Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trace
}

// Current returns the snapshot at the current index, or nil when idle.
func (c *Controller) Current() *trace.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trace.At(c.index)
}

// Load replaces the trace and resets to step 0. Any pending autoplay tick is
// cancelled and an in-flight export is cancelled and its lease revoked.
// Load is never blocked by a lease.
func (c *Controller) Load(t *trace.Trace) {
	c.mu.Lock()
	from := c.index
	c.stopLocked()
	if l := c.lease; l != nil {
		c.lease = nil
		l.revoked = true
		if l.cancel != nil {
			l.cancel()
		}
		c.logger.Debug("export cancelled by load")
	}
	c.trace = t
	c.index = 0
	c.finish("load", from)
}

// Next advances one step. It is a no-op on the last step.
func (c *Controller) Next() error {
	return c.navigate("next", func(i, n int) int { return min(i+1, n-1) })
}

// Previous goes back one step. It is a no-op on the first step.
func (c *Controller) Previous() error {
	return c.navigate("previous", func(i, _ int) int { return max(i-1, 0) })
}

// Reset returns to the first step.
func (c *Controller) Reset() error {
	return c.navigate("reset", func(int, int) int { return 0 })
}

// Seek jumps to step k, clamped to the trace bounds.
func (c *Controller) Seek(k int) error {
	return c.navigate("seek", func(_, n int) int { return clamp(k, n) })
}

// Pause stops autoplay.
func (c *Controller) Pause() error {
	return c.navigate("pause", func(i, _ int) int { return i })
}

// Play starts autoplay. It is a no-op when already playing, when idle, or on
// the last step.
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.lease != nil {
		c.mu.Unlock()
		return c.rejected("play")
	}
	n := c.trace.Len()
	if c.playing || n == 0 || c.index >= n-1 {
		c.mu.Unlock()
		return nil
	}
	c.playing = true
	c.scheduleLocked()
	c.finish("play", c.index)
	return nil
}

// Toggle pauses when playing and plays otherwise.
func (c *Controller) Toggle() error {
	if c.State().Playing {
		return c.Pause()
	}
	return c.Play()
}

// SetSpeed changes the autoplay interval. A tick already pending keeps its
// original deadline.
func (c *Controller) SetSpeed(d time.Duration) error {
	if err := errors.ValidateSpeed(d); err != nil {
		return err
	}
	c.mu.Lock()
	if c.lease != nil {
		c.mu.Unlock()
		return c.rejected("speed")
	}
	c.speed = d
	c.finish("speed", c.index)
	return nil
}

// navigate applies a manual transition. Manual transitions always cancel
// autoplay.
func (c *Controller) navigate(name string, next func(index, n int) int) error {
	c.mu.Lock()
	if c.lease != nil {
		c.mu.Unlock()
		return c.rejected(name)
	}
	from := c.index
	c.stopLocked()
	if n := c.trace.Len(); n > 0 {
		c.index = next(c.index, n)
	}
	c.finish(name, from)
	return nil
}

func (c *Controller) rejected(name string) error {
	observability.Playback().OnRejected(name)
	c.logger.Debug("transition rejected", "transition", name)
	return ErrLocked
}

// tick is the autoplay timer callback.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.playing {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	from := c.index
	n := c.trace.Len()
	if c.index < n-1 {
		c.index++
	}
	if c.index >= n-1 {
		c.playing = false
	} else {
		c.scheduleLocked()
	}
	c.finish("tick", from)
}

// scheduleLocked arms the single pending tick.
func (c *Controller) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.sched.AfterFunc(c.speed, func() { c.tick(gen) })
}

// stopLocked cancels autoplay. Bumping the generation discards a tick that
// has already fired but not yet acquired the lock.
func (c *Controller) stopLocked() {
	c.playing = false
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) stateLocked() State {
	return State{
		Index:   c.index,
		Len:     c.trace.Len(),
		Playing: c.playing,
		Speed:   c.speed,
		Locked:  c.lease != nil,
	}
}

// finish releases the lock and notifies observers of the new state.
func (c *Controller) finish(name string, from int) {
	s := c.stateLocked()
	obs := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	observability.Playback().OnTransition(name, from, s.Index, s.Playing)
	for _, fn := range obs {
		fn(s)
	}
}

func clamp(k, n int) int {
	if k < 0 {
		return 0
	}
	if k > n-1 {
		return n - 1
	}
	return k
}
