// Package export renders playback steps to PNG and animated GIF files.
//
// A PNG export captures the step that is currently showing. A GIF export
// borrows the playback index through a [playback.Lease], walks every step,
// captures one frame per step and restores the index when it is done,
// whether it succeeded, failed or was cancelled by a trace reload.
//
// Scene colors are authored in OKLCH, which capturers cannot paint, so every
// frame is captured from a normalized copy of its scene. The scene itself is
// never modified.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/capture"
	"github.com/matzehuels/tracetower/pkg/colorconv"
	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/scene"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Kind is an export format.
type Kind string

const (
	PNG Kind = "png"
	GIF Kind = "gif"
)

// Filename returns the download name for an export. step is the zero-based
// index captured by a PNG export and is ignored for GIFs.
func Filename(kind Kind, step int) string {
	if kind == GIF {
		return "tracetower.gif"
	}
	return fmt.Sprintf("tracetower-step-%d.png", step+1)
}

// Job describes a running export. It is transient and never persisted.
type Job struct {
	ID         uuid.UUID
	Kind       Kind
	Progress   int // percent, 0-100
	SavedIndex int
}

// Settle waits for the surface to reflect step index before it is captured.
type Settle func(ctx context.Context, index int) error

// Options configure an Exporter. Zero values select defaults.
type Options struct {
	Layout   scene.Options
	Capturer capture.Capturer
	Roles    roles.RoleMap

	// MaxWidth downsizes frames wider than this many pixels. Zero keeps the
	// captured size.
	MaxWidth int

	Settle   Settle
	Progress func(Job)

	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// Exporter renders exports. It holds no per-export state and may be shared.
type Exporter struct {
	layout   scene.Options
	capturer capture.Capturer
	roles    roles.RoleMap
	maxWidth int
	settle   Settle
	progress func(Job)
	cache    cache.Cache
	keyer    cache.Keyer
	logger   *log.Logger
}

// New creates an exporter.
func New(opts Options) *Exporter {
	if opts.Capturer == nil {
		opts.Capturer = capture.NewRaster()
	}
	if opts.Settle == nil {
		opts.Settle = func(context.Context, int) error { return nil }
	}
	if opts.Progress == nil {
		opts.Progress = func(Job) {}
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Exporter{
		layout:   opts.Layout,
		capturer: opts.Capturer,
		roles:    opts.Roles,
		maxWidth: opts.MaxWidth,
		settle:   opts.Settle,
		progress: opts.Progress,
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		logger:   opts.Logger,
	}
}

// captureScene normalizes s and captures it.
func (e *Exporter) captureScene(ctx context.Context, s *scene.Scene) (image.Image, error) {
	img, err := e.capturer.Capture(ctx, scene.Normalize(s, colorconv.Convert))
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		if errors.GetCode(err) == errors.ErrCodeCaptureFailed {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeCaptureFailed, err, "capture failed")
	}
	return img, nil
}

// frameKey returns "" when tr cannot be hashed, which disables caching.
// The external role map and the capture backend with its scale are part of
// the key since each changes the encoded image.
func (e *Exporter) frameKey(tr *trace.Trace, opts cache.FrameKeyOpts) string {
	data, err := json.Marshal(struct {
		Trace *trace.Trace  `json:"trace"`
		Roles roles.RoleMap `json:"roles,omitempty"`
	}{tr, e.roles})
	if err != nil {
		return ""
	}
	opts.Width = e.layout.Width
	opts.MaxWidth = e.maxWidth
	opts.Capturer = e.capturer.Key()
	opts.Scale = e.capturer.Scale()
	return e.keyer.FrameKey(cache.Hash(data), opts)
}

func (e *Exporter) cached(ctx context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache read failed", "error", err)
		return nil, false
	}
	return data, ok
}

func (e *Exporter) store(ctx context.Context, key string, data []byte) {
	if key == "" {
		return
	}
	if err := e.cache.Set(ctx, key, data, cache.FrameTTL); err != nil {
		e.logger.Warn("cache write failed", "error", err)
	}
}

func cancelled(cause error) error {
	return errors.Wrap(errors.ErrCodeExportCancelled, cause, "export cancelled")
}

func elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
