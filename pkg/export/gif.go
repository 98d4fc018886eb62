package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/playback"
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/scene"
	"github.com/matzehuels/tracetower/pkg/structure"
)

// GIF records every step of the loaded trace into an animated GIF.
//
// The controller is locked for the duration: user transitions fail with
// PLAYBACK_LOCKED. Loading a new trace cancels the export with
// EXPORT_CANCELLED. The index showing before the export is restored in
// every case.
func (e *Exporter) GIF(ctx context.Context, c *playback.Controller) (data []byte, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lease, err := c.Acquire(cancel)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	tr := c.Trace()
	n := tr.Len()
	speed := c.State().Speed
	job := Job{ID: uuid.New(), Kind: GIF, SavedIndex: lease.Saved()}
	logger := e.logger.With("job", job.ID.String()[:8])

	key := e.frameKey(tr, cache.FrameKeyOpts{Kind: string(GIF), Step: -1, Speed: int64(speed)})
	if data, ok := e.cached(ctx, key); ok {
		logger.Debug("gif cache hit")
		job.Progress = 100
		e.progress(job)
		return data, nil
	}

	start := time.Now()
	observability.Export().OnExportStart(ctx, string(GIF), n)
	defer func() { observability.Export().OnExportComplete(ctx, string(GIF), elapsed(start), err) }()

	// Every frame shares the tallest step's height so the animation does
	// not jump.
	assignment := roles.Classify(tr, e.roles)
	views := make([]*structure.View, n)
	height := 0.0
	for i := range views {
		views[i] = structure.BuildView(tr.At(i), assignment)
		height = math.Max(height, scene.Measure(views[i], e.layout))
	}
	logger.Debug("measured surface", "steps", n, "height", height)

	delay := int(speed / (10 * time.Millisecond))
	anim := &gif.GIF{}
	var bounds image.Rectangle

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}
		if err := lease.Seek(i); err != nil {
			return nil, err
		}
		if err := e.settle(ctx, i); err != nil {
			if ctx.Err() != nil {
				return nil, cancelled(ctx.Err())
			}
			return nil, err
		}
		if lease.Revoked() {
			return nil, cancelled(context.Canceled)
		}

		frameStart := time.Now()
		s := scene.Build(views[i], e.layout)
		s.Height = height
		img, err := e.captureScene(ctx, s)
		if err != nil {
			logger.Warn("frame capture failed", "step", i+1, "error", err)
			return nil, err
		}
		img = e.fit(img)
		if i == 0 {
			bounds = img.Bounds()
		}
		anim.Image = append(anim.Image, paletted(pin(img, bounds)))
		anim.Delay = append(anim.Delay, delay)
		observability.Export().OnFrameCaptured(ctx, string(GIF), i, elapsed(frameStart))

		job.Progress = (i + 1) * 100 / n
		e.progress(job)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode gif")
	}
	e.store(ctx, key, buf.Bytes())
	logger.Info("exported gif", "frames", n, "bytes", buf.Len(), "duration", elapsed(start))
	return buf.Bytes(), nil
}

// pin places img on a white canvas of exactly bounds' size.
func pin(img image.Image, bounds image.Rectangle) image.Image {
	if img.Bounds().Size() == bounds.Size() {
		return img
	}
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Paste(canvas, img, image.Point{})
}

func paletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Rect, img, b.Min)
	return p
}
