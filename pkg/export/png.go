package export

import (
	"bytes"
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/playback"
	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/scene"
	"github.com/matzehuels/tracetower/pkg/structure"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// PNG captures the step the controller is showing. It returns the encoded
// image and the step index it depicts.
func (e *Exporter) PNG(ctx context.Context, c *playback.Controller) ([]byte, int, error) {
	st := c.State()
	if st.Idle() {
		return nil, 0, errors.New(errors.ErrCodeEmptyTrace, "nothing to export: no trace is loaded")
	}
	data, err := e.StepPNG(ctx, c.Trace(), st.Index)
	return data, st.Index, err
}

// StepPNG captures step index of tr without a controller.
func (e *Exporter) StepPNG(ctx context.Context, tr *trace.Trace, index int) (data []byte, err error) {
	snap := tr.At(index)
	if snap == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "step %d out of range [1, %d]", index+1, tr.Len())
	}

	key := e.frameKey(tr, cache.FrameKeyOpts{Kind: string(PNG), Step: index})
	if data, ok := e.cached(ctx, key); ok {
		e.logger.Debug("png cache hit", "step", index+1)
		return data, nil
	}

	start := time.Now()
	observability.Export().OnExportStart(ctx, string(PNG), 1)
	defer func() { observability.Export().OnExportComplete(ctx, string(PNG), elapsed(start), err) }()

	view := structure.BuildView(snap, roles.Classify(tr, e.roles))
	img, err := e.captureScene(ctx, scene.Build(view, e.layout))
	if err != nil {
		return nil, err
	}
	img = e.fit(img)
	observability.Export().OnFrameCaptured(ctx, string(PNG), index, elapsed(start))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	e.store(ctx, key, buf.Bytes())
	e.logger.Info("exported png", "step", index+1, "bytes", buf.Len(), "duration", elapsed(start))
	return buf.Bytes(), nil
}

// fit downsizes img to the configured maximum width.
func (e *Exporter) fit(img image.Image) image.Image {
	if e.maxWidth <= 0 || img.Bounds().Dx() <= e.maxWidth {
		return img
	}
	return imaging.Resize(img, e.maxWidth, 0, imaging.Lanczos)
}
