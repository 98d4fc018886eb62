package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/export"
	"github.com/matzehuels/tracetower/pkg/playback"
)

type exportOpts struct {
	format   string
	step     int
	output   string
	speed    string
	width    float64
	maxWidth int
	capturer string
	noCache  bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <trace.json|->",
		Short: "Export a step as PNG or the whole run as an animated GIF",
		Long: `Export renders a trace to an image file.

A PNG captures a single step (--step). A GIF captures every step in order,
one frame per step, with the playback speed as frame delay. All frames share
the height of the tallest step.`,
		Example: `  tracetower export trace.json --step 4
  tracetower export trace.json -f gif --speed 300ms -o run.gif
  tracetower export trace.json -f gif --max-width 640`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "png", "output format: png or gif")
	cmd.Flags().IntVar(&opts.step, "step", 1, "step to capture for png (1-based)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default tracetower-step-N.png or tracetower.gif)")
	cmd.Flags().StringVar(&opts.speed, "speed", "", "gif frame delay, e.g. 500ms (default from config)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "surface width in pixels (default from config)")
	cmd.Flags().IntVar(&opts.maxWidth, "max-width", 0, "downsize frames wider than this")
	cmd.Flags().StringVar(&opts.capturer, "capturer", "", "capture backend: raster or rsvg")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, path string, opts exportOpts) error {
	logger := loggerFromContext(ctx)

	if err := errors.ValidateExportFormat(opts.format); err != nil {
		return err
	}
	kind := export.Kind(strings.ToLower(opts.format))

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.speed != "" {
		cfg.Playback.Speed = opts.speed
	}
	if opts.width > 0 {
		cfg.Export.Width = opts.width
	}
	if opts.maxWidth > 0 {
		cfg.Export.MaxWidth = opts.maxWidth
	}
	if opts.capturer != "" {
		cfg.Export.Capturer = opts.capturer
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	speed, _ := cfg.Speed()

	tr, err := c.loadTrace(path)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return errors.New(errors.ErrCodeEmptyTrace, "%s has no steps", path)
	}

	ca, err := c.newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer ca.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Exporting %s...", strings.ToUpper(string(kind))))
	exporter, err := c.newExporter(cfg, ca, nil, func(j export.Job) {
		spinner.SetMessage("Exporting GIF %d%%", j.Progress)
	})
	if err != nil {
		return err
	}

	ctrl := playback.New(playback.Options{Speed: speed, Logger: logger})
	ctrl.Load(tr)
	if err := ctrl.Seek(opts.step - 1); err != nil {
		return err
	}
	step := ctrl.State().Index

	tm := startTimer(logger)
	spinner.Start()
	var data []byte
	if kind == export.GIF {
		data, err = exporter.GIF(ctx, ctrl)
	} else {
		data, step, err = exporter.PNG(ctx, ctrl)
	}
	spinner.Stop()
	if err != nil {
		if spinner.Cancelled() {
			return ctx.Err()
		}
		return err
	}

	out := opts.output
	if out == "" {
		out = filepath.Join(cfg.Export.Dir, export.Filename(kind, step))
	}
	if err := errors.ValidateOutputPath(out); err != nil {
		return err
	}
	if out, err = writeExport(filepath.Dir(out), filepath.Base(out), data); err != nil {
		return err
	}

	if kind == export.GIF {
		tm.done("export finished", "kind", kind, "frames", tr.Len())
	} else {
		tm.done("export finished", "kind", kind, "step", step+1)
	}
	printSuccess("Export complete")
	printFile(out)
	return nil
}

// writeExport saves data as name inside dir and returns the path.
func writeExport(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return path, nil
}
