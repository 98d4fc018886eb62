package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/playback"
	"github.com/matzehuels/tracetower/pkg/trace"
)

type playOpts struct {
	speed    string
	autoplay bool
	start    int
	noCache  bool
}

// playCommand creates the interactive player command.
func (c *CLI) playCommand() *cobra.Command {
	var opts playOpts

	cmd := &cobra.Command{
		Use:   "play <trace.json|->",
		Short: "Step through a trace interactively",
		Long: `Play opens a trace in a terminal player.

Use the arrow keys to step, space to toggle autoplay, + and - to change speed,
e to export the current step as PNG and g to export the whole run as a GIF.
While a GIF export runs, playback is locked; r reloads the trace file, which
cancels a running export.`,
		Example: `  tracetower play trace.json
  tracetower play --autoplay --speed 300ms trace.json
  tracetower run prog.py -o - | tracetower play -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlay(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.speed, "speed", "", "autoplay interval, e.g. 500ms (default from config)")
	cmd.Flags().BoolVar(&opts.autoplay, "autoplay", false, "start playing immediately")
	cmd.Flags().IntVar(&opts.start, "step", 1, "step to open at (1-based)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable export caching")

	return cmd
}

func (c *CLI) runPlay(ctx context.Context, path string, opts playOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.speed != "" {
		cfg.Playback.Speed = opts.speed
	}
	speed, err := cfg.Speed()
	if err != nil {
		return err
	}
	rm, err := cfg.RoleMap()
	if err != nil {
		return err
	}

	tr, err := c.loadTrace(path)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return errors.New(errors.ErrCodeEmptyTrace, "%s has no steps", path)
	}
	if tr.Error != "" {
		printWarning("Tracer reported: %s", tr.Error)
	}

	ca, err := c.newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer ca.Close()

	br := &bridge{}
	exporter, err := c.newExporter(cfg, ca, br.settle, br.progress)
	if err != nil {
		return err
	}

	ctrl := playback.New(playback.Options{Speed: speed, Logger: logger})
	ctrl.Load(tr)
	if err := ctrl.Seek(opts.start - 1); err != nil {
		return err
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var reload func() (*trace.Trace, error)
	if path != "-" {
		reload = func() (*trace.Trace, error) { return trace.Load(path) }
	}
	model := NewPlayerModel(ctx, ctrl, PlayerOptions{
		Exporter: exporter,
		Roles:    rm,
		OutDir:   cfg.Export.Dir,
		Reload:   reload,
	})

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if path == "-" {
		// stdin carried the trace; read keys from the terminal.
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	prog := tea.NewProgram(model, progOpts...)
	br.prog = prog
	ctrl.Observe(br.observe)

	if opts.autoplay {
		if err := ctrl.Play(); err != nil {
			return err
		}
	}

	_, err = prog.Run()
	cancel()
	ctrl.Pause()
	if parent.Err() != nil {
		return parent.Err()
	}
	return err
}
