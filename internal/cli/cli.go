// Package cli implements the tracetower command-line interface.
//
// # Commands
//
// The main commands are:
//   - play: Step through a trace interactively in the terminal
//   - export: Write a PNG of one step or an animated GIF of all steps
//   - inspect: Show the role assigned to every traced variable
//   - run: Trace a program through the tracer service
//   - explain, summarize: Ask the explanation service about code
//   - serve: Expose rendering over HTTP
//   - cache, config: Manage the artifact cache and the settings file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --quiet
// (-q) for warnings only. Logs go to stderr. Loggers are passed through
// context.Context so long-running commands can report progress.
package cli

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/buildinfo"
	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/capture"
	"github.com/matzehuels/tracetower/pkg/config"
	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/explain"
	"github.com/matzehuels/tracetower/pkg/export"
	"github.com/matzehuels/tracetower/pkg/scene"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// appName is the application name used for directories and display.
const appName = "tracetower"

// Log levels for New.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	quiet      bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. Debug level also reports callers.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Tracetower animates program traces as data-structure diagrams",
		Long:         `Tracetower replays a recorded program trace step by step, drawing stacks, queues, graphs, trees, linked lists and dictionaries as they change, and exports the animation as PNG or GIF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.SetLogLevel(levelFor(c.verbose, c.quiet))
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tracetower/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "log warnings and errors only")

	root.AddCommand(c.playCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.explainCommand())
	root.AddCommand(c.summarizeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath)
	return cfg, nil
}

// newCache opens the configured cache backend. A file cache that cannot be
// created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		return cache.WithHooks(rc), nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable", "dir", dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.WithHooks(fc), nil
}

func newKeyer(cfg *config.Config) cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
}

// newCapturer selects the capture backend named in the config.
func newCapturer(cfg *config.Config) (capture.Capturer, error) {
	switch cfg.Export.Capturer {
	case "rsvg":
		if !capture.Available() {
			return nil, errors.New(errors.ErrCodeUnsupported, "%s not found in PATH", capture.RSVGBinary)
		}
		return capture.NewRSVG(capture.WithScale(cfg.Export.Scale)), nil
	default:
		return capture.NewRaster(capture.WithScale(cfg.Export.Scale)), nil
	}
}

// newExporter builds an exporter from cfg. Settle and progress callbacks
// are supplied by the caller.
func (c *CLI) newExporter(cfg *config.Config, ca cache.Cache, settle export.Settle, progress func(export.Job)) (*export.Exporter, error) {
	capturer, err := newCapturer(cfg)
	if err != nil {
		return nil, err
	}
	rm, err := cfg.RoleMap()
	if err != nil {
		return nil, err
	}
	return export.New(export.Options{
		Layout:   scene.Options{Width: cfg.Export.Width},
		Capturer: capturer,
		Roles:    rm,
		MaxWidth: cfg.Export.MaxWidth,
		Settle:   settle,
		Progress: progress,
		Cache:    ca,
		Keyer:    newKeyer(cfg),
		Logger:   c.Logger,
	}), nil
}

func (c *CLI) newExplainClient(cfg *config.Config, ca cache.Cache) (*explain.Client, error) {
	timeout, err := cfg.ServiceTimeout()
	if err != nil {
		return nil, err
	}
	return explain.New(cfg.Service.URL, explain.Options{
		HTTP:   &http.Client{Timeout: timeout},
		Cache:  ca,
		Keyer:  newKeyer(cfg),
		Logger: c.Logger,
	})
}

// =============================================================================
// Input
// =============================================================================

// loadTrace reads a tracer payload from path, or stdin when path is "-".
// A degraded payload is accepted with a warning.
func (c *CLI) loadTrace(path string) (*trace.Trace, error) {
	var (
		tr  *trace.Trace
		err error
	)
	if path == "-" {
		tr, err = trace.Read(os.Stdin)
	} else {
		tr, err = trace.Load(path)
	}
	if errors.Is(err, errors.ErrCodeMalformedTrace) {
		printWarning("%s", errors.UserMessage(err))
		return tr, nil
	}
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("trace loaded", "path", path, "steps", tr.Len())
	return tr, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/tracetower/).
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return config.CacheDir()
}
