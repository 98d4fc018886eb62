package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/internal/server"
	"github.com/matzehuels/tracetower/pkg/explain"
)

type serveOpts struct {
	addr      string
	noExplain bool
	noCache   bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendering and export over HTTP",
		Long: `Serve starts an HTTP server that accepts tracer payloads and answers with
variable roles, PNG and GIF exports, and Graphviz drawings of graph
variables as SVG or PNG. Explanation requests are forwarded to the configured service.

Endpoints:
  GET  /healthz
  POST /v1/traces/inspect
  POST /v1/export/png?step=N
  POST /v1/export/gif?speed=MS
  POST /v1/graph/svg?step=N&var=NAME
  POST /v1/graph/png?step=N&var=NAME&scale=X
  POST /v1/explain
  POST /v1/summarize`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.noExplain, "no-explain", false, "disable the explanation endpoints")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	rm, err := cfg.RoleMap()
	if err != nil {
		return err
	}

	ca, err := c.newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer ca.Close()

	exporter, err := c.newExporter(cfg, ca, nil, nil)
	if err != nil {
		return err
	}
	var cl *explain.Client
	if !opts.noExplain {
		if cl, err = c.newExplainClient(cfg, ca); err != nil {
			return err
		}
	}

	printInfo("Listening on %s", cfg.Server.Addr)
	srv := server.New(server.Options{
		Exporter: exporter,
		Explain:  cl,
		Roles:    rm,
		Logger:   c.Logger,
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
