package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/explain"
	"github.com/matzehuels/tracetower/pkg/trace"
)

type serviceOpts struct {
	url     string
	noCache bool
}

func (o *serviceOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.url, "service", "", "service base URL (default from config)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "bypass the response cache")
}

// client builds an explanation client. The returned func releases its cache.
func (c *CLI) client(ctx context.Context, opts serviceOpts) (*explain.Client, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if opts.url != "" {
		cfg.Service.URL = opts.url
	}
	ca, err := c.newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return nil, nil, err
	}
	cl, err := c.newExplainClient(cfg, ca)
	if err != nil {
		ca.Close()
		return nil, nil, err
	}
	return cl, func() { ca.Close() }, nil
}

// readSource reads a program file, or stdin when path is "-".
func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if os.IsNotExist(err) {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "source file %s not found", path)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return string(data), nil
}

// =============================================================================
// run
// =============================================================================

type runOpts struct {
	serviceOpts
	inputs    string
	inputFile string
	output    string
}

// runCommand creates the run command, which traces a program remotely.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run <program.py|->",
		Short: "Trace a program with the tracer service",
		Long: `Run sends a program and its stdin lines to the tracer service and saves the
returned trace. The program is executed by the service, never locally.`,
		Example: `  tracetower run bfs.py -o bfs.json
  tracetower run sum.py --inputs "3\n4" -o - | tracetower play -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.inputs, "inputs", "", `stdin lines for the program, separated by "\n"`)
	cmd.Flags().StringVar(&opts.inputFile, "inputs-file", "", "read stdin lines from a file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "trace.json", `trace file to write ("-" for stdout)`)

	return cmd
}

func (c *CLI) runRun(ctx context.Context, path string, opts runOpts) error {
	code, err := readSource(path)
	if err != nil {
		return err
	}
	inputs := strings.ReplaceAll(opts.inputs, `\n`, "\n")
	if opts.inputFile != "" {
		data, err := os.ReadFile(opts.inputFile)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "read inputs %s", opts.inputFile)
		}
		inputs = strings.TrimRight(string(data), "\n")
	}

	cl, done, err := c.client(ctx, opts.serviceOpts)
	if err != nil {
		return err
	}
	defer done()

	spinner := newSpinner(ctx, "Tracing "+path+"...")
	spinner.Start()
	tr, err := cl.Visualize(ctx, code, inputs)
	spinner.Stop()
	if errors.Is(err, errors.ErrCodeMalformedTrace) {
		// stdout may carry the trace itself.
		c.Logger.Warn("tracer payload degraded", "reason", errors.UserMessage(err))
	} else if err != nil {
		return err
	}

	data, err := json.Marshal(tr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode trace")
	}
	if opts.output == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if _, err := writeExport(filepath.Dir(opts.output), filepath.Base(opts.output), data); err != nil {
		return err
	}

	if tr.Error != "" {
		printWarning("Tracer reported: %s", tr.Error)
	}
	printSuccess("Traced %d steps", tr.Len())
	printFile(opts.output)
	printNextStep("Play it", "tracetower play "+opts.output)
	return nil
}

// =============================================================================
// explain
// =============================================================================

type explainOpts struct {
	serviceOpts
	line int
}

// explainCommand creates the explain command.
func (c *CLI) explainCommand() *cobra.Command {
	var opts explainOpts

	cmd := &cobra.Command{
		Use:   "explain <program.py|-> --line N",
		Short: "Explain one line of a program",
		Long: `Explain asks the explanation service what a single source line does. Blank
lines are answered without contacting the service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplain(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().IntVarP(&opts.line, "line", "n", 1, "line number (1-based)")

	return cmd
}

func (c *CLI) runExplain(ctx context.Context, path string, opts explainOpts) error {
	code, err := readSource(path)
	if err != nil {
		return err
	}
	cl, done, err := c.client(ctx, opts.serviceOpts)
	if err != nil {
		return err
	}
	defer done()

	spinner := newSpinner(ctx, fmt.Sprintf("Explaining line %d...", opts.line))
	spinner.Start()
	text, err := cl.ExplainLine(ctx, code, opts.line)
	if err != nil {
		spinner.StopWithError("%s", errors.UserMessage(err))
		return err
	}
	spinner.Stop()

	fmt.Println(StyleTitle.Render(fmt.Sprintf("Line %d", opts.line)))
	printBlock(text)
	return nil
}

// =============================================================================
// summarize
// =============================================================================

type summarizeOpts struct {
	serviceOpts
	tracePath string
}

// summarizeCommand creates the summarize command.
func (c *CLI) summarizeCommand() *cobra.Command {
	var opts summarizeOpts

	cmd := &cobra.Command{
		Use:   "summarize <program.py> --trace trace.json",
		Short: "Summarize a traced run",
		Long: `Summarize sends a program and its recorded trace to the explanation service
and prints the returned summary. Without a trace there is nothing to
summarize and the service is not contacted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSummarize(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.tracePath, "trace", "t", "", "trace file of the run")

	return cmd
}

func (c *CLI) runSummarize(ctx context.Context, path string, opts summarizeOpts) error {
	code, err := readSource(path)
	if err != nil {
		return err
	}
	tr := &trace.Trace{}
	if opts.tracePath != "" {
		if tr, err = c.loadTrace(opts.tracePath); err != nil {
			return err
		}
	}
	cl, done, err := c.client(ctx, opts.serviceOpts)
	if err != nil {
		return err
	}
	defer done()

	spinner := newSpinner(ctx, "Summarizing...")
	spinner.Start()
	text, err := cl.Summarize(ctx, code, tr)
	if err != nil {
		spinner.StopWithError("%s", errors.UserMessage(err))
		return err
	}
	spinner.Stop()

	fmt.Println(StyleTitle.Render("Summary"))
	printBlock(text)
	return nil
}
