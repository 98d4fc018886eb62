package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/roles"
	"github.com/matzehuels/tracetower/pkg/structure"
	"github.com/matzehuels/tracetower/pkg/trace"
)

type inspectOpts struct {
	step   int
	asJSON bool
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <trace.json|->",
		Short: "Show the role of every traced variable",
		Long: `Inspect prints how each variable of a trace will be drawn.

Roles come from the trace's own variable_map or the [roles] table of the
config file when present; otherwise they are inferred once per run from each
variable's type tag and name. With --step the rendered step is printed as
well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.step, "step", 0, "also print this step (1-based)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print roles as JSON")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, path string, opts inspectOpts) error {
	cfg, err := c.loadConfig()
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
	a := roles.Classify(tr, rm)

	if opts.asJSON {
		out := make(map[string]string)
		for _, n := range a.Names() {
			out[n] = a.Role(n).String()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(StyleTitle.Render("Trace " + path))
	printStats(tr.Len(), len(a.Names()), a.External())
	if tr.Error != "" {
		printWarning("Tracer reported: %s", tr.Error)
	}
	printNewline()
	fmt.Println(rolesTable(tr, a))

	if opts.step > 0 {
		snap := tr.At(opts.step - 1)
		if snap == nil {
			printWarning("Step %d out of range [1, %d]", opts.step, tr.Len())
			return nil
		}
		printNewline()
		fmt.Println(renderView(structure.BuildView(snap, a), tr.Len()))
	}
	if tr.FinalOutput != "" {
		printNewline()
		printKeyValue("Output", "")
		printBlock(tr.FinalOutput)
	}
	return nil
}

// rolesTable lists variables with their role and the step they first appear.
func rolesTable(tr *trace.Trace, a roles.Assignment) string {
	first := map[string]int{}
	for i := range tr.Snapshots {
		for _, f := range tr.Snapshots[i].Variables {
			if _, ok := first[f.Name]; !ok {
				first[f.Name] = i + 1
			}
		}
	}

	var rows [][]string
	for _, n := range a.Names() {
		step := "—"
		if s, ok := first[n]; ok {
			step = fmt.Sprint(s)
		}
		helper := ""
		if structure.Hidden[n] {
			helper = "helper"
		}
		rows = append(rows, []string{n, a.Role(n).String(), step, helper})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Variable", "Role", "First step", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(rows) {
				return base
			}
			if rows[row][1] == roles.Unclassified.String() {
				return base.Foreground(colorDim)
			}
			if col == 1 {
				return base.Foreground(colorCyan)
			}
			return base.Foreground(colorWhite)
		}).
		Render()
}
