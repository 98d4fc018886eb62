package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for tracetower.

Besides subcommands and flags, the scripts complete trace files (*.json)
for play, export and inspect, program files (*.py) for run, explain and
summarize, and the values of --format and --capturer.

  bash:        source <(tracetower completion bash)
  zsh:         tracetower completion zsh > "${fpath[1]}/_tracetower"
  fish:        tracetower completion fish > ~/.config/fish/completions/tracetower.fish
  powershell:  tracetower completion powershell | Out-String | Invoke-Expression

Start a new shell after installing a script.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions attaches file and flag-value completion to the
// subcommands of root.
func registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		switch cmd.Name() {
		case "play", "export", "inspect":
			cmd.ValidArgsFunction = filesWithExt("json")
		case "run", "explain", "summarize":
			cmd.ValidArgsFunction = filesWithExt("py")
		}
		switch cmd.Name() {
		case "export":
			cmd.MarkFlagFilename("output", "png", "gif")
			cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"png", "gif"}, cobra.ShellCompDirectiveNoFileComp))
			cmd.RegisterFlagCompletionFunc("capturer", cobra.FixedCompletions([]string{"raster", "rsvg"}, cobra.ShellCompDirectiveNoFileComp))
		case "summarize":
			cmd.MarkFlagFilename("trace", "json")
		case "run":
			cmd.MarkFlagFilename("output", "json")
		}
	}
	root.MarkPersistentFlagFilename("config", "toml")
}

// filesWithExt completes a single positional file argument.
func filesWithExt(exts ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}
