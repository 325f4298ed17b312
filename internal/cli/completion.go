package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowform/pkg/pipeline"
)

// diagramExts are offered when completing a diagram argument.
var diagramExts = []string{"mmd", "mermaid", "md"}

// completionCommand creates the completion command. Scripts go to stdout.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for flowform.

Besides subcommands and flags, the scripts complete diagram files (.mmd,
.mermaid, .md) for compile and render, also form files (.json) for simulate
and fill, and the comma-separated values of render --format.

  $ source <(flowform completion bash)
  $ flowform completion zsh > "${fpath[1]}/_flowform"
  $ flowform completion fish > ~/.config/fish/completions/flowform.fish
  PS> flowform completion powershell | Out-String | Invoke-Expression

Start a new shell after installing a script.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeDiagram completes the single diagram argument of compile and render.
func completeDiagram(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return diagramExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeForm completes an argument that may be a diagram or a compiled form.
func completeForm(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return append(slices.Clone(diagramExts), "json"), cobra.ShellCompDirectiveFilterFileExt
}

// completeFormats completes the last element of a comma-separated format
// list, skipping formats already given.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, partial := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, partial = toComplete[:i+1], toComplete[i+1:]
	}
	given := strings.Split(prefix, ",")

	var out []string
	for _, f := range pipeline.SupportedFormats {
		if strings.HasPrefix(f, partial) && !slices.Contains(given, f) {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
