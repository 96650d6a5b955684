package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand prints a shell completion script.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for linkgrid.

Besides command names, the scripts complete flag values: --view (desktop,
mobile), --type and --size for add, and --format for pull.

  bash        source <(linkgrid completion bash)
  zsh         linkgrid completion zsh > "${fpath[1]}/_linkgrid"
  fish        linkgrid completion fish > ~/.config/fish/completions/linkgrid.fish
  powershell  linkgrid completion powershell | Out-String | Invoke-Expression

For zsh, compinit must be enabled; start a new shell after installing.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}
