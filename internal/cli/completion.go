package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for scenebox.

To load completions:

Bash:
  $ source <(scenebox completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ scenebox completion bash > /etc/bash_completion.d/scenebox
  # macOS:
  $ scenebox completion bash > $(brew --prefix)/etc/bash_completion.d/scenebox

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ scenebox completion zsh > "${fpath[1]}/_scenebox"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ scenebox completion fish | source

  # To load completions for each session, execute once:
  $ scenebox completion fish > ~/.config/fish/completions/scenebox.fish

PowerShell:
  PS> scenebox completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> scenebox completion powershell > scenebox.ps1
  # and source this file from your PowerShell profile.
`,
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

// completeSceneFiles limits positional completion to scene files.
func completeSceneFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"toml", "hcl"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeFormats completes the comma-separated --format flag.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"png\tPNG image",
		"jpeg\tJPEG image",
		"json\tsolved placements",
		"dot\tGraphviz source of the relation graph",
		"svg\trelation graph drawn by Graphviz",
	}, cobra.ShellCompDirectiveNoFileComp
}
