package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

const completionHelp = `Generate shell completion scripts for APP.

Bash:
  $ source <(APP completion bash)
  # every session (Linux):
  $ APP completion bash > /etc/bash_completion.d/APP

Zsh:
  $ APP completion zsh > "${fpath[1]}/_APP"

Fish:
  $ APP completion fish > ~/.config/fish/completions/APP.fish

PowerShell:
  PS> APP completion powershell | Out-String | Invoke-Expression

Stored dialogue IDs complete for "store pull" and "store rm" using the
configured store.
`

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		Long:                  strings.ReplaceAll(completionHelp, "APP", appName),
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeStoredIDs completes the first argument with stored dialogue IDs.
func (c *CLI) completeStoredIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	c.config = cfg
	store, err := c.openStore(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer store.Close()

	items, err := store.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, s := range items {
		if strings.HasPrefix(s.ID, toComplete) {
			out = append(out, s.ID+"\t"+s.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
