package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a completion script for your shell so titan subcommands
and flags tab-complete.

Load it for the current session:

  bash:       source <(titan completion bash)
  zsh:        source <(titan completion zsh)
  fish:       titan completion fish | source
  powershell: titan completion powershell | Out-String | Invoke-Expression

Or install it permanently, e.g. for bash:

  titan completion bash > /etc/bash_completion.d/titan

and for zsh, write it to a directory on your $fpath as _titan and re-run
compinit.
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
