// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for doctrack.

Install instructions:
  Bash:       doctrack completion bash > /etc/bash_completion.d/doctrack
              echo 'source <(doctrack completion bash)' >> ~/.bashrc
  Zsh:        doctrack completion zsh > ~/.zsh/completions/_doctrack
  Fish:       doctrack completion fish > ~/.config/fish/completions/doctrack.fish
  PowerShell: doctrack completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.OutOrStdout(), rootCmd, args[0])
		},
	}
	return cmd
}

func generate(out io.Writer, rootCmd *cobra.Command, shell string) error {
	switch shell {
	case "bash":
		fmt.Fprintln(out, "# doctrack bash completion")
		fmt.Fprintln(out, "# Install: doctrack completion bash > /etc/bash_completion.d/doctrack")
		fmt.Fprintln(out)
		return rootCmd.GenBashCompletion(out)
	case "zsh":
		fmt.Fprintln(out, "# doctrack zsh completion")
		fmt.Fprintln(out, "# Install: doctrack completion zsh > ~/.zsh/completions/_doctrack")
		fmt.Fprintln(out)
		return rootCmd.GenZshCompletion(out)
	case "fish":
		fmt.Fprintln(out, "# doctrack fish completion")
		fmt.Fprintln(out, "# Install: doctrack completion fish > ~/.config/fish/completions/doctrack.fish")
		fmt.Fprintln(out)
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		fmt.Fprintln(out, "# doctrack PowerShell completion")
		fmt.Fprintln(out, "# Install: doctrack completion powershell >> $PROFILE")
		fmt.Fprintln(out)
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", shell)
	}
}
