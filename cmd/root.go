// Package cmd contains all CLI commands for the doctrack binary.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdaudit "github.com/leftp/doctrack/cmd/audit"
	"github.com/leftp/doctrack/cmd/batch"
	"github.com/leftp/doctrack/cmd/completion"
	cmdconfig "github.com/leftp/doctrack/cmd/config"
	"github.com/leftp/doctrack/cmd/doctor"
	"github.com/leftp/doctrack/cmd/inject"
	"github.com/leftp/doctrack/cmd/inspect"
	"github.com/leftp/doctrack/cmd/policy"
	"github.com/leftp/doctrack/cmd/types"
	"github.com/leftp/doctrack/cmd/version"
	cmdwatch "github.com/leftp/doctrack/cmd/watch"
	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/logger"
	"github.com/leftp/doctrack/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	configFile string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doctrack",
		Short: "Inject tracking and template links into Office documents",
		Long: `doctrack edits the relationship graph of .docx and .xlsx packages.

It adds external tracking relationships, attaches or re-points templates,
sets core metadata (title, creator, dates...) and lists the external links a
document already carries. The input file is never modified.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			logger.SetVerbose(verbose)
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.doctrack/config.yaml)")

	// Register subcommands
	rootCmd.AddCommand(inject.NewCommand())
	rootCmd.AddCommand(inspect.NewCommand())
	rootCmd.AddCommand(types.NewCommand())
	rootCmd.AddCommand(batch.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(policy.NewCommand())
	rootCmd.AddCommand(cmdaudit.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := run(rootCmd); err != nil {
		os.Exit(output.ExitError)
	}
}

// run executes root and reports a failure once: as a JSON envelope on stdout
// when --json is set, and always as a single "Error:" line on stderr.
func run(root *cobra.Command) error {
	cmd, err := root.ExecuteC()
	if err == nil {
		return nil
	}
	if jsonOutput && cmd != nil {
		_ = output.PrintJSONError(root.OutOrStdout(), cmd.Name(), err, cli.ErrorKind(err))
	}
	fmt.Fprintf(root.ErrOrStderr(), "Error: %s\n", errorLine(err))
	return err
}

// errorLine flattens err to one line; hints after a newline are kept only
// in the verbose log.
func errorLine(err error) string {
	first, rest, found := strings.Cut(err.Error(), "\n")
	if found {
		logger.Debug("%s", rest)
	}
	return first
}
