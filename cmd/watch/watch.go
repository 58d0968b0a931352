// Package watch provides the "doctrack watch" CLI commands for directory monitoring.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/config"
	"github.com/leftp/doctrack/internal/job"
	"github.com/leftp/doctrack/internal/ooxml"
	"github.com/leftp/doctrack/internal/output"
	"github.com/leftp/doctrack/internal/track"
	w "github.com/leftp/doctrack/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor directories and write tracked copies of new documents",
		Long: `Watch directories for new or modified Office documents and write a
tracked copy of each one, using either a single rule built from flags or a
YAML rules file.

Example:
  doctrack watch start ./outgoing --url https://t.example.com/p.png --out-dir ./tracked
  doctrack watch start ./outgoing --rules rules.yaml
  doctrack watch status
  doctrack watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func newStartCmd() *cobra.Command {
	var (
		types     []string
		pattern   string
		url       string
		template  bool
		metaFile  string
		rulesFile string
		outDir    string
		suffix    string
		recursive bool
		debounce  int
		verify    bool
	)

	cmd := &cobra.Command{
		Use:   "start <directory> [directory...]",
		Short: "Start watching directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}

			var rules []w.Rule
			if rulesFile != "" {
				rules, err = w.LoadRules(rulesFile)
				if err != nil {
					return fmt.Errorf("%w: %v", track.ErrConfiguration, err)
				}
			} else {
				kv, err := cli.LoadMetadata(metaFile)
				if err != nil {
					return err
				}
				rule := w.Rule{
					ID:       "default",
					Pattern:  pattern,
					Types:    types,
					URL:      url,
					Template: template,
					Metadata: kv,
					Enabled:  true,
				}
				if err := rule.Validate(); err != nil {
					return fmt.Errorf("%w: %v", track.ErrConfiguration, err)
				}
				rules = []w.Rule{rule}
			}

			if !cmd.Flags().Changed("suffix") {
				suffix = env.Config.Output.Suffix
			}
			if !cmd.Flags().Changed("out-dir") {
				outDir = config.ExpandHome(env.Config.Output.Dir)
			}
			if !cmd.Flags().Changed("recursive") {
				recursive = env.Config.Watch.Recursive
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = env.Config.Watch.DebounceMs
			}
			if suffix == "" && outDir == "" {
				return fmt.Errorf("%w: an empty suffix without --out-dir would re-process every output", track.ErrConfiguration)
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return fmt.Errorf("could not create output directory %s: %w", outDir, err)
				}
			}

			cfg := w.WatchConfig{
				Directories: args,
				Rules:       rules,
				Recursive:   recursive,
				Debounce:    debounce,
				OutDir:      outDir,
				Suffix:      suffix,
			}

			watcher, err := w.New(cfg)
			if err != nil {
				return err
			}

			out := cli.Writer(cmd)
			runner := env.Runner("watch", cli.Args(cmd, args))
			watcher.Handler = func(ctx context.Context, path string, rule w.Rule) error {
				dt, err := ooxml.LookupType(filepath.Ext(path))
				if err != nil {
					return fmt.Errorf("%w: %v", track.ErrUnsupportedKind, err)
				}
				res, err := runner.Run(ctx, job.Job{
					Input:  path,
					Output: job.OutputPath(path, outDir, suffix),
					Type:   dt,
					Edits:  track.Edits{Metadata: rule.Metadata, URL: rule.URL, Template: rule.Template},
					Verify: verify || env.Config.Verify,
				})
				if err != nil {
					return err
				}
				if !out.JSON() {
					out.Printf("[%s] %s → %s\n", rule.ID, path, res.Output)
				}
				return nil
			}

			stateDir := w.DefaultStateDir()
			if err := w.WritePIDFile(stateDir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not write PID file: %v\n", err)
			}
			defer w.RemovePIDFile(stateDir)

			// Save config for status command
			if err := w.SaveConfig(stateDir, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save watch config: %v\n", err)
			}

			if !out.JSON() {
				out.Printf("Watching %d directory(ies) with %d rule(s)\n", len(args), len(rules))
				out.WriteLn("Press Ctrl+C to stop")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := watcher.Start(ctx); err != nil {
				return err
			}
			if out.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "watch start", watcher.GetEvents())
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Document types to process (default: all supported)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob on the file name, e.g. 'contract_*'")
	cmd.Flags().StringVar(&url, "url", "", "External target URL")
	cmd.Flags().BoolVar(&template, "template", false, "Insert the URL as the document template")
	cmd.Flags().StringVar(&metaFile, "meta", "", "JSON or YAML file of core properties to set")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rules file (replaces the rule flags)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (default: next to each input)")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Suffix added to output names (default: config output.suffix)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", config.DefaultDebounceMs, "Debounce interval in milliseconds")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-open every output and check it")

	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := w.DefaultStateDir()
			pid, err := w.ReadPIDFile(stateDir)
			if err != nil {
				return fmt.Errorf("no watcher running (PID file not found)")
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				w.RemovePIDFile(stateDir)
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}

			w.RemovePIDFile(stateDir)

			out := cli.Writer(cmd)
			if out.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "watch stop", map[string]any{
					"stopped": true,
					"pid":     pid,
				})
			}

			out.Printf("Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := w.DefaultStateDir()

			pid, err := w.ReadPIDFile(stateDir)
			running := err == nil

			// Signal 0 probes whether the process still exists.
			if running {
				process, err := os.FindProcess(pid)
				if err != nil || process.Signal(syscall.Signal(0)) != nil {
					running = false
					w.RemovePIDFile(stateDir)
				}
			}

			out := cli.Writer(cmd)
			if !running {
				if out.JSON() {
					return output.PrintJSON(cmd.OutOrStdout(), "watch status", map[string]any{"running": false})
				}
				out.WriteLn("Watcher is not running")
				return nil
			}

			cfg, _ := w.LoadConfig(stateDir)

			status := map[string]any{
				"running": true,
				"pid":     pid,
			}
			if cfg != nil {
				status["directories"] = cfg.Directories
				status["rules"] = len(cfg.Rules)
				status["recursive"] = cfg.Recursive
			}

			if out.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "watch status", status)
			}

			out.Printf("Watcher is running (PID %d)\n", pid)
			if cfg != nil {
				out.Printf("  Directories: %s\n", strings.Join(cfg.Directories, ", "))
				out.Printf("  Rules:       %d\n", len(cfg.Rules))
				out.Printf("  Recursive:   %v\n", cfg.Recursive)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the last watcher configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := w.LoadConfig(w.DefaultStateDir())
			if err != nil {
				return fmt.Errorf("no watcher configuration found (run 'doctrack watch start' first)")
			}

			out := cli.Writer(cmd)
			if out.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "watch config", cfg)
			}

			out.Printf("Directories: %s\n", strings.Join(cfg.Directories, ", "))
			out.Printf("Recursive:   %v\n", cfg.Recursive)
			out.Printf("Debounce:    %dms\n", cfg.Debounce)
			out.Printf("Output:      dir=%q suffix=%q\n", cfg.OutDir, cfg.Suffix)
			out.Printf("Rules:       %d\n", len(cfg.Rules))
			for _, r := range cfg.Rules {
				out.Printf("  [%s] types=%v pattern=%q url=%s template=%v enabled=%v\n",
					r.ID, r.Types, r.Pattern, r.URL, r.Template, r.Enabled)
			}
			return nil
		},
	}
}
