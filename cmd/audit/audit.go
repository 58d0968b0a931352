// Package audit provides the "doctrack audit" CLI commands for viewing audit logs.
package audit

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	auditpkg "github.com/leftp/doctrack/internal/audit"
	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/output"
)

// NewCommand creates the "audit" command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and manage the audit log",
		Long: `Each inject, batch and watch job appends one JSON line to the audit log
when auditing is enabled (config audit.enabled or the org policy).`,
	}

	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

func auditLogPath(cmd *cobra.Command) (string, error) {
	env, err := cli.Setup(cmd)
	if err != nil {
		return "", err
	}
	return env.Audit.FilePath, nil
}

func newLogCmd() *cobra.Command {
	var (
		last    int
		command string
		since   string
		input   string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := auditLogPath(cmd)
			if err != nil {
				return err
			}
			entries, err := auditpkg.ReadEntries(path)
			if err != nil {
				return err
			}

			var sinceTime, untilTime time.Time
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date: %w (use YYYY-MM-DD)", err)
				}
				sinceTime = t
			}

			filtered := auditpkg.FilterEntries(entries, sinceTime, untilTime, command, input)

			if last > 0 && len(filtered) > last {
				filtered = filtered[len(filtered)-last:]
			}

			w := cli.Writer(cmd)
			if w.JSON() {
				if filtered == nil {
					filtered = []auditpkg.Entry{}
				}
				return output.PrintJSON(cmd.OutOrStdout(), "audit log", filtered)
			}

			if len(filtered) == 0 {
				w.WriteLn("No audit log entries found.")
				return nil
			}

			w.Printf("Audit Log: %d Entries\n", len(filtered))
			w.Printf("File: %s\n\n", path)

			rows := make([][]string, 0, len(filtered))
			for _, e := range filtered {
				dur := fmt.Sprintf("%dms", e.DurationMs)
				if e.DurationMs >= 1000 {
					dur = fmt.Sprintf("%.1fs", float64(e.DurationMs)/1000)
				}
				target := e.RelTarget
				if target == "" {
					target = "-"
				}
				rows = append(rows, []string{
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Command,
					e.InputFile,
					target,
					dur,
					fmt.Sprint(e.ExitCode),
				})
			}
			return w.Table([]string{"timestamp", "command", "input", "target", "duration", "exit"}, rows)
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "Show last N entries")
	cmd.Flags().StringVar(&command, "command", "", "Filter by command name")
	cmd.Flags().StringVar(&since, "since", "", "Filter entries since date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&input, "input", "", "Filter by input file")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := auditLogPath(cmd)
			if err != nil {
				return err
			}
			if err := auditpkg.Clear(path); err != nil {
				return err
			}
			w := cli.Writer(cmd)
			if w.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "audit clear", map[string]string{"cleared": path})
			}
			w.Printf("Audit log cleared: %s\n", path)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show audit log path and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			path := env.Audit.FilePath
			size := auditpkg.LogSize(path)
			entries, _ := auditpkg.ReadEntries(path)

			w := cli.Writer(cmd)
			if w.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "audit status", map[string]any{
					"enabled": env.Audit.Enabled,
					"path":    path,
					"size":    size,
					"entries": len(entries),
				})
			}

			state := "disabled"
			if env.Audit.Enabled {
				state = "enabled"
			}
			w.Printf("Audit log: %s (%s)\n", path, state)
			if size == 0 {
				w.WriteLn("Size:      empty (no entries)")
			} else {
				w.Printf("Size:      %s\n", formatSize(size))
			}
			w.Printf("Entries:   %d\n", len(entries))
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	var (
		since   string
		command string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize runs, failures and target hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := auditLogPath(cmd)
			if err != nil {
				return err
			}
			entries, err := auditpkg.ReadEntries(path)
			if err != nil {
				return err
			}

			filter := auditpkg.StatsFilter{Command: command}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date: %w (use YYYY-MM-DD)", err)
				}
				filter.Since = t
			}
			s := auditpkg.Summarize(entries, filter)

			w := cli.Writer(cmd)
			if w.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "audit stats", s)
			}

			w.Printf("Runs:      %d\n", s.Runs)
			w.Printf("Failures:  %d (%.1f%%)\n", s.Failures, s.FailureRate)
			w.Printf("Users:     %d\n", s.Users)
			for _, section := range []struct {
				title string
				stats []auditpkg.CountStat
			}{
				{"Commands", s.TopCommands},
				{"Target hosts", s.TopHosts},
			} {
				if len(section.stats) == 0 {
					continue
				}
				w.Printf("\n%s\n", section.title)
				rows := make([][]string, len(section.stats))
				for i, c := range section.stats {
					rows[i] = []string{c.Name, fmt.Sprint(c.Count), fmt.Sprintf("%.1f%%", c.Pct)}
				}
				if err := w.Table([]string{"name", "runs", "share"}, rows); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Only count runs since date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&command, "command", "", "Only count runs of this command")
	return cmd
}

func formatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
