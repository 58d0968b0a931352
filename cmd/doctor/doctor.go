// Package doctor provides the "doctrack doctor" command for checking the local setup.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/config"
	"github.com/leftp/doctrack/internal/output"
	"github.com/leftp/doctrack/internal/watch"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, org policy and audit log",
		Long:  "Run diagnostic checks to verify doctrack is properly configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			checks := runChecks(cfgFile, config.PolicyPath())

			errCount := 0
			for _, c := range checks {
				if c.Status == "error" {
					errCount++
				}
			}

			w := cli.Writer(cmd)
			if w.JSON() {
				if err := output.PrintJSON(cmd.OutOrStdout(), "doctor", checks); err != nil {
					return err
				}
			} else {
				printChecks(w, checks)
			}

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func printChecks(w *output.Writer, checks []Check) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	w.WriteLn("doctrack doctor")
	w.WriteLn("===============")
	w.WriteLn("")

	okCount, warnCount, errCount := 0, 0, 0
	for _, c := range checks {
		var icon string
		switch c.Status {
		case "ok":
			icon = green("✓")
			okCount++
		case "warning":
			icon = yellow("!")
			warnCount++
		case "error":
			icon = red("✗")
			errCount++
		}
		w.Printf("  %s %s: %s\n", icon, c.Name, c.Message)
	}

	w.WriteLn("")
	w.Printf("  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)
}

func runChecks(cfgFile, policyPath string) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	// Config file
	path := cfgFile
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(cfgFile)
	switch {
	case err != nil:
		checks = append(checks, Check{Name: "Config File", Status: "error", Message: err.Error()})
	case fileExists(path):
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: path})
	default:
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found, using defaults (run 'doctrack config init')",
		})
	}

	if cfg != nil {
		checks = append(checks, settingsCheck())
		checks = append(checks, typeCheck(cfg))
	}

	// Org policy
	policy, err := config.LoadPolicyFrom(policyPath)
	switch {
	case err != nil:
		checks = append(checks, Check{Name: "Org Policy", Status: "error", Message: err.Error()})
	case policy == nil:
		checks = append(checks, Check{Name: "Org Policy", Status: "ok", Message: "none (" + policyPath + ")"})
	default:
		if issues := config.ValidatePolicy(policy); len(issues) > 0 {
			checks = append(checks, Check{Name: "Org Policy", Status: "error", Message: strings.Join(issues, "; ")})
		} else {
			checks = append(checks, Check{Name: "Org Policy", Status: "ok", Message: policy.OrgName})
		}
	}

	if cfg != nil {
		logger := cli.AuditLogger(cfg, policy)
		checks = append(checks, auditCheck(logger.FilePath, logger.Enabled))
	}

	// Watcher
	if pid, err := watch.ReadPIDFile(watch.DefaultStateDir()); err == nil {
		checks = append(checks, Check{Name: "Watcher", Status: "ok", Message: fmt.Sprintf("PID file present (PID %d)", pid)})
	} else {
		checks = append(checks, Check{Name: "Watcher", Status: "ok", Message: "not running"})
	}

	return checks
}

func settingsCheck() Check {
	var errs, warns []string
	for _, issue := range config.Validate() {
		switch issue.Severity {
		case "error":
			errs = append(errs, issue.Message)
		case "warning":
			warns = append(warns, issue.Message)
		}
	}
	switch {
	case len(errs) > 0:
		return Check{Name: "Settings", Status: "error", Message: strings.Join(errs, "; ")}
	case len(warns) > 0:
		return Check{Name: "Settings", Status: "warning", Message: strings.Join(warns, "; ")}
	default:
		return Check{Name: "Settings", Status: "ok", Message: "valid"}
	}
}

func typeCheck(cfg *config.Config) Check {
	if cfg.Type == "" {
		return Check{Name: "Default Type", Status: "warning", Message: "not set, --type is required on every command"}
	}
	return Check{Name: "Default Type", Status: "ok", Message: cfg.Type}
}

func auditCheck(path string, enabled bool) Check {
	if !enabled {
		return Check{Name: "Audit Log", Status: "ok", Message: "disabled"}
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Check{Name: "Audit Log", Status: "warning", Message: fmt.Sprintf("%s does not exist yet", dir)}
	}
	f, err := os.CreateTemp(dir, ".doctrack-doctor-*")
	if err != nil {
		return Check{Name: "Audit Log", Status: "error", Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	f.Close()
	os.Remove(f.Name())
	return Check{Name: "Audit Log", Status: "ok", Message: path}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
