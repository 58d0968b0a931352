// Package cli holds the setup shared by doctrack's commands: configuration,
// org policy, audit logger and error classification.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leftp/doctrack/internal/audit"
	"github.com/leftp/doctrack/internal/config"
	"github.com/leftp/doctrack/internal/job"
	"github.com/leftp/doctrack/internal/logger"
	"github.com/leftp/doctrack/internal/metadata"
	"github.com/leftp/doctrack/internal/ooxml"
	"github.com/leftp/doctrack/internal/output"
	"github.com/leftp/doctrack/internal/track"
)

// Env is everything a command needs beyond its own flags.
type Env struct {
	Config *config.Config
	Policy *config.Policy
	Audit  *audit.Logger
}

// Setup loads the configuration named by --config (or the default one) and the
// org policy.
func Setup(cmd *cobra.Command) (*Env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", track.ErrConfiguration, err)
	}
	policy, err := config.LoadPolicy()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", track.ErrConfiguration, err)
	}
	if policy != nil {
		logger.Debug("org policy loaded from %s (%s)", config.PolicyPath(), policy.OrgName)
	}

	return &Env{
		Config: cfg,
		Policy: policy,
		Audit:  AuditLogger(cfg, policy),
	}, nil
}

// AuditLogger builds the audit logger. The org policy can switch auditing on
// and redirect it; it cannot be switched off by the user config.
func AuditLogger(cfg *config.Config, policy *config.Policy) *audit.Logger {
	enabled := cfg.Audit.Enabled
	path := config.ExpandHome(cfg.Audit.File)
	if policy != nil && policy.Audit.Enabled {
		enabled = true
		if p := policy.AuditLogPath(); p != "" {
			path = p
		}
	}
	return audit.NewLogger(path, enabled)
}

// Runner returns a job runner for command recording args in the audit log.
func (e *Env) Runner(command string, args []string) *job.Runner {
	return &job.Runner{
		Command: command,
		Args:    args,
		Policy:  e.Policy,
		Audit:   e.Audit,
	}
}

// Args rebuilds the command line of cmd for the audit log: every flag that was
// set, as --name=value, followed by the positional args.
func Args(cmd *cobra.Command, args []string) []string {
	var out []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		out = append(out, "--"+f.Name+"="+f.Value.String())
	})
	return append(out, args...)
}

// DocType resolves the --type flag, falling back to the configured default.
func (e *Env) DocType(flag string) (ooxml.DocType, error) {
	name := flag
	if name == "" {
		name = e.Config.Type
	}
	return track.LookupType(name)
}

// LoadMetadata reads the --meta file. An empty path means no metadata edit.
func LoadMetadata(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	kv, err := metadata.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", track.ErrConfiguration, err)
	}
	return kv, nil
}

// Writer returns an output writer honoring the --json flag.
func Writer(cmd *cobra.Command) *output.Writer {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	return output.NewWriter(cmd.OutOrStdout(), output.FormatFor(jsonFlag))
}

// ErrorKind names the class of err for the JSON error envelope.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, track.ErrConfiguration):
		return "configuration"
	case errors.Is(err, track.ErrUnsupportedKind):
		return "unsupported_kind"
	case errors.Is(err, track.ErrMalformedPackage):
		return "malformed_package"
	case errors.Is(err, track.ErrInvalidTarget):
		return "invalid_target"
	default:
		return ""
	}
}
