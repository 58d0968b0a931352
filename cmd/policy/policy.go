// Package policy provides the "doctrack policy" commands for the org-wide policy.
package policy

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/config"
	"github.com/leftp/doctrack/internal/output"
	"github.com/leftp/doctrack/internal/track"
)

// NewCommand creates the "policy" command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage the organization-wide policy",
		Long: `View, validate, and generate the org policy deployed by administrators.
The policy restricts which hosts tracking and template URLs may point at,
can force output verification, and can enable audit logging for all users.`,
	}

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current org policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.LoadPolicy()
			if err != nil {
				return err
			}

			w := cli.Writer(cmd)
			if w.JSON() {
				data := map[string]any{"path": config.PolicyPath(), "policy": p}
				return output.PrintJSON(cmd.OutOrStdout(), "policy show", data)
			}

			if p == nil {
				w.Printf("No org policy found at %s\n", config.PolicyPath())
				w.WriteLn("Any target host is allowed.")
				return nil
			}

			w.Printf("Organization: %s\n", p.OrgName)
			w.Printf("Policy:       %s\n\n", config.PolicyPath())
			if len(p.AllowedHosts) > 0 {
				w.Printf("Hosts:        %s\n", strings.Join(p.AllowedHosts, ", "))
			} else {
				w.WriteLn("Hosts:        all allowed")
			}
			if p.Locked.Verify {
				w.WriteLn("Verify:       always  [LOCKED]")
			}
			if p.Audit.Enabled {
				path := p.AuditLogPath()
				if path == "" {
					path = "(user config audit.file)"
				}
				w.Printf("Audit:        enabled -> %s\n", path)
			} else {
				w.WriteLn("Audit:        disabled")
			}
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an org policy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.LoadPolicyFrom(args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("file not found: %s", args[0])
			}

			issues := config.ValidatePolicy(p)

			w := cli.Writer(cmd)
			if w.JSON() {
				if err := output.PrintJSON(cmd.OutOrStdout(), "policy validate", map[string]any{
					"valid":  len(issues) == 0,
					"issues": issues,
				}); err != nil {
					return err
				}
			} else if len(issues) == 0 {
				w.Printf("Valid org policy: %s\n", p.OrgName)
			} else {
				w.Printf("Validation failed (%d issues):\n", len(issues))
				for _, issue := range issues {
					w.Printf("  - %s\n", issue)
				}
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d validation issues found", len(issues))
			}
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	var orgName string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate an org policy template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgName == "" {
				orgName = "My Organization"
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GeneratePolicyTemplate(orgName))
			return nil
		},
	}

	cmd.Flags().StringVar(&orgName, "org-name", "", "Organization name")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Check whether the policy allows a target URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := track.NormalizeTarget(args[0])
			if err != nil {
				return err
			}
			p, err := config.LoadPolicy()
			if err != nil {
				return err
			}
			allowed := p.AllowsTarget(target)

			w := cli.Writer(cmd)
			if w.JSON() {
				if err := output.PrintJSON(cmd.OutOrStdout(), "policy check", map[string]any{
					"target":  target,
					"allowed": allowed,
				}); err != nil {
					return err
				}
			} else if allowed {
				w.Printf("%s is allowed\n", target)
			}
			if !allowed {
				return fmt.Errorf("%w: %s is not an allowed host under the org policy", track.ErrConfiguration, target)
			}
			return nil
		},
	}
}
