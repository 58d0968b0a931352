// Package inject provides the inject command: write a tracked copy of one
// document.
package inject

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/job"
	"github.com/leftp/doctrack/internal/output"
	"github.com/leftp/doctrack/internal/track"
)

// NewCommand returns the inject subcommand.
func NewCommand() *cobra.Command {
	var (
		typeName string
		outPath  string
		metaFile string
		url      string
		template bool
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "inject <input>",
		Short: "Write a copy of a document with a tracking or template link",
		Long: `Copies <input> to --output, applying the requested edits:

  --meta FILE     merge core properties from a JSON or YAML object
  --url URL       add an external tracking relationship to the main part
  --template      with --url: attach (or re-point) the document template

Tracking relationships accumulate; a document has at most one template
relationship, which is rewritten in place when it already exists.

Examples:
  doctrack inject report.docx -t docx -o report.tracked.docx --url https://t.example.com/p.png
  doctrack inject memo.docx -t docx -o memo.out.docx --url '\\srv\share\normal.dotm' --template
  doctrack inject book.xlsx -t xlsx -o book.out.xlsx --meta props.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			dt, err := env.DocType(typeName)
			if err != nil {
				return err
			}
			if template && url == "" {
				return fmt.Errorf("%w: --template requires --url", track.ErrConfiguration)
			}
			kv, err := cli.LoadMetadata(metaFile)
			if err != nil {
				return err
			}

			res, err := env.Runner("inject", cli.Args(cmd, args)).Run(cmd.Context(), job.Job{
				Input:  args[0],
				Output: outPath,
				Type:   dt,
				Edits:  track.Edits{Metadata: kv, URL: url, Template: template},
				Verify: verify || env.Config.Verify,
			})
			if err != nil {
				return err
			}

			w := cli.Writer(cmd)
			if w.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "inject", res)
			}
			return printResult(w, res)
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Document type (see 'doctrack types'); defaults to config 'type'")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file path (required)")
	cmd.Flags().StringVar(&metaFile, "meta", "", "JSON or YAML file of core properties to set")
	cmd.Flags().StringVar(&url, "url", "", "External target URL")
	cmd.Flags().BoolVar(&template, "template", false, "Insert the URL as the document template instead of a tracking link")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-open the output and check it before reporting success")

	return cmd
}

func printResult(w *output.Writer, res *job.Result) error {
	green := color.New(color.FgGreen)
	w.Colorf(green, "✓ ")
	w.Printf("%s → %s (%s)\n", res.Input, res.Output, res.Type)

	if m := res.Report.Metadata; m != nil {
		for _, name := range m.Applied {
			w.Printf("  set %s\n", name)
		}
		if len(m.Skipped) > 0 {
			w.Printf("  skipped %d unknown key(s)\n", len(m.Skipped))
		}
		for _, warning := range m.Warnings {
			w.Colorf(color.New(color.FgYellow), "  warning: %s\n", warning)
		}
	}
	if rel := res.Report.Relationship; rel != nil {
		verb := "added"
		if rel.Rewritten {
			verb = "rewrote"
		}
		w.Printf("  %s %s on %s → %s\n", verb, rel.ID, rel.Owner, rel.Target)
	}
	if v := res.Verification; v != nil {
		w.Printf("  verified as %s\n", v.Kind)
	}
	return nil
}
