// Package inspect provides the inspect command: list a document's external
// relationships and core properties.
package inspect

import (
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/output"
	"github.com/leftp/doctrack/internal/track"
)

type report struct {
	File          string                       `json:"file"`
	Type          string                       `json:"type"`
	Relationships []track.ExternalRelationship `json:"relationships"`
	Properties    []track.Property             `json:"properties"`
}

// NewCommand returns the inspect subcommand.
func NewCommand() *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "List external relationships and core properties",
		Long: `Prints one line per external relationship (owner part, id, target),
then one "Field: value" line per core property. The file is opened read-only.

Example:
  doctrack inspect report.tracked.docx -t docx`,
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

			pkg, target, err := track.Load(args[0], dt)
			if err != nil {
				return err
			}
			defer pkg.Close()

			r := report{
				File:          args[0],
				Type:          target.DocType().Name,
				Relationships: slices.Collect(track.ListExternalRelationships(pkg)),
				Properties:    track.Properties(pkg),
			}

			w := cli.Writer(cmd)
			if w.JSON() {
				if r.Relationships == nil {
					r.Relationships = []track.ExternalRelationship{}
				}
				return output.PrintJSON(cmd.OutOrStdout(), "inspect", r)
			}
			return printReport(w, r)
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Document type (see 'doctrack types'); defaults to config 'type'")

	return cmd
}

func printReport(w *output.Writer, r report) error {
	cyan := color.New(color.FgCyan)
	for _, rel := range r.Relationships {
		w.Colorf(cyan, "%s", rel.Owner)
		w.Printf(", %s, %s\n", rel.ID, rel.Target)
	}
	bold := color.New(color.Bold)
	for _, p := range r.Properties {
		w.Colorf(bold, "%s", p.Name)
		w.Printf(": %s\n", p.Value)
	}
	return nil
}
