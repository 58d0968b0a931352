// Package types provides the types command: print the document type table.
package types

import (
	"github.com/spf13/cobra"

	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/ooxml"
	"github.com/leftp/doctrack/internal/output"
)

type typeInfo struct {
	Name        string `json:"name"`
	Family      string `json:"family"`
	Extension   string `json:"extension"`
	Description string `json:"description"`
}

// NewCommand returns the types subcommand.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the document types accepted by --type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := make([]typeInfo, len(ooxml.Types))
			rows := make([][]string, len(ooxml.Types))
			for i, t := range ooxml.Types {
				infos[i] = typeInfo{
					Name:        t.Name,
					Family:      t.Kind.String(),
					Extension:   t.Extension,
					Description: t.Description,
				}
				rows[i] = []string{t.Name, t.Kind.String(), t.Extension, t.Description}
			}

			w := cli.Writer(cmd)
			if w.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "types", infos)
			}
			return w.Table([]string{"type", "family", "extension", "description"}, rows)
		},
	}
}
