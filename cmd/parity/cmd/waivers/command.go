// Package waivers implements the waivers command.
package waivers

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/agentstation/parity/cmd/application"
	"github.com/agentstation/parity/internal/cmd/output"
	"github.com/agentstation/parity/internal/cmd/table"
	pkgwaivers "github.com/agentstation/parity/pkg/waivers"
)

// listing is the structured form of the waiver table.
type listing struct {
	Prefixes []pkgwaivers.Prefix `json:"prefixes" yaml:"prefixes"`
	Fields   []pkgwaivers.Entry  `json:"fields" yaml:"fields"`
}

// NewCommand creates the waivers command.
func NewCommand(app application.Application) *cobra.Command {
	var stream string

	cmd := &cobra.Command{
		Use:   "waivers",
		Short: "List known discrepancies that reconciliation ignores",
		Long: `Waivers lists the field waivers (fields known to be missing from, or extra
in, replicated records) and the prefix waivers for dynamically named fields.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := app.Waivers()
			if err != nil {
				return err
			}

			l := listing{Prefixes: registry.PrefixEntries(), Fields: registry.Entries()}
			if stream != "" {
				l.Prefixes = slices.DeleteFunc(l.Prefixes, func(p pkgwaivers.Prefix) bool {
					return p.Stream != "" && p.Stream != pkgwaivers.AllStreams && p.Stream != stream
				})
				l.Fields = slices.DeleteFunc(l.Fields, func(e pkgwaivers.Entry) bool {
					return e.Stream != stream
				})
			}

			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()),
				table.WaiversToTableData(l.Fields, l.Prefixes), l)
		},
	}

	cmd.Flags().StringVarP(&stream, "stream", "s", "", "only show waivers that apply to this stream")
	return cmd
}
