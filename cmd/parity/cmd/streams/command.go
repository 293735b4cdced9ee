// Package streams implements the streams command.
package streams

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/parity/cmd/application"
	"github.com/agentstation/parity/internal/cmd/output"
	"github.com/agentstation/parity/internal/cmd/table"
	"github.com/agentstation/parity/internal/matcher"
)

// NewCommand creates the streams command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "streams [stream...]",
		Short: "Show the stream catalog in dependency order",
		Long: `Streams lists the catalog grouped into dependency levels. Every stream is
fetched after the streams it depends on. Naming streams (or globs such as 'contact*')
limits the listing to them and their dependencies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := app.Catalog()
			if err != nil {
				return err
			}
			names := catalog.Names()
			if len(args) > 0 {
				if names, err = matcher.Expand(args, names); err != nil {
					return err
				}
			}
			levels, err := catalog.Levels(names)
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()),
				table.StreamsToTableData(levels), levels)
		},
	}
}
