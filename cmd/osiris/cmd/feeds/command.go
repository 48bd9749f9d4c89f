// Package feeds provides the command that lists registered connectors.
package feeds

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/osiris/internal/cmd/application"
	"github.com/agentstation/osiris/internal/cmd/cmdutil"
	"github.com/agentstation/osiris/internal/cmd/output"
)

// NewCommand creates the feeds command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "feeds",
		Aliases: []string{"connectors"},
		GroupID: "core",
		Short:   "List connectors and whether they are configured",
		Long: `Feeds lists every registered connector in registration order with its
source and configured state. Use --format wide to include the last error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			feeds := client.Feeds()
			return cmdutil.Render(cmd.OutOrStdout(), app.OutputFormat(), feeds, func(wide bool) output.Data {
				return output.FeedsToTableData(feeds, wide)
			})
		},
	}
}
