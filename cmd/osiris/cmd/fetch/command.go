// Package fetch provides the command that runs one aggregation cycle.
package fetch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/osiris/internal/cmd/application"
	"github.com/agentstation/osiris/internal/cmd/cmdutil"
	"github.com/agentstation/osiris/internal/cmd/emoji"
	"github.com/agentstation/osiris/internal/cmd/output"
	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/pkg/events"
)

const defaultLimit = 50

// Result is what fetch prints in structured formats.
type Result struct {
	Ingested int             `json:"ingested" yaml:"ingested"`
	Outcomes []cycle.Outcome `json:"outcomes" yaml:"outcomes"`
	Events   []events.Event  `json:"events" yaml:"events"`
}

// NewCommand creates the fetch command.
func NewCommand(app application.Application) *cobra.Command {
	var showOutcomes bool
	cmd := &cobra.Command{
		Use:     "fetch",
		GroupID: "core",
		Short:   "Run one aggregation cycle and print the events",
		Long: `Fetch runs a single cycle over every registered connector in-process and
prints the newest events. Connectors without credentials are skipped.`,
		Example: `  osiris fetch
  osiris fetch --source usgs --limit 10
  osiris fetch --type cyber --format json
  osiris fetch --outcomes`,
		Args: cobra.NoArgs,
	}
	flags := cmdutil.AddEventFlags(cmd, defaultLimit)
	cmd.Flags().BoolVar(&showOutcomes, "outcomes", false, "Print per-connector outcomes instead of events")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		filter, err := flags.Filter()
		if err != nil {
			return err
		}
		client, err := app.Client()
		if err != nil {
			return err
		}

		var report *cycle.Report
		client.OnCycle(func(r *cycle.Report) { report = r })

		n, err := client.Refresh(cmd.Context())
		if err != nil {
			return fmt.Errorf("running cycle: %w", err)
		}
		page, err := client.Events(cmd.Context(), filter)
		if err != nil {
			return err
		}

		res := Result{Ingested: n, Events: page.Events}
		if report != nil {
			res.Outcomes = report.Outcomes
		}

		format := app.OutputFormat()
		if output.DetectFormat(format).IsTable() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Ingested %d events from %d feeds\n",
				emoji.Success, n, len(page.SourcesActive))
		}
		return cmdutil.Render(cmd.OutOrStdout(), format, res, func(wide bool) output.Data {
			if showOutcomes {
				return output.OutcomesToTableData(res.Outcomes)
			}
			return output.EventsToTableData(res.Events, wide)
		})
	}
	return cmd
}
