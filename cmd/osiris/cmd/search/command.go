// Package search provides the command that runs a semantic query.
package search

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/osiris/internal/cmd/application"
	"github.com/agentstation/osiris/internal/cmd/cmdutil"
	"github.com/agentstation/osiris/internal/cmd/output"
	"github.com/agentstation/osiris/internal/retrieval"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/events"
)

// NewCommand creates the search command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		sources   []string
		types     []string
		limit     int
		threshold float64
		noFetch   bool
	)
	cmd := &cobra.Command{
		Use:     "search <text>",
		GroupID: "core",
		Short:   "Run one cycle, then search the indexed events",
		Long: `Search runs one aggregation cycle to populate the index and then ranks
the indexed events by semantic similarity to the query text.

With a Qdrant index configured, --no-fetch searches the existing collection
without running a cycle first.`,
		Example: `  osiris search "earthquake near Tokyo"
  osiris search ransomware --source cisa_kev --threshold 0.2
  osiris search "wildfire" --type wildfire --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := retrieval.Query{
				Text:           strings.Join(args, " "),
				Limit:          limit,
				ScoreThreshold: &threshold,
			}
			for _, s := range sources {
				src := events.Source(s)
				if !src.Valid() {
					return fmt.Errorf("unknown source %q", s)
				}
				q.Sources = append(q.Sources, src)
			}
			for _, t := range types {
				typ := events.Category(t)
				if !typ.Valid() {
					return fmt.Errorf("unknown event type %q", t)
				}
				q.Types = append(q.Types, typ)
			}

			client, err := app.Client()
			if err != nil {
				return err
			}
			if !noFetch {
				if _, err := client.Refresh(cmd.Context()); err != nil {
					return fmt.Errorf("running cycle: %w", err)
				}
			}

			results, err := client.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			return cmdutil.Render(cmd.OutOrStdout(), app.OutputFormat(), results, func(wide bool) output.Data {
				return output.ResultsToTableData(results, wide)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&sources, "source", "s", nil, "Restrict to these sources")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Restrict to these event types")
	cmd.Flags().IntVarP(&limit, "limit", "l", constants.DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().Float64Var(&threshold, "threshold", constants.DefaultScoreThreshold, "Minimum similarity score")
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "Search without running a cycle first")
	return cmd
}
