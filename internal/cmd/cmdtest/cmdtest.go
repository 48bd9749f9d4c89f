// Package cmdtest provides fixtures for command tests.
package cmdtest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris"
	"github.com/agentstation/osiris/internal/cmd/application"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

// Observed is the timestamp of every fixture event.
var Observed = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// Connectors returns two working connectors and one without credentials.
func Connectors() []connectors.Connector {
	quakes := &connectors.Func{
		ConnectorName: "Quakes",
		FeedSource:    events.SourceUSGS,
		FetchFunc: func(context.Context) ([]events.Event, error) {
			return []events.Event{
				events.New(events.SourceUSGS, events.CategoryEarthquake, "M5.8 earthquake near Sendai, Japan", Observed).At(38.3, 140.9),
				events.New(events.SourceUSGS, events.CategoryEarthquake, "M3.1 earthquake in Nevada", Observed.Add(-time.Hour)).At(38.8, -117.0),
			}, nil
		},
	}
	vulns := &connectors.Func{
		ConnectorName: "Vulns",
		FeedSource:    events.SourceCISAKEV,
		FetchFunc: func(context.Context) ([]events.Event, error) {
			return []events.Event{
				events.New(events.SourceCISAKEV, events.CategoryCyber, "Ransomware actors exploit VPN appliance flaw", Observed),
			}, nil
		},
	}
	threats := &connectors.Func{
		ConnectorName: "Threats",
		FeedSource:    events.SourceOTX,
		Unconfigured:  true,
	}
	return []connectors.Connector{quakes, vulns, threats}
}

// Client returns a client over Connectors, shut down when t ends.
func Client(t testing.TB, opts ...osiris.Option) osiris.Client {
	t.Helper()
	base := []osiris.Option{
		osiris.WithLogger(logging.NewNopLogger()),
		osiris.WithConnectors(Connectors()...),
	}
	c, err := osiris.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

// App returns a mock application serving c in format.
func App(c osiris.Client, format string) *application.Mock {
	return &application.Mock{
		ClientFunc:       func() (osiris.Client, error) { return c, nil },
		OutputFormatFunc: func() string { return format },
	}
}

// Run executes cmd with args and returns what it wrote.
func Run(t testing.TB, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
