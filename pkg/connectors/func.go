package connectors

import (
	"context"

	"github.com/agentstation/osiris/pkg/events"
)

// Func adapts a plain function into a Connector. Configured defaults to true
// when Unconfigured is false.
type Func struct {
	ConnectorName string
	FeedSource    events.Source
	Unconfigured  bool
	FetchFunc     func(ctx context.Context) ([]events.Event, error)
}

var _ Connector = (*Func)(nil)

// Name implements Connector.
func (f *Func) Name() string { return f.ConnectorName }

// Source implements Connector.
func (f *Func) Source() events.Source { return f.FeedSource }

// IsConfigured implements Connector.
func (f *Func) IsConfigured() bool { return !f.Unconfigured }

// Fetch implements Connector.
func (f *Func) Fetch(ctx context.Context) ([]events.Event, error) {
	if f.FetchFunc == nil {
		return nil, nil
	}
	return f.FetchFunc(ctx)
}
