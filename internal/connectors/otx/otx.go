// Package otx fetches subscribed pulses from AlienVault OTX.
package otx

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
)

// DefaultURL is the subscribed pulses endpoint.
const DefaultURL = "https://otx.alienvault.com/api/v1/pulses/subscribed"

const (
	apiKeyHeader   = "X-OTX-API-KEY"
	maxDescription = 500
	maxIOCSample   = 20
)

// OTX timestamps usually omit the zone.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

var _ connectors.Connector = (*Connector)(nil)

// Connector implements connectors.Connector for OTX.
type Connector struct {
	url    string
	apiKey string
	client *transport.Client
	topts  []transport.Option
	now    func() time.Time
}

// Option configures the connector.
type Option func(*Connector)

// WithURL overrides the endpoint.
func WithURL(u string) Option {
	return func(c *Connector) { c.url = u }
}

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Connector) { c.topts = append(c.topts, transport.WithHTTPClient(hc)) }
}

// WithTransport adds transport options such as request pacing.
func WithTransport(opts ...transport.Option) Option {
	return func(c *Connector) { c.topts = append(c.topts, opts...) }
}

// New creates an OTX connector. Without apiKey it reports unconfigured.
func New(apiKey string, opts ...Option) *Connector {
	c := &Connector{url: DefaultURL, apiKey: apiKey, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	auth := transport.WithAuth(&transport.HeaderAuth{Header: apiKeyHeader}, apiKey)
	c.client = transport.New("otx", append([]transport.Option{auth}, c.topts...)...)
	return c
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return "AlienVault OTX" }

// Source implements connectors.Connector.
func (c *Connector) Source() events.Source { return events.SourceOTX }

// IsConfigured implements connectors.Connector.
func (c *Connector) IsConfigured() bool { return c.apiKey != "" }

type pulsesResponse struct {
	Results []pulse `json:"results"`
}

type pulse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Modified    string   `json:"modified"`
	Tags        []string `json:"tags"`
	TLP         string   `json:"tlp"`
	Adversary   string   `json:"adversary"`
	Indicators  []struct {
		Type string `json:"type"`
	} `json:"indicators"`
}

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context) ([]events.Event, error) {
	if !c.IsConfigured() {
		return nil, errors.NewConfigurationError("otx", "OTX_API_KEY is not set", nil)
	}
	q := url.Values{}
	q.Set("limit", "30")
	var resp pulsesResponse
	if err := c.client.GetJSON(ctx, c.url+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	out := make([]events.Event, 0, len(resp.Results))
	for _, p := range resp.Results {
		out = append(out, c.toEvent(p))
	}
	return out, nil
}

func (c *Connector) toEvent(p pulse) events.Event {
	title := p.Name
	if title == "" {
		title = "Unknown Pulse"
	}
	e := events.New(events.SourceOTX, events.CategoryCyber, title, c.parseTime(p.Modified))

	desc := []rune(p.Description)
	if len(desc) > maxDescription {
		desc = desc[:maxDescription]
	}
	e.Description = string(desc)
	e.Severity = events.SeverityHigh
	e.URL = "https://otx.alienvault.com/pulse/" + p.ID

	iocTypes := make([]string, 0)
	for _, ind := range p.Indicators[:min(len(p.Indicators), maxIOCSample)] {
		iocTypes = append(iocTypes, ind.Type)
	}
	slices.Sort(iocTypes)
	iocTypes = slices.Compact(iocTypes)

	tlp := p.TLP
	if tlp == "" {
		tlp = "white"
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	var adversary any
	if p.Adversary != "" {
		adversary = p.Adversary
	}
	e.Metadata = map[string]any{
		"pulse_id":  p.ID,
		"tags":      tags,
		"ioc_count": len(p.Indicators),
		"ioc_types": iocTypes,
		"tlp":       tlp,
		"adversary": adversary,
	}
	return e
}

func (c *Connector) parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return c.now()
}
