// Package gdelt fetches recent articles from the GDELT DOC 2.0 API.
package gdelt

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
)

// DefaultURL is the DOC API endpoint.
const DefaultURL = "https://api.gdeltproject.org/api/v2/doc/doc"

const (
	maxRecords = 75
	timespan   = "60min"

	// seendate is UTC, e.g. 20260301T080000Z.
	seenLayout = "20060102T150405Z"
)

var _ connectors.Connector = (*Connector)(nil)

// Connector implements connectors.Connector for GDELT.
type Connector struct {
	url    string
	query  string
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

// WithQuery sets the DOC API query expression. The default is empty.
func WithQuery(q string) Option {
	return func(c *Connector) { c.query = q }
}

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Connector) { c.topts = append(c.topts, transport.WithHTTPClient(hc)) }
}

// WithTransport adds transport options such as request pacing.
func WithTransport(opts ...transport.Option) Option {
	return func(c *Connector) { c.topts = append(c.topts, opts...) }
}

// New creates a GDELT connector.
func New(opts ...Option) *Connector {
	c := &Connector{url: DefaultURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.client = transport.New("gdelt", c.topts...)
	return c
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return "GDELT" }

// Source implements connectors.Connector.
func (c *Connector) Source() events.Source { return events.SourceGDELT }

// IsConfigured implements connectors.Connector.
func (c *Connector) IsConfigured() bool { return true }

type artlist struct {
	Articles []article `json:"articles"`
}

type article struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	SeenDate      string `json:"seendate"`
	Domain        string `json:"domain"`
	Language      string `json:"language"`
	SourceCountry string `json:"sourcecountry"`
}

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context) ([]events.Event, error) {
	q := url.Values{}
	q.Set("query", c.query)
	q.Set("mode", "artlist")
	q.Set("maxrecords", strconv.Itoa(maxRecords))
	q.Set("format", "json")
	q.Set("sort", "datedesc")
	q.Set("timespan", timespan)

	var resp artlist
	if err := c.client.GetJSON(ctx, c.url+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	articles := resp.Articles[:min(len(resp.Articles), maxRecords)]
	out := make([]events.Event, 0, len(articles))
	for _, a := range articles {
		if a.Title == "" {
			continue
		}
		ts, err := time.Parse(seenLayout, a.SeenDate)
		if err != nil {
			ts = c.now()
		}
		e := events.New(events.SourceGDELT, events.CategoryNews, a.Title, ts)
		e.Description = "Source: " + a.Domain + " | Language: " + a.Language
		e.URL = a.URL
		e.Metadata = map[string]any{
			"domain":   a.Domain,
			"language": a.Language,
			"country":  a.SourceCountry,
		}
		out = append(out, e)
	}
	return out, nil
}
