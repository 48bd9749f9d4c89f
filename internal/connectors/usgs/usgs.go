// Package usgs fetches the USGS all-day earthquake summary feed.
package usgs

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
)

// DefaultURL is the GeoJSON summary of the past day.
const DefaultURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"

const maxFeatures = 100

var _ connectors.Connector = (*Connector)(nil)

// Connector implements connectors.Connector for USGS.
type Connector struct {
	url    string
	client *transport.Client
	topts  []transport.Option
}

// Option configures the connector.
type Option func(*Connector)

// WithURL overrides the feed URL.
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

// New creates a USGS connector.
func New(opts ...Option) *Connector {
	c := &Connector{url: DefaultURL}
	for _, opt := range opts {
		opt(c)
	}
	c.client = transport.New("usgs", c.topts...)
	return c
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return "USGS Earthquakes" }

// Source implements connectors.Connector.
func (c *Connector) Source() events.Source { return events.SourceUSGS }

// IsConfigured implements connectors.Connector. The feed is public.
func (c *Connector) IsConfigured() bool { return true }

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string `json:"id"`
	Properties struct {
		Mag     *float64 `json:"mag"`
		Place   *string  `json:"place"`
		Time    int64    `json:"time"`
		URL     string   `json:"url"`
		Title   string   `json:"title"`
		Tsunami int      `json:"tsunami"`
		Felt    *int     `json:"felt"`
		Alert   *string  `json:"alert"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context) ([]events.Event, error) {
	var fc featureCollection
	if err := c.client.GetJSON(ctx, c.url, &fc); err != nil {
		return nil, err
	}

	features := fc.Features
	if len(features) > maxFeatures {
		features = features[:maxFeatures]
	}
	out := make([]events.Event, 0, len(features))
	for _, f := range features {
		out = append(out, toEvent(f))
	}
	return out, nil
}

func toEvent(f feature) events.Event {
	p := f.Properties
	mag := 0.0
	if p.Mag != nil {
		mag = *p.Mag
	}
	magStr := strconv.FormatFloat(mag, 'f', -1, 64)

	title := p.Title
	if title == "" {
		title = fmt.Sprintf("M%s Earthquake", magStr)
	}

	e := events.New(events.SourceUSGS, events.CategoryEarthquake, title, time.UnixMilli(p.Time))
	coords := f.Geometry.Coordinates
	if len(coords) >= 2 {
		e = e.At(coords[1], coords[0])
	}

	var depth any
	depthStr := "?"
	if len(coords) > 2 {
		depth = coords[2]
		depthStr = strconv.FormatFloat(coords[2], 'f', -1, 64)
	}

	e.Description = fmt.Sprintf("Magnitude %s at depth %skm", magStr, depthStr)
	e.URL = p.URL
	e.Severity = severity(mag)
	e.Metadata = map[string]any{
		"magnitude": p.Mag,
		"depth_km":  depth,
		"tsunami":   p.Tsunami,
		"felt":      p.Felt,
		"alert":     p.Alert,
		"place":     p.Place,
		"usgs_id":   f.ID,
	}
	return e
}

func severity(mag float64) events.Severity {
	switch {
	case mag >= 6:
		return events.SeverityCritical
	case mag >= 4.5:
		return events.SeverityHigh
	case mag >= 2.5:
		return events.SeverityMedium
	default:
		return events.SeverityLow
	}
}
