// Package eonet fetches open natural events from NASA EONET v3.
package eonet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
)

// DefaultURL is the EONET events endpoint.
const DefaultURL = "https://eonet.gsfc.nasa.gov/api/v3/events"

var categoryTypes = map[string]events.Category{
	"wildfires":     events.CategoryWildfire,
	"volcanoes":     events.CategoryVolcano,
	"severeStorms":  events.CategoryWeather,
	"earthquakes":   events.CategoryEarthquake,
	"floods":        events.CategoryNaturalDisaster,
	"landslides":    events.CategoryNaturalDisaster,
	"seaAndLakeIce": events.CategoryNaturalDisaster,
	"drought":       events.CategoryNaturalDisaster,
	"dustAndHaze":   events.CategoryWeather,
	"tempExtremes":  events.CategoryWeather,
	"waterColor":    events.CategoryNaturalDisaster,
	"manmade":       events.CategoryInfrastructure,
	"snow":          events.CategoryWeather,
}

var _ connectors.Connector = (*Connector)(nil)

// Connector implements connectors.Connector for EONET.
type Connector struct {
	url    string
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

// New creates an EONET connector.
func New(opts ...Option) *Connector {
	c := &Connector{url: DefaultURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.client = transport.New("nasa_eonet", c.topts...)
	return c
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return "NASA EONET" }

// Source implements connectors.Connector.
func (c *Connector) Source() events.Source { return events.SourceNASAEONET }

// IsConfigured implements connectors.Connector.
func (c *Connector) IsConfigured() bool { return true }

type response struct {
	Events []eonetEvent `json:"events"`
}

type eonetEvent struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Link       string `json:"link"`
	Categories []struct {
		ID string `json:"id"`
	} `json:"categories"`
	Sources []struct {
		URL string `json:"url"`
	} `json:"sources"`
	Geometry []geometry `json:"geometry"`
}

type geometry struct {
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context) ([]events.Event, error) {
	q := url.Values{}
	q.Set("limit", "50")
	q.Set("days", "7")
	q.Set("status", "open")

	var resp response
	if err := c.client.GetJSON(ctx, c.url+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	out := make([]events.Event, 0, len(resp.Events))
	for _, ev := range resp.Events {
		e, ok := c.toEvent(ev)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Connector) toEvent(ev eonetEvent) (events.Event, bool) {
	if len(ev.Geometry) == 0 {
		return events.Event{}, false
	}
	geo := ev.Geometry[len(ev.Geometry)-1]
	lat, lon, ring, ok := position(geo)
	if !ok {
		return events.Event{}, false
	}

	categories := make([]string, 0, len(ev.Categories))
	category := events.CategoryNaturalDisaster
	matched := false
	for _, cat := range ev.Categories {
		categories = append(categories, cat.ID)
		if t, found := categoryTypes[cat.ID]; found && !matched {
			category, matched = t, true
		}
	}

	ts, err := time.Parse(time.RFC3339, geo.Date)
	if err != nil {
		ts = c.now()
	}
	title := ev.Title
	if title == "" {
		title = "Natural Event"
	}

	e := events.New(events.SourceNASAEONET, category, title, ts).At(lat, lon)
	e.Description = "Categories: " + strings.Join(categories, ", ")
	e.URL = ev.Link
	if ring != nil {
		e.GeometryType = events.GeometryPolygon
		e.Coordinates = ring
	}

	sources := make([]string, 0, len(ev.Sources))
	for _, s := range ev.Sources {
		sources = append(sources, s.URL)
	}
	e.Metadata = map[string]any{
		"eonet_id":   ev.ID,
		"categories": categories,
		"sources":    sources,
	}
	return e, true
}

// position returns the point for Point geometry, or the centroid and outer
// ring for Polygon geometry.
func position(g geometry) (lat, lon float64, ring [][]float64, ok bool) {
	var point []float64
	if err := json.Unmarshal(g.Coordinates, &point); err == nil {
		if len(point) < 2 {
			return 0, 0, nil, false
		}
		return point[1], point[0], nil, true
	}

	var polygon [][][]float64
	if err := json.Unmarshal(g.Coordinates, &polygon); err != nil || len(polygon) == 0 || len(polygon[0]) == 0 {
		return 0, 0, nil, false
	}
	outer := polygon[0]
	var sumLat, sumLon float64
	n := 0
	for _, p := range outer {
		if len(p) < 2 {
			continue
		}
		sumLon += p[0]
		sumLat += p[1]
		n++
	}
	if n == 0 {
		return 0, 0, nil, false
	}
	return sumLat / float64(n), sumLon / float64(n), outer, true
}
