// Package opensky fetches airborne state vectors from the OpenSky Network.
package opensky

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
)

// DefaultURL is the all-states endpoint.
const DefaultURL = "https://opensky-network.org/api/states/all"

const maxStates = 200

// State vector indexes.
const (
	idxICAO24 = iota
	idxCallsign
	idxOriginCountry
	_ // time_position
	_ // last_contact
	idxLongitude
	idxLatitude
	idxAltitude
	idxOnGround
	idxVelocity
	idxHeading
	_ // vertical_rate
	_ // sensors
	_ // geo_altitude
	idxSquawk
)

var _ connectors.Connector = (*Connector)(nil)

// Connector implements connectors.Connector for OpenSky. Anonymous access
// works but is rate limited more strictly than authenticated access.
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

// WithCredentials authenticates with HTTP basic auth.
func WithCredentials(username, password string) Option {
	return func(c *Connector) {
		if username != "" && password != "" {
			c.topts = append(c.topts, transport.WithAuth(&transport.BasicAuth{Username: username}, password))
		}
	}
}

// New creates an OpenSky connector.
func New(opts ...Option) *Connector {
	c := &Connector{url: DefaultURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.client = transport.New("opensky", c.topts...)
	return c
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return "OpenSky Network" }

// Source implements connectors.Connector.
func (c *Connector) Source() events.Source { return events.SourceOpenSky }

// IsConfigured implements connectors.Connector.
func (c *Connector) IsConfigured() bool { return true }

type statesResponse struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context) ([]events.Event, error) {
	var resp statesResponse
	if err := c.client.GetJSON(ctx, c.url, &resp); err != nil {
		return nil, err
	}

	ts := c.now().UTC()
	if resp.Time > 0 {
		ts = time.Unix(resp.Time, 0).UTC()
	}

	states := resp.States[:min(len(resp.States), maxStates)]
	out := make([]events.Event, 0, len(states))
	for _, st := range states {
		if e, ok := toEvent(st, ts); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func toEvent(st []any, ts time.Time) (events.Event, bool) {
	if len(st) <= idxSquawk {
		return events.Event{}, false
	}
	lat, latOK := st[idxLatitude].(float64)
	lon, lonOK := st[idxLongitude].(float64)
	onGround, _ := st[idxOnGround].(bool)
	if !latOK || !lonOK || onGround {
		return events.Event{}, false
	}

	icao, _ := st[idxICAO24].(string)
	callsign, _ := st[idxCallsign].(string)
	callsign = strings.TrimSpace(callsign)
	origin, _ := st[idxOriginCountry].(string)

	title := "Aircraft Unknown"
	if callsign != "" {
		title = "Aircraft " + callsign
	}
	if origin != "" {
		title += " (" + origin + ")"
	}

	e := events.New(events.SourceOpenSky, events.CategoryAviation, title, ts).At(lat, lon)
	alt, altOK := st[idxAltitude].(float64)
	vel, velOK := st[idxVelocity].(float64)
	hdg, hdgOK := st[idxHeading].(float64)
	if altOK && velOK && hdgOK && alt != 0 && vel != 0 && hdg != 0 {
		e.Description = fmt.Sprintf("Alt: %.0fm | Speed: %.0fm/s | Heading: %.0f°", alt, vel, hdg)
	} else {
		e.Description = "In flight"
	}
	e.Metadata = map[string]any{
		"icao24":         icao,
		"callsign":       callsign,
		"origin_country": origin,
		"altitude_m":     st[idxAltitude],
		"velocity_ms":    st[idxVelocity],
		"heading":        st[idxHeading],
		"on_ground":      onGround,
		"squawk":         st[idxSquawk],
	}
	return e, true
}
