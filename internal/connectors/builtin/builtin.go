// Package builtin assembles the default connector set.
package builtin

import (
	"net/http"
	"time"

	"github.com/agentstation/osiris/internal/connectors/cisakev"
	"github.com/agentstation/osiris/internal/connectors/eonet"
	"github.com/agentstation/osiris/internal/connectors/gdelt"
	"github.com/agentstation/osiris/internal/connectors/opensky"
	"github.com/agentstation/osiris/internal/connectors/otx"
	"github.com/agentstation/osiris/internal/connectors/rss"
	"github.com/agentstation/osiris/internal/connectors/usgs"
	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/constants"
)

// Config carries connector credentials and transport settings.
type Config struct {
	OTXAPIKey       string
	OpenSkyUsername string
	OpenSkyPassword string

	HTTPTimeout time.Duration

	// RequestsPerSecond paces each connector's requests. Zero uses
	// constants.ConnectorRequestsPerSecond; negative disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// pacing returns the transport option every connector shares. Each
// connector builds its own limiter from it.
func (cfg Config) pacing() transport.Option {
	rps, burst := cfg.RequestsPerSecond, cfg.Burst
	if rps == 0 {
		rps = constants.ConnectorRequestsPerSecond
	}
	if burst <= 0 {
		burst = constants.ConnectorRequestBurst
	}
	return transport.WithRateLimit(rps, burst)
}

// Connectors returns the built-in connectors in registration order.
func Connectors(cfg Config) []connectors.Connector {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	hc := &http.Client{Timeout: timeout}
	pace := cfg.pacing()

	return []connectors.Connector{
		usgs.New(usgs.WithHTTPClient(hc), usgs.WithTransport(pace)),
		cisakev.New(cisakev.WithHTTPClient(hc), cisakev.WithTransport(pace)),
		eonet.New(eonet.WithHTTPClient(hc), eonet.WithTransport(pace)),
		otx.New(cfg.OTXAPIKey, otx.WithHTTPClient(hc), otx.WithTransport(pace)),
		opensky.New(opensky.WithHTTPClient(hc), opensky.WithTransport(pace),
			opensky.WithCredentials(cfg.OpenSkyUsername, cfg.OpenSkyPassword)),
		gdelt.New(gdelt.WithHTTPClient(hc), gdelt.WithTransport(pace)),
		rss.New(rss.WithHTTPClient(hc), rss.WithTransport(pace)),
	}
}

// Registry returns a registry holding the built-in connectors.
func Registry(cfg Config) *connectors.Registry {
	return connectors.NewRegistry(Connectors(cfg)...)
}
