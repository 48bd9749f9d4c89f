// Package cisakev fetches the CISA Known Exploited Vulnerabilities catalog.
package cisakev

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
)

// DefaultURL is the public KEV JSON feed.
const DefaultURL = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"

const (
	maxVulnerabilities = 50

	// KEV entries carry no location; they are pinned to Washington, DC.
	defaultLat = 38.8977
	defaultLon = -77.0365
)

var _ connectors.Connector = (*Connector)(nil)

// Connector implements connectors.Connector for CISA KEV.
type Connector struct {
	url    string
	client *transport.Client
	topts  []transport.Option
	now    func() time.Time
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

// New creates a CISA KEV connector.
func New(opts ...Option) *Connector {
	c := &Connector{url: DefaultURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.client = transport.New("cisa_kev", c.topts...)
	return c
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return "CISA KEV" }

// Source implements connectors.Connector.
func (c *Connector) Source() events.Source { return events.SourceCISAKEV }

// IsConfigured implements connectors.Connector.
func (c *Connector) IsConfigured() bool { return true }

type catalog struct {
	Vulnerabilities []vulnerability `json:"vulnerabilities"`
}

type vulnerability struct {
	CVEID            string `json:"cveID"`
	VendorProject    string `json:"vendorProject"`
	Product          string `json:"product"`
	Name             string `json:"vulnerabilityName"`
	DateAdded        string `json:"dateAdded"`
	ShortDescription string `json:"shortDescription"`
	RequiredAction   string `json:"requiredAction"`
	DueDate          string `json:"dueDate"`
	Ransomware       string `json:"knownRansomwareCampaignUse"`
}

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context) ([]events.Event, error) {
	var cat catalog
	if err := c.client.GetJSON(ctx, c.url, &cat); err != nil {
		return nil, err
	}

	vulns := cat.Vulnerabilities
	if len(vulns) > maxVulnerabilities {
		vulns = vulns[:maxVulnerabilities]
	}
	out := make([]events.Event, 0, len(vulns))
	for _, v := range vulns {
		out = append(out, c.toEvent(v))
	}
	return out, nil
}

func (c *Connector) toEvent(v vulnerability) events.Event {
	ts, err := time.Parse(time.DateOnly, v.DateAdded)
	if err != nil {
		ts = c.now()
	}
	cve := v.CVEID
	if cve == "" {
		cve = "Unknown"
	}

	e := events.New(events.SourceCISAKEV, events.CategoryCyber, fmt.Sprintf("%s: %s", cve, v.Name), ts).
		At(defaultLat, defaultLon)
	e.Description = v.ShortDescription
	e.Severity = events.SeverityCritical
	e.URL = "https://nvd.nist.gov/vuln/detail/" + cve
	e.Metadata = map[string]any{
		"cve":              cve,
		"vendor":           v.VendorProject,
		"product":          v.Product,
		"action":           v.RequiredAction,
		"due_date":         v.DueDate,
		"known_ransomware": v.Ransomware,
	}
	return e
}
