// Package rss fetches headlines from world news RSS and Atom feeds.
package rss

import (
	"context"
	"encoding/xml"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
)

// Feed is one named news feed.
type Feed struct {
	Name string
	URL  string
}

// DefaultFeeds are fetched in order.
var DefaultFeeds = []Feed{
	{Name: "Reuters World", URL: "https://feeds.reuters.com/reuters/worldNews"},
	{Name: "BBC World", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
	{Name: "AP Top News", URL: "https://rsshub.app/apnews/topics/apf-topnews"},
	{Name: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml"},
}

const (
	maxItemsPerFeed = 15
	maxDescription  = 500
	accept          = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"
)

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var _ connectors.Connector = (*Connector)(nil)

// Connector implements connectors.Connector over a list of feeds.
type Connector struct {
	feeds  []Feed
	client *transport.Client
	topts  []transport.Option
	now    func() time.Time
}

// Option configures the connector.
type Option func(*Connector)

// WithFeeds replaces the default feeds.
func WithFeeds(feeds ...Feed) Option {
	return func(c *Connector) { c.feeds = feeds }
}

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Connector) { c.topts = append(c.topts, transport.WithHTTPClient(hc)) }
}

// WithTransport adds transport options such as request pacing.
func WithTransport(opts ...transport.Option) Option {
	return func(c *Connector) { c.topts = append(c.topts, opts...) }
}

// New creates an RSS news connector.
func New(opts ...Option) *Connector {
	c := &Connector{feeds: DefaultFeeds, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.client = transport.New("rss_news", c.topts...)
	return c
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return "RSS News" }

// Source implements connectors.Connector.
func (c *Connector) Source() events.Source { return events.SourceRSSNews }

// IsConfigured implements connectors.Connector.
func (c *Connector) IsConfigured() bool { return true }

// document reads RSS 2.0 channels and Atom feeds.
type document struct {
	Items   []item  `xml:"channel>item"`
	Entries []entry `xml:"entry"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

type entry struct {
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
	Links   []struct {
		Href string `xml:"href,attr"`
		Rel  string `xml:"rel,attr"`
	} `xml:"link"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
}

// Fetch implements connectors.Connector. A failing feed is skipped; the
// fetch fails only when every feed fails.
func (c *Connector) Fetch(ctx context.Context) ([]events.Event, error) {
	var (
		out  []events.Event
		errs []error
	)
	for _, f := range c.feeds {
		evts, err := c.fetchFeed(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		out = append(out, evts...)
	}
	if len(errs) > 0 && len(errs) == len(c.feeds) {
		return nil, errors.Join(errs...)
	}
	if out == nil {
		out = []events.Event{}
	}
	return out, nil
}

func (c *Connector) fetchFeed(ctx context.Context, f Feed) ([]events.Event, error) {
	body, err := c.client.GetBody(ctx, f.URL, accept)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errors.WrapParse("xml", f.Name, err)
	}

	var out []events.Event
	for _, it := range doc.Items {
		out = append(out, c.toEvent(f, it.Title, it.Description, it.Link, it.PubDate))
	}
	for _, en := range doc.Entries {
		published := en.Published
		if published == "" {
			published = en.Updated
		}
		out = append(out, c.toEvent(f, en.Title, en.Summary, entryLink(en), published))
	}
	return out[:min(len(out), maxItemsPerFeed)], nil
}

func entryLink(en entry) string {
	for _, l := range en.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(en.Links) > 0 {
		return en.Links[0].Href
	}
	return ""
}

func (c *Connector) toEvent(f Feed, title, desc, link, date string) events.Event {
	e := events.New(events.SourceRSSNews, events.CategoryNews,
		"["+f.Name+"] "+strings.TrimSpace(title), c.parseDate(date))

	text := []rune(plainText(desc))
	if len(text) > maxDescription {
		text = text[:maxDescription]
	}
	e.Description = string(text)
	e.URL = strings.TrimSpace(link)
	e.Metadata = map[string]any{"feed": f.Name, "feed_url": f.URL}
	return e
}

func (c *Connector) parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return c.now()
}

// plainText strips markup from feed summaries.
func plainText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
