package events

import "time"

// FeedStatus is the outcome of the most recent cycle for one connector.
type FeedStatus struct {
	Name       string     `json:"name" yaml:"name"`
	Source     Source     `json:"source" yaml:"source"`
	Enabled    bool       `json:"enabled" yaml:"enabled"`
	Configured bool       `json:"configured" yaml:"configured"`
	LastFetch  *time.Time `json:"last_fetch" yaml:"last_fetch"`
	EventCount int        `json:"event_count" yaml:"event_count"`
	Error      *string    `json:"error" yaml:"error"`
}

// Active reports whether the last cycle produced events for this feed.
func (s FeedStatus) Active() bool {
	return s.Configured && s.Error == nil && s.EventCount > 0
}

// Unavailable reports whether the feed is unconfigured or failed last cycle.
func (s FeedStatus) Unavailable() bool {
	return !s.Configured || s.Error != nil
}
