package vectorindex

import (
	"encoding/json"
	"math"
	"time"

	"github.com/agentstation/osiris/pkg/events"
)

// Payload is the flat document stored alongside each vector. Timestamp is
// unix seconds so backends can range-filter it.
type Payload struct {
	Source      events.Source   `json:"source"`
	EventType   events.Category `json:"event_type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Lat         *float64        `json:"lat"`
	Lon         *float64        `json:"lon"`
	Timestamp   float64         `json:"timestamp"`
	Entities    []events.Entity `json:"entities"`
	Metadata    map[string]any  `json:"metadata"`
	URL         string          `json:"url,omitempty"`
	Severity    events.Severity `json:"severity,omitempty"`
}

// NewPayload flattens e.
func NewPayload(e events.Event) Payload {
	return Payload{
		Source:      e.Source,
		EventType:   e.Type,
		Title:       e.Title,
		Description: e.Description,
		Lat:         e.Lat,
		Lon:         e.Lon,
		Timestamp:   UnixSeconds(e.Timestamp),
		Entities:    e.Entities,
		Metadata:    e.Metadata,
		URL:         e.URL,
		Severity:    e.Severity,
	}
}

// Event rebuilds the event stored under id.
func (p Payload) Event(id string) events.Event {
	sec, frac := math.Modf(p.Timestamp)
	e := events.Event{
		ID:           id,
		Source:       p.Source,
		Type:         p.EventType,
		Title:        p.Title,
		Description:  p.Description,
		Lat:          p.Lat,
		Lon:          p.Lon,
		Timestamp:    time.Unix(int64(sec), int64(frac*1e9)).UTC(),
		Entities:     p.Entities,
		Metadata:     p.Metadata,
		URL:          p.URL,
		Severity:     p.Severity,
		GeometryType: events.GeometryPoint,
	}
	return e.Clone()
}

// Map converts the payload to a generic JSON object.
func (p Payload) Map() map[string]any {
	data, _ := json.Marshal(p)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}

// UnixSeconds converts t to fractional unix seconds.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
