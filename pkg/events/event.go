// Package events defines the normalized event model shared by connectors,
// the event store, the vector index and the live channel.
package events

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Event is a single normalized observation from any feed.
// Values are treated as immutable once built; enrichment returns a copy.
type Event struct {
	ID           string         `json:"id" yaml:"id"`
	Source       Source         `json:"source" yaml:"source"`
	Type         Category       `json:"event_type" yaml:"event_type"`
	Title        string         `json:"title" yaml:"title"`
	Description  string         `json:"description" yaml:"description"`
	Lat          *float64       `json:"lat" yaml:"lat,omitempty"`
	Lon          *float64       `json:"lon" yaml:"lon,omitempty"`
	Timestamp    time.Time      `json:"timestamp" yaml:"timestamp"`
	Entities     []Entity       `json:"entities" yaml:"entities"`
	Metadata     map[string]any `json:"metadata" yaml:"metadata"`
	URL          string         `json:"url,omitempty" yaml:"url,omitempty"`
	Severity     Severity       `json:"severity,omitempty" yaml:"severity,omitempty"`
	GeometryType GeometryKind   `json:"geometry_type" yaml:"geometry_type"`
	Coordinates  [][]float64    `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
}

// Entity is a named thing mentioned in an event.
type Entity struct {
	Name          string         `json:"name" yaml:"name"`
	Type          string         `json:"type" yaml:"type"`
	SourceEventID string         `json:"source_event_id,omitempty" yaml:"source_event_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// New returns an event with a fresh UUID, a UTC timestamp and point geometry.
func New(source Source, category Category, title string, ts time.Time) Event {
	return Event{
		ID:           uuid.NewString(),
		Source:       source,
		Type:         category,
		Title:        title,
		Timestamp:    ts.UTC(),
		Entities:     []Entity{},
		Metadata:     map[string]any{},
		GeometryType: GeometryPoint,
	}
}

// At sets the position of the event.
func (e Event) At(lat, lon float64) Event {
	e.Lat = &lat
	e.Lon = &lon
	return e
}

// HasPosition reports whether both coordinates are present.
func (e Event) HasPosition() bool {
	return e.Lat != nil && e.Lon != nil
}

// Text is the string that gets embedded and fed to entity extraction.
func (e Event) Text() string {
	if e.Description == "" {
		return e.Title
	}
	return e.Title + " " + e.Description
}

// WithEntities returns a copy of e carrying the given entities, each stamped
// with e's ID.
func (e Event) WithEntities(entities []Entity) Event {
	out := e.Clone()
	out.Entities = make([]Entity, len(entities))
	for i, ent := range entities {
		ent.SourceEventID = e.ID
		out.Entities[i] = ent
	}
	return out
}

// Clone returns a copy that shares no mutable state with e.
func (e Event) Clone() Event {
	out := e
	if e.Lat != nil {
		lat := *e.Lat
		out.Lat = &lat
	}
	if e.Lon != nil {
		lon := *e.Lon
		out.Lon = &lon
	}
	out.Entities = slices.Clone(e.Entities)
	if out.Entities == nil {
		out.Entities = []Entity{}
	}
	out.Metadata = maps.Clone(e.Metadata)
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	if e.Coordinates != nil {
		out.Coordinates = make([][]float64, len(e.Coordinates))
		for i, c := range e.Coordinates {
			out.Coordinates[i] = slices.Clone(c)
		}
	}
	return out
}
