// Package vectorindex defines the vector index contract and the payload
// shape events are stored under.
package vectorindex

import (
	"context"
	"time"

	"github.com/agentstation/osiris/pkg/events"
)

// Point is one event and its embedding.
type Point struct {
	Event  events.Event
	Vector []float32
}

// Filter constrains a search. Zero values do not constrain. The time range
// applies only when both Start and End are set.
type Filter struct {
	Source events.Source
	Type   events.Category
	Start  *time.Time
	End    *time.Time
}

// HasRange reports whether the time range is in effect.
func (f Filter) HasRange() bool {
	return f.Start != nil && f.End != nil
}

// Match reports whether e satisfies f. Backends that cannot push filters
// down use it directly.
func (f Filter) Match(e events.Event) bool {
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.HasRange() && (e.Timestamp.Before(*f.Start) || e.Timestamp.After(*f.End)) {
		return false
	}
	return true
}

// Hit is one search result.
type Hit struct {
	Event events.Event
	Score float64
}

// Index stores event vectors and answers nearest-neighbor queries.
type Index interface {
	// Upsert inserts or replaces points keyed by event ID.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to limit hits scoring at least threshold, best first.
	Search(ctx context.Context, vector []float32, f Filter, limit int, threshold float64) ([]Hit, error)

	// Count returns the number of stored points.
	Count(ctx context.Context) (int, error)
}
