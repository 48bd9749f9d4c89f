package store

import (
	"time"

	"github.com/agentstation/osiris/pkg/events"
)

// Filter selects events. Zero-valued fields do not constrain. Bounds are
// inclusive, and an event missing a constrained coordinate never matches.
type Filter struct {
	Source events.Source
	Type   events.Category
	MinLat *float64
	MaxLat *float64
	MinLon *float64
	MaxLon *float64
	Since  *time.Time
	Offset int
	Limit  int
}

// Match reports whether e satisfies every set constraint.
func (f Filter) Match(e events.Event) bool {
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.MinLat != nil && (e.Lat == nil || *e.Lat < *f.MinLat) {
		return false
	}
	if f.MaxLat != nil && (e.Lat == nil || *e.Lat > *f.MaxLat) {
		return false
	}
	if f.MinLon != nil && (e.Lon == nil || *e.Lon < *f.MinLon) {
		return false
	}
	if f.MaxLon != nil && (e.Lon == nil || *e.Lon > *f.MaxLon) {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}
