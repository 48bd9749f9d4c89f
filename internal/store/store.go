// Package store is the bounded, newest-first in-memory event cache.
//
// Prepend is the only mutator. It builds the next slice without holding the
// read lock and swaps it in under the write lock, so readers always see a
// complete pre- or post-prepend snapshot.
package store

import (
	"strings"
	"sync"

	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
)

// Store holds at most Capacity events, newest first.
type Store struct {
	capacity int

	writeMu sync.Mutex // serializes Prepend
	mu      sync.RWMutex
	items   []events.Event
}

// New creates a store. A capacity <= 0 selects constants.MaxEvents.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = constants.MaxEvents
	}
	return &Store{capacity: capacity}
}

// Capacity returns the maximum number of retained events.
func (s *Store) Capacity() int {
	return s.capacity
}

// Prepend inserts batch ahead of existing events and truncates the tail.
// Order within batch is preserved.
func (s *Store) Prepend(batch []events.Event) error {
	if len(batch) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.snapshot()

	n := min(len(batch)+len(current), s.capacity)
	next := make([]events.Event, 0, n)
	for _, e := range batch {
		if len(next) == n {
			break
		}
		next = append(next, e.Clone())
	}
	next = append(next, current[:n-len(next)]...)

	if len(next) > s.capacity {
		return &errors.StoreInvariantViolation{Invariant: "capacity", Length: len(next), Capacity: s.capacity}
	}

	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
	return nil
}

// snapshot returns the current slice. Callers must not modify it.
func (s *Store) snapshot() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	return len(s.snapshot())
}

// All returns a copy of every stored event, newest first.
func (s *Store) All() []events.Event {
	items := s.snapshot()
	out := make([]events.Event, len(items))
	copy(out, items)
	return out
}

// Get returns the event with the given ID.
func (s *Store) Get(id string) (events.Event, bool) {
	for _, e := range s.snapshot() {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return events.Event{}, false
}

// Query returns the page of events matching f and the match count before
// pagination.
func (s *Store) Query(f Filter) ([]events.Event, int) {
	items := s.snapshot()

	page := make([]events.Event, 0)
	total := 0
	for _, e := range items {
		if !f.Match(e) {
			continue
		}
		if total >= f.Offset && (f.Limit <= 0 || len(page) < f.Limit) {
			page = append(page, e.Clone())
		}
		total++
	}
	return page, total
}

// Counts holds per-source and per-type event counts.
type Counts struct {
	BySource map[events.Source]int   `json:"by_source"`
	ByType   map[events.Category]int `json:"by_type"`
}

// CountBy tallies stored events by source and type.
func (s *Store) CountBy() Counts {
	c := Counts{
		BySource: make(map[events.Source]int),
		ByType:   make(map[events.Category]int),
	}
	for _, e := range s.snapshot() {
		c.BySource[e.Source]++
		c.ByType[e.Type]++
	}
	return c
}

// EntityMatch is one entity hit from SearchEntities.
type EntityMatch struct {
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	EventID    string        `json:"event_id"`
	EventTitle string        `json:"event_title"`
	Source     events.Source `json:"source"`
}

// SearchEntities returns entities whose name contains q, case-insensitively.
// Each name appears once, attributed to the newest event that mentions it.
func (s *Store) SearchEntities(q string, limit int) []EntityMatch {
	if limit <= 0 {
		limit = constants.DefaultEntityLimit
	}
	needle := strings.ToLower(q)
	seen := make(map[string]struct{})
	out := make([]EntityMatch, 0)

	for _, e := range s.snapshot() {
		for _, ent := range e.Entities {
			if _, dup := seen[ent.Name]; dup {
				continue
			}
			if !strings.Contains(strings.ToLower(ent.Name), needle) {
				continue
			}
			seen[ent.Name] = struct{}{}
			out = append(out, EntityMatch{
				Name:       ent.Name,
				Type:       ent.Type,
				EventID:    e.ID,
				EventTitle: e.Title,
				Source:     e.Source,
			})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}
