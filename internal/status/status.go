// Package status tracks the latest FeedStatus per connector.
package status

import (
	"slices"
	"sync"
	"time"

	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
)

// Table is keyed by connector name. Each cycle overwrites the previous record.
type Table struct {
	mu      sync.RWMutex
	entries map[string]events.FeedStatus
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]events.FeedStatus)}
}

// Set replaces the status for s.Name.
func (t *Table) Set(s events.FeedStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[s.Name] = s
}

// RecordUnconfigured marks a connector as skipped for missing credentials.
func (t *Table) RecordUnconfigured(c connectors.Connector) {
	t.Set(events.FeedStatus{
		Name:       c.Name(),
		Source:     c.Source(),
		Enabled:    true,
		Configured: false,
	})
}

// RecordSuccess marks a successful fetch of n events at ts.
func (t *Table) RecordSuccess(c connectors.Connector, n int, ts time.Time) {
	ts = ts.UTC()
	t.Set(events.FeedStatus{
		Name:       c.Name(),
		Source:     c.Source(),
		Enabled:    true,
		Configured: true,
		LastFetch:  &ts,
		EventCount: n,
	})
}

// RecordFailure marks a failed fetch or enrichment.
func (t *Table) RecordFailure(c connectors.Connector, err error) {
	msg := err.Error()
	t.Set(events.FeedStatus{
		Name:       c.Name(),
		Source:     c.Source(),
		Enabled:    true,
		Configured: true,
		Error:      &msg,
	})
}

// Get returns the recorded status for name.
func (t *Table) Get(name string) (events.FeedStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.entries[name]
	return s, ok
}

// Snapshot returns one status per registered connector in registration
// order. Connectors that never ran get a default status.
func (t *Table) Snapshot(reg *connectors.Registry) []events.FeedStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]events.FeedStatus, 0, reg.Len())
	for _, c := range reg.List() {
		if s, ok := t.entries[c.Name()]; ok {
			out = append(out, s)
			continue
		}
		out = append(out, events.FeedStatus{
			Name:       c.Name(),
			Source:     c.Source(),
			Enabled:    true,
			Configured: c.IsConfigured(),
		})
	}
	return out
}

// Sources splits statuses into sorted, deduplicated active and unavailable
// source lists.
func Sources(statuses []events.FeedStatus) (active, unavailable []events.Source) {
	active, unavailable = []events.Source{}, []events.Source{}
	for _, s := range statuses {
		if s.EventCount > 0 {
			active = append(active, s.Source)
		}
		if s.Unavailable() {
			unavailable = append(unavailable, s.Source)
		}
	}
	slices.Sort(active)
	slices.Sort(unavailable)
	return slices.Compact(active), slices.Compact(unavailable)
}
