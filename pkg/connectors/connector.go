// Package connectors defines the contract every feed connector implements and
// the ordered registry the cycle runner iterates.
//
// Example usage:
//
//	reg := connectors.NewRegistry()
//	_ = reg.Register(usgs.New(client))
//	_ = reg.Register(otx.New(client, apiKey))
//
//	for _, c := range reg.List() {
//	    if !c.IsConfigured() {
//	        continue
//	    }
//	    evts, err := c.Fetch(ctx)
//	}
package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/osiris/pkg/events"
)

// Connector fetches recent events from one upstream feed.
type Connector interface {
	// Name is the unique registry key, used in FeedStatus.
	Name() string

	// Source is the feed identity stamped on emitted events.
	Source() events.Source

	// IsConfigured reports whether required credentials are present.
	IsConfigured() bool

	// Fetch returns the feed's current events. It must honor ctx cancellation.
	Fetch(ctx context.Context) ([]events.Event, error)
}

// Registry holds connectors in registration order.
type Registry struct {
	mu     sync.RWMutex
	order  []Connector
	byName map[string]Connector
}

// NewRegistry creates an empty registry, optionally pre-populated.
func NewRegistry(cs ...Connector) *Registry {
	r := &Registry{byName: make(map[string]Connector)}
	for _, c := range cs {
		_ = r.Register(c)
	}
	return r
}

// Register appends a connector. Names must be unique.
func (r *Registry) Register(c Connector) error {
	if c == nil {
		return fmt.Errorf("connectors: nil connector")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[c.Name()]; exists {
		return fmt.Errorf("connectors: %q already registered", c.Name())
	}
	r.byName[c.Name()] = c
	r.order = append(r.order, c)
	return nil
}

// Get returns a connector by name.
func (r *Registry) Get(name string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// List returns connectors in registration order.
func (r *Registry) List() []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connector, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered connectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
