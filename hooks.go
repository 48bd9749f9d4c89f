package osiris

import (
	"context"
	"sync"

	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// CycleHook is called after every completed cycle.
type CycleHook func(report *cycle.Report)

// Hooks provides event callback registration.
type Hooks interface {
	// OnCycle registers a callback for completed cycles
	OnCycle(CycleHook)
}

// hooks manages cycle callbacks.
type hooks struct {
	mu      sync.RWMutex
	onCycle []CycleHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnCycle implements Hooks.
func (c *client) OnCycle(fn CycleHook) {
	c.hooks.add(fn)
}

func (h *hooks) add(fn CycleHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCycle = append(h.onCycle, fn)
}

// trigger calls every hook, isolating panics so one bad hook cannot stop
// the scheduler.
func (h *hooks) trigger(ctx context.Context, r *cycle.Report) {
	h.mu.RLock()
	fns := make([]CycleHook, len(h.onCycle))
	copy(fns, h.onCycle)
	h.mu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logging.FromContext(ctx).Error().Interface("panic", rec).Msg("Cycle hook panicked")
				}
			}()
			fn(r)
		}()
	}
}
