package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/agentstation/osiris"
	"github.com/agentstation/osiris/internal/server/cache"
	"github.com/agentstation/osiris/internal/server/response"
	"github.com/agentstation/osiris/pkg/constants"
)

// HandleFeeds handles GET /api/v1/feeds.
func (h *Handlers) HandleFeeds(w http.ResponseWriter, _ *http.Request) {
	feeds, _ := h.cache.Remember(cache.KeyFeeds, func() (any, error) {
		return h.client.Feeds(), nil
	})
	response.OK(w, map[string]any{"feeds": feeds})
}

// HandleRefresh handles POST /api/v1/feeds/refresh. It runs one cycle,
// waiting for any cycle already in flight.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.client.Refresh(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	h.cache.Flush()

	response.OK(w, map[string]any{
		"message": fmt.Sprintf("Ingested %d events", n),
		"count":   n,
	})
}

// statsResponse flattens the aggregate counts next to server details.
type statsResponse struct {
	osiris.Stats
	UptimeSeconds int64       `json:"uptime_seconds"`
	Goroutines    int         `json:"goroutines"`
	Cache         cache.Stats `json:"cache"`
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	v, err := h.cache.Remember(cache.KeyStats, func() (any, error) {
		return h.client.Stats(r.Context())
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	response.OK(w, statsResponse{
		Stats:         v.(osiris.Stats),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		Cache:         h.cache.Stats(),
	})
}

// HandleCycles handles GET /api/v1/cycles.
func (h *Handlers) HandleCycles(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", constants.DefaultCycleLogLimit)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	entries, err := h.client.Cycles(r.Context(), limit)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{
		"cycles": entries,
		"total":  len(entries),
	})
}
