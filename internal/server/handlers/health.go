package handlers

import (
	"net/http"

	"github.com/agentstation/osiris/internal/server/response"
)

// HandleHealth handles GET /health and GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "osiris",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready. The service is ready once any
// connector has completed a fetch.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	feeds := h.client.Feeds()

	fetched := 0
	for _, f := range feeds {
		if f.LastFetch != nil {
			fetched++
		}
	}
	if fetched == 0 {
		response.ServiceUnavailable(w, "No feed has completed a fetch yet")
		return
	}

	response.OK(w, map[string]any{
		"status":      "ready",
		"feeds":       len(feeds),
		"feeds_ready": fetched,
		"subscribers": h.client.SubscriberCount(),
		"cache":       h.cache.Stats(),
	})
}
