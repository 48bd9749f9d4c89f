package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/agentstation/osiris/internal/server/sse"
	ws "github.com/agentstation/osiris/internal/server/websocket"
)

// HandleWebSocket handles GET /api/v1/live/ws and GET /ws. Each completed
// cycle pushes its newest events as one binary JSON array message.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient("ws-"+uuid.NewString(), conn, h.logger)
	h.client.Subscribe(client)
	h.logger.Info().
		Str("client_id", client.ID()).
		Int("total_subscribers", h.client.SubscriberCount()).
		Msg("WebSocket client connected")

	client.Serve()

	h.client.Unsubscribe(client)
	h.logger.Info().Str("client_id", client.ID()).Msg("WebSocket client disconnected")
}

// HandleSSE handles GET /api/v1/live/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	stream := sse.NewStream("sse-"+uuid.NewString(), h.logger)
	h.client.Subscribe(stream)
	defer h.client.Unsubscribe(stream)

	h.logger.Info().Str("client_id", stream.ID()).Msg("SSE client connected")
	stream.Serve(w, r)
	h.logger.Info().Str("client_id", stream.ID()).Msg("SSE client disconnected")
}
