package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/osiris/internal/server/response"
	"github.com/agentstation/osiris/internal/store"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/events"
)

// HandleEvents handles GET /api/v1/events.
//
// Query parameters: source, event_type, min_lat, max_lat, min_lon, max_lon,
// since (RFC3339; an unparseable value is ignored), limit and offset.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	page, err := h.client.Events(r.Context(), f)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, page)
}

func parseFilter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	f := store.Filter{
		Source: events.Source(q.Get("source")),
		Type:   events.Category(q.Get("event_type")),
	}

	bounds := []struct {
		name string
		dst  **float64
	}{
		{"min_lat", &f.MinLat},
		{"max_lat", &f.MaxLat},
		{"min_lon", &f.MinLon},
		{"max_lon", &f.MaxLon},
	}
	for _, b := range bounds {
		v, err := floatParam(r, b.name)
		if err != nil {
			return store.Filter{}, err
		}
		*b.dst = v
	}

	if raw := q.Get("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.Since = &t
		}
	}

	limit, err := intParam(r, "limit", constants.DefaultQueryLimit)
	if err != nil {
		return store.Filter{}, err
	}
	if limit == 0 {
		limit = constants.DefaultQueryLimit
	}
	f.Limit = min(limit, constants.MaxQueryLimit)

	if f.Offset, err = intParam(r, "offset", 0); err != nil {
		return store.Filter{}, err
	}
	return f, nil
}
