package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/osiris/internal/retrieval"
	"github.com/agentstation/osiris/internal/server/response"
	"github.com/agentstation/osiris/pkg/constants"
)

// maxSearchBody bounds the search request body.
const maxSearchBody = 1 << 16

// HandleSearch handles POST /api/v1/search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var q retrieval.Query
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody))
	if err := dec.Decode(&q); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	results, err := h.client.Search(r.Context(), q)
	if err != nil {
		h.logger.Debug().Err(err).Str("query", q.Text).Msg("Search failed")
		response.ErrorFromType(w, err)
		return
	}

	response.OK(w, map[string]any{
		"results": results,
		"total":   len(results),
	})
}

// HandleRelationships handles GET /api/v1/relationships/{id}.
func (h *Handlers) HandleRelationships(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", constants.DefaultRelatedLimit)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	related, err := h.client.Related(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, related)
}

// HandleEntities handles GET /api/v1/entities.
func (h *Handlers) HandleEntities(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", constants.DefaultEntityLimit)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	matches := h.client.Entities(r.URL.Query().Get("q"), limit)
	response.OK(w, map[string]any{
		"entities": matches,
		"total":    len(matches),
	})
}
