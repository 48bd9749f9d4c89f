// Package handlers provides HTTP request handlers for the osiris API.
package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/osiris"
	"github.com/agentstation/osiris/internal/server/cache"
	ws "github.com/agentstation/osiris/internal/server/websocket"
	"github.com/agentstation/osiris/pkg/errors"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client    osiris.Client
	cache     *cache.Cache
	upgrader  websocket.Upgrader
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a new Handlers instance.
func New(client osiris.Client, c *cache.Cache, logger *zerolog.Logger, startTime time.Time) *Handlers {
	return &Handlers{
		client:    client,
		cache:     c,
		upgrader:  ws.NewUpgrader(),
		logger:    logger,
		startTime: startTime,
	}
}

// intParam parses a non-negative integer query parameter, returning def
// when it is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError(name, raw, "must be a non-negative integer")
	}
	return n, nil
}

// floatParam parses an optional finite float query parameter.
func floatParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.NewValidationError(name, raw, "must be a finite number")
	}
	return &f, nil
}
