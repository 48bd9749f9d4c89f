package server

import (
	"net/http"

	"github.com/agentstation/osiris/internal/server/handlers"
	"github.com/agentstation/osiris/internal/server/middleware"
)

// setupRouter registers every route on a fresh mux.
func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()
	s.registerRoutes(mux, s.handlers())
	return mux
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Events and retrieval
	mux.HandleFunc("GET "+prefix+"/events", h.HandleEvents)
	mux.HandleFunc("POST "+prefix+"/search", h.HandleSearch)
	mux.HandleFunc("GET "+prefix+"/relationships/{id}", h.HandleRelationships)
	mux.HandleFunc("GET "+prefix+"/entities", h.HandleEntities)

	// Feeds and statistics
	mux.HandleFunc("GET "+prefix+"/feeds", h.HandleFeeds)
	mux.HandleFunc("POST "+prefix+"/feeds/refresh", h.HandleRefresh)
	mux.HandleFunc("GET "+prefix+"/stats", h.HandleStats)
	mux.HandleFunc("GET "+prefix+"/cycles", h.HandleCycles)

	// Live channels
	mux.HandleFunc("GET "+prefix+"/live/ws", h.HandleWebSocket)
	mux.HandleFunc("GET /ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/live/stream", h.HandleSSE)

	if s.config.MetricsEnabled {
		mux.Handle("GET /metrics", s.client.MetricsHandler())
	}
}

// applyMiddleware wraps handler with the middleware chain. Recovery is
// outermost so it also catches panics in other middleware.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	chain := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		corsConfig.AllowedOrigins = cfg.CORSOrigins
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig(cfg.PathPrefix)
		authConfig.APIKey = cfg.APIKey
		authConfig.HeaderName = cfg.AuthHeader
		chain = append(chain, middleware.Auth(authConfig, s.logger))
	}

	if s.limiter != nil {
		chain = append(chain, middleware.RateLimit(s.limiter))
	}

	return middleware.Chain(chain...)(handler)
}
