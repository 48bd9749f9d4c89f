// Package server provides the HTTP API for the osiris aggregation core:
// JSON query endpoints, a manual refresh trigger, live WebSocket and SSE
// channels, and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/osiris"
	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/internal/server/cache"
	"github.com/agentstation/osiris/internal/server/handlers"
	"github.com/agentstation/osiris/internal/server/middleware"
	"github.com/agentstation/osiris/pkg/errors"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client  osiris.Client
	cache   *cache.Cache
	limiter *middleware.RateLimiter
	logger  *zerolog.Logger
	config  Config

	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// New creates a server over client. Cached responses are flushed after
// every completed cycle.
func New(client osiris.Client, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if client == nil {
		return nil, errors.NewValidationError("client", nil, "client is required")
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultConfig().PathPrefix
	}
	if cfg.AuthEnabled && cfg.APIKey == "" {
		return nil, errors.NewConfigurationError("server", "auth enabled without an API key", nil)
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = DefaultConfig().AuthHeader
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		client:    client,
		cache:     cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	client.OnCycle(func(*cycle.Report) {
		s.cache.Flush()
	})

	logger.Debug().
		Str("prefix", cfg.PathPrefix).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Server instance created")
	return s, nil
}

// Start starts background maintenance. It does not listen; see ListenAndServe.
func (s *Server) Start() {
	if s.limiter != nil {
		go s.limiter.Run(s.ctx, 5*time.Minute)
	}
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.setupRouter())
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts it
// down within the given grace period.
func (s *Server) ListenAndServe(ctx context.Context, grace time.Duration) error {
	s.Start()
	defer s.cancel()

	srv := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return s.ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Str("prefix", s.config.PathPrefix).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	// Live streams block Shutdown; canceling the base context ends them.
	s.cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.NewTimeoutError("http shutdown", grace.String(), err.Error())
	}
	return nil
}

// Shutdown stops background maintenance.
func (s *Server) Shutdown(context.Context) error {
	s.cancel()
	return nil
}

// Cache returns the server's response cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}

func (s *Server) handlers() *handlers.Handlers {
	return handlers.New(s.client, s.cache, s.logger, s.startTime)
}
