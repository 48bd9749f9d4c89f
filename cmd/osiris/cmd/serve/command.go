// Package serve provides the command that runs the aggregation loop behind
// the HTTP API.
package serve

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/osiris/internal/cmd/application"
	"github.com/agentstation/osiris/internal/cmd/cmdutil"
	"github.com/agentstation/osiris/internal/cmd/emoji"
	"github.com/agentstation/osiris/internal/server"
	"github.com/agentstation/osiris/pkg/constants"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Run the scheduler and the REST API with live channels",
		Long: `Start the aggregation scheduler and the HTTP API.

Features:
  - Event queries, semantic search, relationships and entity lookup
  - WebSocket live channel (/api/v1/live/ws, alias /ws)
  - Server-Sent Events live channel (/api/v1/live/stream)
  - Manual refresh (POST /api/v1/feeds/refresh)
  - Feed status, statistics and cycle history
  - Response caching flushed after every cycle
  - Per-IP rate limiting, optional API key auth and CORS
  - Prometheus metrics (/metrics)
  - Graceful shutdown on SIGINT/SIGTERM`,
		Example: `  # Start on the default address 0.0.0.0:8000
  osiris serve

  # Require an API key (read from OSIRIS_API_KEY)
  osiris serve --auth

  # Allow a browser dashboard
  osiris serve --cors-origins "https://dash.example.com"

  # Serve the API without the periodic scheduler
  osiris serve --auto-updates=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app)
		},
	}

	cmd.Flags().IntP("port", "p", constants.DefaultPort, "Server port")
	cmd.Flags().String("host", constants.DefaultHost, "Bind address")

	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Bool("auth", false, "Require an API key (OSIRIS_API_KEY)")
	cmd.Flags().String("auth-header", server.DefaultConfig().AuthHeader, "Authentication header name")

	cmd.Flags().Int("rate-limit", constants.DefaultRateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Int("cache-ttl", int(constants.DefaultCacheTTL/time.Second), "Cache TTL in seconds (0 to disable)")

	defaults := server.DefaultConfig()
	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout (0 keeps live streams open)")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().Bool("metrics", true, "Enable the /metrics endpoint")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().Bool("auto-updates", true, "Run aggregation cycles on the configured period")

	return cmd
}

func run(cmd *cobra.Command, app application.Application) error {
	cfg := parseConfig(cmd, app.APIKey())
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}

	if cmdutil.MustGetBool(cmd, "auto-updates") {
		if err := client.AutoUpdatesOn(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
	}

	srv, err := server.New(client, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info().
		Str("addr", srv.Addr()).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Starting API server")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s osiris listening on %s\n", emoji.Live, srv.Addr())
	fmt.Fprintln(out, "   Press Ctrl+C to stop")

	if err := srv.ListenAndServe(cmd.Context(), constants.ShutdownDeadline); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s osiris stopped\n", emoji.Stop)
	return nil
}

// parseConfig reads the flags into a server configuration. HTTP_PORT and
// HTTP_HOST override the flags when set.
func parseConfig(cmd *cobra.Command, apiKey string) server.Config {
	port := cmdutil.MustGetInt(cmd, "port")
	host := cmdutil.MustGetString(cmd, "host")

	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		if p, err := parsePort(envPort); err == nil {
			port = p
		}
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		host = envHost
	}

	origins := cmdutil.MustGetStringSlice(cmd, "cors-origins")
	return server.Config{
		Host:           host,
		Port:           port,
		PathPrefix:     cmdutil.MustGetString(cmd, "prefix"),
		CORSEnabled:    cmdutil.MustGetBool(cmd, "cors") || len(origins) > 0,
		CORSOrigins:    origins,
		AuthEnabled:    cmdutil.MustGetBool(cmd, "auth"),
		AuthHeader:     cmdutil.MustGetString(cmd, "auth-header"),
		APIKey:         apiKey,
		RateLimit:      cmdutil.MustGetInt(cmd, "rate-limit"),
		CacheTTL:       time.Duration(cmdutil.MustGetInt(cmd, "cache-ttl")) * time.Second,
		ReadTimeout:    cmdutil.MustGetDuration(cmd, "read-timeout"),
		WriteTimeout:   cmdutil.MustGetDuration(cmd, "write-timeout"),
		IdleTimeout:    cmdutil.MustGetDuration(cmd, "idle-timeout"),
		MetricsEnabled: cmdutil.MustGetBool(cmd, "metrics"),
	}
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}
