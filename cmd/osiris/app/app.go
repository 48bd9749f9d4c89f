// Package app wires configuration, logging and the osiris client for the
// osiris CLI.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/osiris"
	"github.com/agentstation/osiris/internal/cmd/application"
	"github.com/agentstation/osiris/internal/embedding"
	"github.com/agentstation/osiris/internal/embedding/gemini"
	"github.com/agentstation/osiris/internal/embedding/hashing"
	"github.com/agentstation/osiris/internal/embedding/openai"
	"github.com/agentstation/osiris/internal/vectorindex/qdrant"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/logging"
)

var _ application.Application = (*App)(nil)

// App holds the CLI dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// client is created on first use and shared by every command.
	mu     sync.RWMutex
	client osiris.Client
}

// Option configures an App.
type Option func(*App) error

// WithConfig replaces the loaded configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger replaces the configured logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets the client instead of building one from configuration.
func WithClient(c osiris.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// New loads configuration and creates the logger.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	a := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	logging.ConfigureFromEnv()

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	a.config = config

	logger := NewLogger(config)
	a.logger = &logger

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Version implements application.Application.
func (a *App) Version() string { return a.version }

// Commit implements application.Application.
func (a *App) Commit() string { return a.commit }

// Date implements application.Application.
func (a *App) Date() string { return a.date }

// BuiltBy implements application.Application.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the configuration.
func (a *App) Config() *Config { return a.config }

// Logger implements application.Application.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat implements application.Application.
func (a *App) OutputFormat() string { return a.config.Format }

// APIKey implements application.Application.
func (a *App) APIKey() string { return a.config.APIKey }

// Client implements application.Application.
func (a *App) Client() (osiris.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	opts, err := a.clientOptions()
	if err != nil {
		return nil, err
	}
	c, err := osiris.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = c
	return c, nil
}

// Shutdown stops the client if one was created.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.RLock()
	c := a.client
	a.mu.RUnlock()
	if c == nil {
		return nil
	}
	return c.Shutdown(ctx)
}

func (a *App) clientOptions() ([]osiris.Option, error) {
	cfg := a.config
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapValidation("config", err)
	}

	embedder, err := a.embedder()
	if err != nil {
		return nil, err
	}

	opts := []osiris.Option{
		osiris.WithLogger(a.logger),
		osiris.WithOTXAPIKey(cfg.OTXAPIKey),
		osiris.WithOpenSkyCredentials(cfg.OpenSkyUsername, cfg.OpenSkyPassword),
		osiris.WithConnectorRateLimit(cfg.ConnectorRateLimit),
		osiris.WithAutoUpdateInterval(cfg.CyclePeriod),
		osiris.WithConnectorTimeout(cfg.ConnectorTimeout),
		osiris.WithMaxConcurrentFetches(cfg.MaxConcurrentFetches),
		osiris.WithMaxEvents(cfg.MaxEvents),
		osiris.WithEmbedder(embedder),
	}

	if cfg.QdrantURL != "" {
		index, err := qdrant.New(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dimensions: embedder.Dimensions(),
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, osiris.WithIndex(index))
		a.logger.Debug().Str("url", cfg.QdrantURL).Str("collection", cfg.QdrantCollection).Msg("Using Qdrant index")
	}

	if cfg.DataDir != "" {
		opts = append(opts, osiris.WithDataDir(cfg.DataDir))
	}
	return opts, nil
}

func (a *App) embedder() (embedding.Embedder, error) {
	cfg := a.config
	switch cfg.EmbeddingProvider {
	case EmbeddingOpenAI:
		return openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
			Timeout:    constants.EmbeddingTimeout,
		})
	case EmbeddingGemini:
		return gemini.New(gemini.Config{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
		})
	default:
		return hashing.New(cfg.EmbeddingDimensions), nil
	}
}
