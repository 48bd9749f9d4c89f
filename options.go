package osiris

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/osiris/internal/embedding"
	"github.com/agentstation/osiris/internal/entities"
	"github.com/agentstation/osiris/internal/vectorindex"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/constants"
)

// options holds client configuration.
type options struct {
	connectors      []connectors.Connector
	otxAPIKey       string
	openSkyUser     string
	openSkyPassword string
	connectorRPS    float64

	autoUpdatesEnabled bool
	cyclePeriod        time.Duration
	retryDelay         time.Duration
	connectorTimeout   time.Duration
	maxConcurrent      int
	maxEvents          int

	embedder  embedding.Embedder
	index     vectorindex.Index
	extractor entities.Extractor

	dataDir string
	logger  *zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

func defaults() *options {
	return &options{
		cyclePeriod:      constants.DefaultCyclePeriod,
		retryDelay:       constants.CycleRetryDelay,
		connectorTimeout: constants.ConnectorTimeout,
		maxConcurrent:    constants.MaxConcurrentConnectors,
		maxEvents:        constants.MaxEvents,
	}
}

func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithConnectors replaces the built-in connector set. Registration order is
// the order given.
func WithConnectors(cs ...connectors.Connector) Option {
	return func(o *options) { o.connectors = cs }
}

// WithOTXAPIKey enables the AlienVault OTX connector.
func WithOTXAPIKey(key string) Option {
	return func(o *options) { o.otxAPIKey = key }
}

// WithOpenSkyCredentials authenticates the OpenSky connector, which
// otherwise runs anonymously.
func WithOpenSkyCredentials(username, password string) Option {
	return func(o *options) {
		o.openSkyUser = username
		o.openSkyPassword = password
	}
}

// WithConnectorRateLimit paces each built-in connector to rps requests per
// second. Zero keeps the default; negative disables pacing.
func WithConnectorRateLimit(rps float64) Option {
	return func(o *options) { o.connectorRPS = rps }
}

// WithAutoUpdates starts the scheduler as part of New.
func WithAutoUpdates(enabled bool) Option {
	return func(o *options) { o.autoUpdatesEnabled = enabled }
}

// WithAutoUpdateInterval sets the cycle period.
func WithAutoUpdateInterval(interval time.Duration) Option {
	return func(o *options) { o.cyclePeriod = interval }
}

// WithRetryDelay sets the pause after a cycle that failed outright.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.retryDelay = d }
}

// WithConnectorTimeout bounds each connector's fetch and enrichment.
func WithConnectorTimeout(d time.Duration) Option {
	return func(o *options) { o.connectorTimeout = d }
}

// WithMaxConcurrentFetches sets how many connectors run at once.
func WithMaxConcurrentFetches(n int) Option {
	return func(o *options) { o.maxConcurrent = n }
}

// WithMaxEvents sets the event store capacity.
func WithMaxEvents(n int) Option {
	return func(o *options) { o.maxEvents = n }
}

// WithEmbedder sets the embedding provider. The default is the local
// feature-hashing embedder.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithIndex sets the vector index. The default is an in-memory index.
func WithIndex(x vectorindex.Index) Option {
	return func(o *options) { o.index = x }
}

// WithExtractor sets the entity extractor.
func WithExtractor(x entities.Extractor) Option {
	return func(o *options) { o.extractor = x }
}

// WithDataDir enables the persistent cycle log under dir.
func WithDataDir(dir string) Option {
	return func(o *options) { o.dataDir = dir }
}

// WithLogger sets the logger used by every component.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}
