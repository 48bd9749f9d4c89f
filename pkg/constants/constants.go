// Package constants provides shared constants used throughout osiris.
// This includes timeouts, limits, file permissions, and retrieval defaults
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to upstream feeds
	DefaultHTTPTimeout = 30 * time.Second

	// ConnectorTimeout bounds a single connector's fetch and enrichment
	ConnectorTimeout = 60 * time.Second

	// DefaultCyclePeriod is the interval between scheduled aggregation cycles
	DefaultCyclePeriod = 5 * time.Minute

	// CycleRetryDelay is how long the scheduler waits after a crashed cycle
	CycleRetryDelay = 10 * time.Second

	// ShutdownDeadline bounds graceful shutdown of the scheduler and server
	ShutdownDeadline = 30 * time.Second

	// PushTimeout bounds a single push to a live subscriber
	PushTimeout = 5 * time.Second

	// EmbeddingTimeout is the timeout for a remote embedding request
	EmbeddingTimeout = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Store and fan-out limits
const (
	// MaxEvents is the capacity of the bounded event store
	MaxEvents = 10000

	// BroadcastBatchSize caps how many events one live push carries
	BroadcastBatchSize = 50

	// MaxConcurrentConnectors is the size of the fetch worker pool
	MaxConcurrentConnectors = 4

	// MaxCycleLogRows is how many cycle records the cycle log retains
	MaxCycleLogRows = 500
)

// Connector request pacing, applied per connector
const (
	// ConnectorRequestsPerSecond is the sustained request rate to one upstream
	ConnectorRequestsPerSecond = 2.0

	// ConnectorRequestBurst is how many requests may go out back to back
	ConnectorRequestBurst = 4
)

// Query limits for the read interfaces
const (
	// DefaultQueryLimit is the default page size for event queries
	DefaultQueryLimit = 500

	// MaxQueryLimit caps the page size for event queries
	MaxQueryLimit = 5000

	// DefaultSearchLimit is the default number of semantic search results
	DefaultSearchLimit = 100

	// DefaultRelatedLimit is the default number of related events
	DefaultRelatedLimit = 20

	// DefaultEntityLimit is the default number of entity matches
	DefaultEntityLimit = 50

	// DefaultCycleLogLimit is the default number of cycle records returned
	DefaultCycleLogLimit = 20
)

// Retrieval and enrichment defaults
const (
	// DefaultScoreThreshold is the minimum similarity for search results
	DefaultScoreThreshold = 0.5

	// RelatedScoreThreshold is the minimum similarity for related events
	RelatedScoreThreshold = 0.3

	// EmbeddingDimensions is the default vector size
	EmbeddingDimensions = 384

	// EntityInputCap is the maximum number of characters fed to the entity extractor
	EntityInputCap = 10000

	// DefaultCollection is the default vector index collection name
	DefaultCollection = "osiris_events"
)

// HTTP server defaults
const (
	// DefaultHost is the default listen host
	DefaultHost = "0.0.0.0"

	// DefaultPort is the default listen port
	DefaultPort = 8000

	// DefaultRateLimit is the default per-IP request budget per minute
	DefaultRateLimit = 100

	// DefaultCacheTTL is the default response cache TTL
	DefaultCacheTTL = 30 * time.Second
)
