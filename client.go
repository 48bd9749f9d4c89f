// Package osiris aggregates open-source intelligence feeds into a bounded,
// queryable event stream.
//
// A Client runs aggregation cycles over a set of connectors, keeps the most
// recent events in memory, indexes them for semantic search and pushes each
// cycle's new events to live subscribers.
//
// Example usage:
//
//	c, err := osiris.New(osiris.WithAutoUpdateInterval(5 * time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Shutdown(context.Background())
//
//	c.OnCycle(func(r *cycle.Report) {
//	    log.Printf("cycle %d ingested %d events", r.Seq, len(r.Events))
//	})
//
//	n, err := c.Refresh(ctx)
//	page, err := c.Events(ctx, store.Filter{Source: events.SourceUSGS, Limit: 50})
//	results, err := c.Search(ctx, retrieval.Query{Text: "earthquake near Tokyo"})
package osiris

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/osiris/internal/broadcast"
	"github.com/agentstation/osiris/internal/connectors/builtin"
	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/internal/cyclelog"
	"github.com/agentstation/osiris/internal/embedding/hashing"
	"github.com/agentstation/osiris/internal/entities"
	"github.com/agentstation/osiris/internal/metrics"
	"github.com/agentstation/osiris/internal/retrieval"
	"github.com/agentstation/osiris/internal/scheduler"
	"github.com/agentstation/osiris/internal/status"
	"github.com/agentstation/osiris/internal/store"
	"github.com/agentstation/osiris/internal/vectorindex/memory"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

// Client is the aggregation core.
type Client interface {

	// Querier reads the event store
	Querier

	// Searcher answers semantic queries
	Searcher

	// Reporter exposes feed status and statistics
	Reporter

	// Refresh runs a cycle now and returns how many events it ingested
	Refresh(ctx context.Context) (int, error)

	// Live manages live subscribers
	Live

	// AutoUpdater controls the periodic cycle loop
	AutoUpdater

	// Hooks provides access to event callback registration
	Hooks

	// MetricsHandler serves Prometheus metrics
	MetricsHandler() http.Handler

	// Shutdown stops the scheduler, closes subscribers and releases storage
	Shutdown(ctx context.Context) error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options
	logger  *zerolog.Logger

	registry    *connectors.Registry
	store       *store.Store
	status      *status.Table
	runner      *cycle.Runner
	scheduler   *scheduler.Scheduler
	broadcaster *broadcast.Broadcaster
	gateway     *retrieval.Gateway
	metrics     *metrics.Metrics
	cycleLog    *cyclelog.Log

	hooks *hooks

	updateMu     sync.Mutex
	updateCancel context.CancelFunc
	updateDone   chan struct{}
}

// New creates a Client. The scheduler only starts when WithAutoUpdates(true)
// is given or AutoUpdatesOn is called.
func New(opts ...Option) (Client, error) {
	o := defaults().apply(opts...)
	if o.maxEvents <= 0 {
		return nil, errors.NewValidationError("maxEvents", o.maxEvents, "must be positive")
	}

	c := &client{options: o, hooks: newHooks()}

	c.logger = o.logger
	if c.logger == nil {
		c.logger = logging.Default()
	}

	if o.connectors != nil {
		c.registry = connectors.NewRegistry()
		for _, conn := range o.connectors {
			if err := c.registry.Register(conn); err != nil {
				return nil, errors.WrapValidation("connectors", err)
			}
		}
	} else {
		c.registry = builtin.Registry(builtin.Config{
			OTXAPIKey:         o.otxAPIKey,
			OpenSkyUsername:   o.openSkyUser,
			OpenSkyPassword:   o.openSkyPassword,
			RequestsPerSecond: o.connectorRPS,
		})
	}

	if o.embedder == nil {
		o.embedder = hashing.New(constants.EmbeddingDimensions)
	}
	if o.index == nil {
		o.index = memory.New(o.maxEvents)
	}
	if o.extractor == nil {
		o.extractor = entities.NewRuleExtractor()
	}

	c.store = store.New(o.maxEvents)
	c.status = status.NewTable()
	c.metrics = metrics.New()
	c.broadcaster = broadcast.New(
		broadcast.WithLogger(c.logger),
		broadcast.WithPruneHook(func(string, error) { c.metrics.IncDrops() }),
	)
	c.gateway = retrieval.New(o.embedder, o.index, c.store, c.logger)

	c.runner = cycle.New(c.registry, c.status,
		cycle.WithExtractor(o.extractor),
		cycle.WithEmbedder(o.embedder),
		cycle.WithIndex(o.index),
		cycle.WithTimeout(o.connectorTimeout),
		cycle.WithConcurrency(o.maxConcurrent),
		cycle.WithLogger(c.logger),
	)

	if o.dataDir != "" {
		l, err := cyclelog.Open(o.dataDir, constants.MaxCycleLogRows)
		if err != nil {
			return nil, errors.WrapResource("open", "cycle log", o.dataDir, err)
		}
		c.cycleLog = l
	}

	c.scheduler = scheduler.New(c.runner, c.store,
		scheduler.WithPeriod(o.cyclePeriod),
		scheduler.WithRetryDelay(o.retryDelay),
		scheduler.WithPublisher(&meteredPublisher{b: c.broadcaster, m: c.metrics}),
		scheduler.WithObserver(c.afterCycle),
		scheduler.WithLogger(c.logger),
	)

	c.logger.Debug().
		Int("connectors", c.registry.Len()).
		Int("max_events", o.maxEvents).
		Str("embedder", o.embedder.ModelName()).
		Msg("Client created")

	if o.autoUpdatesEnabled {
		if err := c.AutoUpdatesOn(); err != nil {
			return nil, errors.WrapResource("start", "auto-updates", "", err)
		}
	}
	return c, nil
}

func (c *client) afterCycle(ctx context.Context, r *cycle.Report) {
	c.metrics.ObserveCycle(r)
	c.metrics.SetStoreSize(c.store.Len())
	c.metrics.SetSubscribers(c.broadcaster.Count())

	if c.cycleLog != nil {
		if err := c.cycleLog.Record(ctx, r); err != nil {
			c.logger.Warn().Err(err).Int64("cycle", r.Seq).Msg("Failed to record cycle")
		}
	}
	c.hooks.trigger(ctx, r)
}

// Refresh implements Client.
func (c *client) Refresh(ctx context.Context) (int, error) {
	return c.scheduler.TriggerNow(ctx)
}

// MetricsHandler implements Client.
func (c *client) MetricsHandler() http.Handler {
	return c.metrics.Handler()
}

// Shutdown implements Client.
func (c *client) Shutdown(ctx context.Context) error {
	err := c.stopUpdates(ctx)
	c.broadcaster.Shutdown()
	if c.cycleLog != nil {
		if cerr := c.cycleLog.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

// meteredPublisher counts deliveries on the way through.
type meteredPublisher struct {
	b *broadcast.Broadcaster
	m *metrics.Metrics
}

func (p *meteredPublisher) Broadcast(ctx context.Context, evts []events.Event) (int, error) {
	n, err := p.b.Broadcast(ctx, evts)
	p.m.AddPushes(n)
	return n, err
}
