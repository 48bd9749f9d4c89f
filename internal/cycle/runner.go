// Package cycle runs one aggregation pass over every registered connector.
//
// Each connector is isolated: a failure, panic or timeout in one is recorded
// on its FeedStatus and never affects the others. Fetches run on a bounded
// pool and results are concatenated in registration order.
package cycle

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/osiris/internal/embedding"
	"github.com/agentstation/osiris/internal/entities"
	"github.com/agentstation/osiris/internal/status"
	"github.com/agentstation/osiris/internal/vectorindex"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

// Enrichment stages.
const (
	StageEntities = "entities"
	StageEmbed    = "embed"
	StageIndex    = "index"
)

// Runner executes cycles. It mutates the status table and the index but
// never the event store.
type Runner struct {
	registry    *connectors.Registry
	status      *status.Table
	extractor   entities.Extractor
	embedder    embedding.Embedder
	index       vectorindex.Index
	logger      *zerolog.Logger
	timeout     time.Duration
	concurrency int
	now         func() time.Time

	seq atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithExtractor sets the entity extractor.
func WithExtractor(x entities.Extractor) Option {
	return func(r *Runner) { r.extractor = x }
}

// WithEmbedder sets the embedding provider.
func WithEmbedder(e embedding.Embedder) Option {
	return func(r *Runner) { r.embedder = e }
}

// WithIndex sets the vector index.
func WithIndex(x vectorindex.Index) Option {
	return func(r *Runner) { r.index = x }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTimeout bounds each connector's fetch plus enrichment.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithConcurrency sets how many connectors run at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner over reg that records into table.
func New(reg *connectors.Registry, table *status.Table, opts ...Option) *Runner {
	r := &Runner{
		registry:    reg,
		status:      table,
		logger:      logging.Default(),
		timeout:     constants.ConnectorTimeout,
		concurrency: constants.MaxConcurrentConnectors,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunCycle runs one cycle and returns its events in registration order.
func (r *Runner) RunCycle(ctx context.Context) []events.Event {
	return r.Run(ctx).Events
}

// Run runs one cycle and returns the full report.
func (r *Runner) Run(ctx context.Context) *Report {
	start := time.Now()
	report := &Report{Seq: r.seq.Add(1), StartedAt: r.now().UTC()}
	list := r.registry.List()

	type slot struct {
		outcome Outcome
		events  []events.Event
	}
	slots := make([]slot, len(list))

	p := pool.New().WithMaxGoroutines(r.concurrency)
	for i, c := range list {
		p.Go(func() {
			evts, outcome := r.runConnector(ctx, report.Seq, c)
			slots[i] = slot{outcome: outcome, events: evts}
		})
	}
	p.Wait()

	report.Outcomes = make([]Outcome, len(slots))
	report.Events = make([]events.Event, 0)
	for i, s := range slots {
		report.Outcomes[i] = s.outcome
		report.Events = append(report.Events, s.events...)
	}
	report.Duration = time.Since(start)

	r.logger.Info().
		Int64("cycle", report.Seq).
		Int("connectors", len(list)).
		Int("events", len(report.Events)).
		Int("failed", report.Failed()).
		Dur("duration", report.Duration).
		Msg("Cycle complete")

	return report
}

func (r *Runner) runConnector(ctx context.Context, seq int64, c connectors.Connector) (evts []events.Event, out Outcome) {
	start := time.Now()
	out = Outcome{Connector: c.Name(), Source: c.Source()}
	lctx := logging.WithCycle(logging.WithConnector(logging.WithLogger(ctx, r.logger), c.Name()), seq)
	log := logging.FromContext(lctx)

	defer func() {
		if rec := recover(); rec != nil {
			err := errors.NewFetchError(c.Name(), fmt.Errorf("panic: %v", rec))
			log.Error().Err(err).Msg("Connector panicked")
			r.status.RecordFailure(c, err)
			evts = nil
			out.Result, out.Events, out.Error = ResultFetchError, 0, err.Error()
		}
		out.Duration = time.Since(start)
	}()

	if !c.IsConfigured() {
		r.status.RecordUnconfigured(c)
		out.Result = ResultUnconfigured
		log.Debug().Msg("Connector not configured, skipping")
		return nil, out
	}

	cctx, cancel := context.WithTimeout(lctx, r.timeout)
	defer cancel()

	fetched, err := r.fetch(cctx, c)
	if err != nil {
		if errors.IsNotConfigured(err) {
			r.status.RecordUnconfigured(c)
			out.Result = ResultUnconfigured
			return nil, out
		}
		log.Warn().Err(err).Msg("Fetch failed")
		r.status.RecordFailure(c, err)
		out.Result, out.Error = ResultFetchError, err.Error()
		return nil, out
	}

	enriched, err := r.enrich(cctx, c, fetched)
	if err != nil {
		log.Warn().Err(err).Int("dropped", len(fetched)).Msg("Enrichment failed")
		r.status.RecordFailure(c, err)
		out.Result, out.Error = ResultEnrichError, err.Error()
		return nil, out
	}

	r.status.RecordSuccess(c, len(enriched), r.now())
	out.Result, out.Events = ResultOK, len(enriched)
	log.Debug().Int("events", len(enriched)).Msg("Connector complete")
	return enriched, out
}

type fetchResult struct {
	events []events.Event
	err    error
}

// fetch enforces the deadline even when a connector ignores ctx. A connector
// that overruns is abandoned; its goroutine exits whenever Fetch returns.
func (r *Runner) fetch(ctx context.Context, c connectors.Connector) ([]events.Event, error) {
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fetchResult{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		evts, err := c.Fetch(ctx)
		done <- fetchResult{events: evts, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, errors.WrapFetch(c.Name(), res.err)
		}
		return res.events, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewFetchError(c.Name(),
				errors.NewTimeoutError("fetch", r.timeout.String(), "connector did not respond"))
		}
		return nil, errors.NewFetchError(c.Name(), ctx.Err())
	}
}

// enrich attaches entities, embeds the batch and upserts it. Any stage
// failure fails the whole batch.
func (r *Runner) enrich(ctx context.Context, c connectors.Connector, fetched []events.Event) ([]events.Event, error) {
	out := make([]events.Event, len(fetched))
	for i, e := range fetched {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Source == "" {
			e.Source = c.Source()
		}
		if e.GeometryType == "" {
			e.GeometryType = events.GeometryPoint
		}
		out[i] = e
	}
	if len(out) == 0 {
		return out, nil
	}

	if r.extractor != nil {
		for i, e := range out {
			ents, err := r.extractor.Extract(ctx, e.Text())
			if err != nil {
				logging.FromContext(logging.WithEventID(ctx, e.ID)).Debug().Err(err).Msg("Entity extraction failed")
				return nil, errors.NewEnrichmentError(c.Name(), StageEntities, err)
			}
			out[i] = e.WithEntities(ents)
		}
	}

	if r.embedder == nil || r.index == nil {
		return out, nil
	}

	texts := make([]string, len(out))
	for i, e := range out {
		texts[i] = e.Text()
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err == nil {
		err = embedding.CheckBatch(vectors, len(texts), r.embedder.Dimensions())
	}
	if err != nil {
		return nil, errors.NewEnrichmentError(c.Name(), StageEmbed, err)
	}

	points := make([]vectorindex.Point, len(out))
	for i := range out {
		points[i] = vectorindex.Point{Event: out[i], Vector: vectors[i]}
	}
	if err := r.index.Upsert(ctx, points); err != nil {
		return nil, errors.NewEnrichmentError(c.Name(), StageIndex, err)
	}
	return out, nil
}
