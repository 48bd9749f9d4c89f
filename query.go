package osiris

import (
	"context"

	"github.com/agentstation/osiris/internal/cyclelog"
	"github.com/agentstation/osiris/internal/retrieval"
	"github.com/agentstation/osiris/internal/status"
	"github.com/agentstation/osiris/internal/store"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/events"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ Querier  = (*client)(nil)
	_ Searcher = (*client)(nil)
	_ Reporter = (*client)(nil)
)

// EventsPage is one page of filtered events plus feed availability.
type EventsPage struct {
	Events             []events.Event  `json:"events"`
	Total              int             `json:"total"`
	SourcesActive      []events.Source `json:"sources_active"`
	SourcesUnavailable []events.Source `json:"sources_unavailable"`
}

// RelatedResult is an event and its nearest neighbors.
type RelatedResult struct {
	Event   events.Event       `json:"event"`
	Related []retrieval.Result `json:"related"`
}

// Stats summarizes the store, the index and feed health.
type Stats struct {
	TotalEvents   int                     `json:"total_events"`
	VectorDBCount int                     `json:"vector_db_count"`
	BySource      map[events.Source]int   `json:"by_source"`
	ByType        map[events.Category]int `json:"by_type"`
	ActiveFeeds   int                     `json:"active_feeds"`
	TotalFeeds    int                     `json:"total_feeds"`
	Subscribers   int                     `json:"subscribers"`
}

// Querier reads the event store.
type Querier interface {
	// Events returns a filtered page and the pre-pagination total
	Events(ctx context.Context, f store.Filter) (EventsPage, error)

	// Entities searches extracted entity names
	Entities(q string, limit int) []store.EntityMatch
}

// Searcher answers semantic queries.
type Searcher interface {
	// Search ranks indexed events against free text
	Search(ctx context.Context, q retrieval.Query) ([]retrieval.Result, error)

	// Related returns events similar to the one with id
	Related(ctx context.Context, id string, limit int) (RelatedResult, error)
}

// Reporter exposes feed status and statistics.
type Reporter interface {
	// Feeds returns one status per connector in registration order
	Feeds() []events.FeedStatus

	// Stats returns aggregate counts
	Stats(ctx context.Context) (Stats, error)

	// Cycles returns recent cycle log entries, newest first
	Cycles(ctx context.Context, limit int) ([]cyclelog.Entry, error)
}

// Events implements Querier.
func (c *client) Events(_ context.Context, f store.Filter) (EventsPage, error) {
	evts, total := c.store.Query(f)
	active, unavailable := status.Sources(c.Feeds())
	return EventsPage{
		Events:             evts,
		Total:              total,
		SourcesActive:      active,
		SourcesUnavailable: unavailable,
	}, nil
}

// Entities implements Querier.
func (c *client) Entities(q string, limit int) []store.EntityMatch {
	if limit <= 0 {
		limit = constants.DefaultEntityLimit
	}
	return c.store.SearchEntities(q, limit)
}

// Search implements Searcher.
func (c *client) Search(ctx context.Context, q retrieval.Query) ([]retrieval.Result, error) {
	return c.gateway.Search(ctx, q)
}

// Related implements Searcher.
func (c *client) Related(ctx context.Context, id string, limit int) (RelatedResult, error) {
	event, related, err := c.gateway.FindRelated(ctx, id, limit)
	if err != nil {
		return RelatedResult{}, err
	}
	return RelatedResult{Event: event, Related: related}, nil
}

// Feeds implements Reporter.
func (c *client) Feeds() []events.FeedStatus {
	return c.status.Snapshot(c.registry)
}

// Stats implements Reporter. An unreachable index reports zero vectors
// rather than failing the whole call.
func (c *client) Stats(ctx context.Context) (Stats, error) {
	counts := c.store.CountBy()
	feeds := c.Feeds()

	active := 0
	for _, f := range feeds {
		if f.Active() {
			active++
		}
	}

	vectors, err := c.gateway.Count(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Vector index count failed")
		vectors = 0
	}

	return Stats{
		TotalEvents:   c.store.Len(),
		VectorDBCount: vectors,
		BySource:      counts.BySource,
		ByType:        counts.ByType,
		ActiveFeeds:   active,
		TotalFeeds:    len(feeds),
		Subscribers:   c.broadcaster.Count(),
	}, nil
}

// Cycles implements Reporter. Without a data directory there is no history.
func (c *client) Cycles(ctx context.Context, limit int) ([]cyclelog.Entry, error) {
	if c.cycleLog == nil {
		return []cyclelog.Entry{}, nil
	}
	return c.cycleLog.Recent(ctx, limit)
}
