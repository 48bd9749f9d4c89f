// Package retrieval answers semantic queries against the vector index.
package retrieval

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/osiris/internal/embedding"
	"github.com/agentstation/osiris/internal/vectorindex"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

// Lookup resolves an event by ID.
type Lookup interface {
	Get(id string) (events.Event, bool)
}

// Query is a semantic search request. Empty Sources or Types do not filter.
// Start and End only filter when both are set.
type Query struct {
	Text           string            `json:"query"`
	Sources        []events.Source   `json:"sources,omitempty"`
	Types          []events.Category `json:"event_types,omitempty"`
	Start          *time.Time        `json:"start_time,omitempty"`
	End            *time.Time        `json:"end_time,omitempty"`
	Limit          int               `json:"limit,omitempty"`
	ScoreThreshold *float64          `json:"score_threshold,omitempty"`
}

// Threshold returns a pointer for Query.ScoreThreshold. A nil threshold
// means the default; an explicit 0 keeps every non-negative hit.
func Threshold(v float64) *float64 { return &v }

// Result is one ranked match.
type Result struct {
	Event events.Event `json:"event"`
	Score float64      `json:"score"`
}

// Gateway embeds queries and ranks index hits.
type Gateway struct {
	embedder embedding.Embedder
	index    vectorindex.Index
	lookup   Lookup
	logger   *zerolog.Logger
}

// New creates a gateway.
func New(embedder embedding.Embedder, index vectorindex.Index, lookup Lookup, logger *zerolog.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{embedder: embedder, index: index, lookup: lookup, logger: logger}
}

// Filter reduces q to the filter the index understands. One value on an
// axis is an equality filter; zero or several values leave the axis open.
func (q Query) Filter() vectorindex.Filter {
	var f vectorindex.Filter
	if len(q.Sources) == 1 {
		f.Source = q.Sources[0]
	}
	if len(q.Types) == 1 {
		f.Type = q.Types[0]
	}
	if q.Start != nil && q.End != nil {
		f.Start, f.End = q.Start, q.End
	}
	return f
}

// Search embeds q.Text once and returns hits at or above the threshold,
// best first.
func (g *Gateway) Search(ctx context.Context, q Query) ([]Result, error) {
	if q.Text == "" {
		return nil, errors.NewValidationError("query", q.Text, "query text is required")
	}
	if q.Limit <= 0 {
		q.Limit = constants.DefaultSearchLimit
	}
	threshold := constants.DefaultScoreThreshold
	if q.ScoreThreshold != nil {
		threshold = *q.ScoreThreshold
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, errors.NewValidationError("score_threshold", threshold, "score threshold must be finite")
	}

	vector, err := g.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, errors.WrapResource("embed", "query", "", err)
	}

	hits, err := g.index.Search(ctx, vector, q.Filter(), q.Limit, threshold)
	if err != nil {
		return nil, errors.WrapResource("search", "index", "", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Score < threshold {
			continue
		}
		results = append(results, Result{Event: h.Event, Score: h.Score})
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}

	g.logger.Debug().
		Str("query", q.Text).
		Int("hits", len(hits)).
		Int("results", len(results)).
		Msg("Search complete")
	return results, nil
}

// FindRelated returns up to limit events similar to the event with id,
// never including that event.
func (g *Gateway) FindRelated(ctx context.Context, id string, limit int) (events.Event, []Result, error) {
	event, ok := g.lookup.Get(id)
	if !ok {
		return events.Event{}, nil, errors.NewNotFoundError("event", id)
	}
	if limit <= 0 {
		limit = constants.DefaultRelatedLimit
	}

	results, err := g.Search(ctx, Query{
		Text:           event.Text(),
		Limit:          limit + 1,
		ScoreThreshold: Threshold(constants.RelatedScoreThreshold),
	})
	if err != nil {
		return event, nil, err
	}

	related := slices.DeleteFunc(results, func(r Result) bool { return r.Event.ID == id })
	if len(related) > limit {
		related = related[:limit]
	}
	return event, related, nil
}

// Count returns the number of indexed vectors.
func (g *Gateway) Count(ctx context.Context) (int, error) {
	return g.index.Count(ctx)
}
