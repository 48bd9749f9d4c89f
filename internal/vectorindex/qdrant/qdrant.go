// Package qdrant is a REST client for a Qdrant collection holding event
// vectors. The collection is created on first use with cosine distance and
// payload indexes on source, event_type and timestamp.
package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/internal/vectorindex"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
)

var _ vectorindex.Index = (*Index)(nil)

// Config configures the Qdrant client.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int
	HTTPClient *http.Client
}

// Index implements vectorindex.Index over the Qdrant REST API.
type Index struct {
	base       string
	collection string
	dims       int
	client     *transport.Client

	mu    sync.Mutex
	ready bool
}

// New creates a client. No request is made until the first operation.
func New(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, errors.NewConfigurationError("qdrant", "URL is required", nil)
	}
	if cfg.Collection == "" {
		cfg.Collection = constants.DefaultCollection
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = constants.EmbeddingDimensions
	}

	opts := []transport.Option{transport.WithHTTPClient(cfg.HTTPClient)}
	if cfg.APIKey != "" {
		opts = append(opts, transport.WithAuth(&transport.HeaderAuth{Header: "api-key"}, cfg.APIKey))
	}

	return &Index{
		base:       strings.TrimRight(cfg.URL, "/"),
		collection: cfg.Collection,
		dims:       cfg.Dimensions,
		client:     transport.New("qdrant", opts...),
	}, nil
}

func (x *Index) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", x.base, url.PathEscape(x.collection), suffix)
}

// collectionInfo is the part of GET /collections/{name} that is checked
// against the embedder. Named vector configs decode with Size 0.
type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection creates the collection and its payload indexes if missing.
// An existing collection must have the configured vector size.
func (x *Index) EnsureCollection(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ready {
		return nil
	}

	var info collectionInfo
	err := x.client.GetJSON(ctx, x.collectionURL(""), &info)
	var apiErr *errors.APIError
	switch {
	case err == nil:
		if size := info.Result.Config.Params.Vectors.Size; size != x.dims {
			return errors.NewConfigurationError("qdrant",
				fmt.Sprintf("collection %q has vector size %d, embedder produces %d", x.collection, size, x.dims), nil)
		}
		x.ready = true
		return nil
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
	default:
		return errors.WrapResource("get", "collection", x.collection, err)
	}

	create := map[string]any{
		"vectors": map[string]any{"size": x.dims, "distance": "Cosine"},
	}
	if err := x.client.SendJSON(ctx, http.MethodPut, x.collectionURL(""), create, nil); err != nil {
		return errors.WrapResource("create", "collection", x.collection, err)
	}

	for field, schema := range map[string]string{
		"source":     "keyword",
		"event_type": "keyword",
		"timestamp":  "float",
	} {
		body := map[string]any{"field_name": field, "field_schema": schema}
		if err := x.client.SendJSON(ctx, http.MethodPut, x.collectionURL("/index?wait=true"), body, nil); err != nil {
			return errors.WrapResource("index", "collection", x.collection+"."+field, err)
		}
	}

	x.ready = true
	return nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert implements vectorindex.Index.
func (x *Index) Upsert(ctx context.Context, points []vectorindex.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := x.EnsureCollection(ctx); err != nil {
		return err
	}

	body := struct {
		Points []point `json:"points"`
	}{Points: make([]point, len(points))}
	for i, p := range points {
		if len(p.Vector) != x.dims {
			return errors.NewValidationError("vector", len(p.Vector), fmt.Sprintf("expected %d dimensions", x.dims))
		}
		body.Points[i] = point{
			ID:      p.Event.ID,
			Vector:  p.Vector,
			Payload: vectorindex.NewPayload(p.Event).Map(),
		}
	}

	if err := x.client.SendJSON(ctx, http.MethodPut, x.collectionURL("/points?wait=true"), body, nil); err != nil {
		return errors.WrapResource("upsert", "collection", x.collection, err)
	}
	return nil
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	WithPayload    bool      `json:"with_payload"`
	ScoreThreshold *float64  `json:"score_threshold,omitempty"`
	Filter         *filter   `json:"filter,omitempty"`
}

type filter struct {
	Must []condition `json:"must"`
}

type condition struct {
	Key   string         `json:"key"`
	Match map[string]any `json:"match,omitempty"`
	Range map[string]any `json:"range,omitempty"`
}

type searchResponse struct {
	Result []struct {
		ID      any                 `json:"id"`
		Score   float64             `json:"score"`
		Payload vectorindex.Payload `json:"payload"`
	} `json:"result"`
}

func buildFilter(f vectorindex.Filter) *filter {
	var must []condition
	if f.Source != "" {
		must = append(must, condition{Key: "source", Match: map[string]any{"value": f.Source}})
	}
	if f.Type != "" {
		must = append(must, condition{Key: "event_type", Match: map[string]any{"value": f.Type}})
	}
	if f.HasRange() {
		must = append(must, condition{Key: "timestamp", Range: map[string]any{
			"gte": vectorindex.UnixSeconds(*f.Start),
			"lte": vectorindex.UnixSeconds(*f.End),
		}})
	}
	if len(must) == 0 {
		return nil
	}
	return &filter{Must: must}
}

// Search implements vectorindex.Index.
func (x *Index) Search(ctx context.Context, vector []float32, f vectorindex.Filter, limit int, threshold float64) ([]vectorindex.Hit, error) {
	if err := x.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	req := searchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
		Filter:      buildFilter(f),
	}
	if threshold > 0 {
		req.ScoreThreshold = &threshold
	}

	var resp searchResponse
	if err := x.client.SendJSON(ctx, http.MethodPost, x.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, errors.WrapResource("search", "collection", x.collection, err)
	}

	hits := make([]vectorindex.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, vectorindex.Hit{
			Event: r.Payload.Event(fmt.Sprint(r.ID)),
			Score: r.Score,
		})
	}
	return hits, nil
}

// Count implements vectorindex.Index.
func (x *Index) Count(ctx context.Context) (int, error) {
	if err := x.EnsureCollection(ctx); err != nil {
		return 0, err
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := x.client.SendJSON(ctx, http.MethodPost, x.collectionURL("/points/count"), map[string]bool{"exact": true}, &resp); err != nil {
		return 0, errors.WrapResource("count", "collection", x.collection, err)
	}
	return resp.Result.Count, nil
}
