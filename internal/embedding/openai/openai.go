// Package openai provides an embedding adapter for the OpenAI embeddings API
// and compatible endpoints.
package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/agentstation/osiris/internal/embedding"
	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
)

var _ embedding.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
)

var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedder.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3-* vectors. Zero keeps the model default.
	Dimensions int
}

// Embedder generates embeddings with the OpenAI API.
type Embedder struct {
	client     *transport.Client
	baseURL    string
	model      string
	dimensions int
	shorten    bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// New creates an OpenAI embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigurationError("openai", "API key is required", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.EmbeddingTimeout
	}

	dims := cfg.Dimensions
	shorten := dims > 0 && strings.HasPrefix(cfg.Model, "text-embedding-3")
	if !shorten {
		var ok bool
		if dims, ok = modelDimensions[cfg.Model]; !ok {
			dims = modelDimensions[DefaultModel]
		}
	}

	return &Embedder{
		client: transport.New("openai",
			transport.WithAuth(&transport.BearerAuth{}, cfg.APIKey),
			transport.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: dims,
		shorten:    shorten,
	}, nil
}

// Embed implements embedding.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements embedding.Embedder. Results are ordered by the
// response index, not arrival order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := embeddingRequest{Model: e.model, Input: texts}
	if e.shorten {
		req.Dimensions = e.dimensions
	}

	var resp embeddingResponse
	if err := e.client.SendJSON(ctx, http.MethodPost, e.baseURL+"/embeddings", req, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, errors.NewParseError("json", "openai", "embedding index out of range", nil)
		}
		out[d.Index] = d.Embedding
	}
	if err := embedding.CheckBatch(out, len(texts), e.dimensions); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimensions implements embedding.Embedder.
func (e *Embedder) Dimensions() int { return e.dimensions }

// ModelName implements embedding.Embedder.
func (e *Embedder) ModelName() string { return e.model }
