// Package gemini provides an embedding adapter backed by the Google GenAI SDK.
package gemini

import (
	"context"
	"sync"

	"google.golang.org/genai"

	"github.com/agentstation/osiris/internal/embedding"
	"github.com/agentstation/osiris/pkg/errors"
)

var _ embedding.Embedder = (*Embedder)(nil)

// Defaults
const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768

	// maxBatch is the per-request input limit of the embedContent endpoint.
	maxBatch = 100
)

// Config holds configuration for the Gemini embedder.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
	BaseURL    string
}

// Embedder generates embeddings with the Gemini API.
type Embedder struct {
	cfg Config

	mu     sync.Mutex
	client *genai.Client
}

// New validates cfg. The SDK client is created lazily on first use.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigurationError("gemini", "API key is required", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &Embedder{cfg: cfg}, nil
}

func (e *Embedder) getClient(ctx context.Context) (*genai.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		return e.client, nil
	}

	config := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  e.cfg.APIKey,
	}
	if e.cfg.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: e.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, errors.NewConfigurationError("gemini", "failed to create client", err)
	}
	e.client = client
	return client, nil
}

// Embed implements embedding.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements embedding.Embedder.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	client, err := e.getClient(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: genai.Ptr(int32(e.cfg.Dimensions)),
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		resp, err := client.Models.EmbedContent(ctx, e.cfg.Model, contents, config)
		if err != nil {
			return nil, errors.WrapAPI("gemini", 0, err)
		}
		for _, emb := range resp.Embeddings {
			out = append(out, emb.Values)
		}
	}

	if err := embedding.CheckBatch(out, len(texts), e.cfg.Dimensions); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimensions implements embedding.Embedder.
func (e *Embedder) Dimensions() int { return e.cfg.Dimensions }

// ModelName implements embedding.Embedder.
func (e *Embedder) ModelName() string { return e.cfg.Model }
