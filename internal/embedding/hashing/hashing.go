// Package hashing provides a deterministic, dependency-free embedder based on
// the feature hashing trick. It needs no model or network and is the default
// when no remote provider is configured.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/agentstation/osiris/internal/embedding"
	"github.com/agentstation/osiris/pkg/constants"
)

var _ embedding.Embedder = (*Embedder)(nil)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Embedder hashes unigrams and bigrams into a signed, L2-normalized vector.
type Embedder struct {
	dims      int
	stopwords map[string]struct{}
}

// New creates an embedder. dims <= 0 selects constants.EmbeddingDimensions.
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = constants.EmbeddingDimensions
	}
	return &Embedder{dims: dims, stopwords: stopwords()}
}

// Dimensions implements embedding.Embedder.
func (e *Embedder) Dimensions() int { return e.dims }

// ModelName implements embedding.Embedder.
func (e *Embedder) ModelName() string { return "feature-hash" }

// Embed implements embedding.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

// EmbedBatch implements embedding.Embedder.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float32 {
	vec := make([]float64, e.dims)
	tokens := e.tokenize(text)
	for i, tok := range tokens {
		e.add(vec, tok, 1.0)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dims)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (e *Embedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *Embedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := e.stopwords[tok]; stop || len(tok) < 2 {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "have",
		"in", "is", "it", "its", "of", "on", "or", "that", "the", "this", "to", "was",
		"were", "will", "with",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
