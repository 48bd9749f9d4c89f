// Package memory is a brute-force cosine index held in process memory. It is
// used when no Qdrant URL is configured and in tests.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/agentstation/osiris/internal/vectorindex"
	"github.com/agentstation/osiris/pkg/events"
)

var _ vectorindex.Index = (*Index)(nil)

type entry struct {
	event  events.Event
	vector []float32
	norm   float64
}

// Index keeps at most capacity points, evicting the oldest inserts first.
type Index struct {
	capacity int

	mu    sync.RWMutex
	byID  map[string]entry
	order []string
}

// New creates an index bounded to capacity points. capacity <= 0 is unbounded.
func New(capacity int) *Index {
	return &Index{capacity: capacity, byID: make(map[string]entry)}
}

// Upsert implements vectorindex.Index.
func (x *Index) Upsert(ctx context.Context, points []vectorindex.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, p := range points {
		id := p.Event.ID
		if _, exists := x.byID[id]; !exists {
			x.order = append(x.order, id)
		}
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		x.byID[id] = entry{event: p.Event.Clone(), vector: vec, norm: norm(vec)}
	}

	if x.capacity > 0 && len(x.order) > x.capacity {
		drop := len(x.order) - x.capacity
		for _, id := range x.order[:drop] {
			delete(x.byID, id)
		}
		x.order = append([]string(nil), x.order[drop:]...)
	}
	return nil
}

// Search implements vectorindex.Index.
func (x *Index) Search(ctx context.Context, vector []float32, f vectorindex.Filter, limit int, threshold float64) ([]vectorindex.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qn := norm(vector)

	x.mu.RLock()
	hits := make([]vectorindex.Hit, 0)
	for _, en := range x.byID {
		if !f.Match(en.event) {
			continue
		}
		score := cosine(vector, qn, en.vector, en.norm)
		if score < threshold {
			continue
		}
		hits = append(hits, vectorindex.Hit{Event: en.event.Clone(), Score: score})
	}
	x.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Event.ID < hits[j].Event.ID
		}
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count implements vectorindex.Index.
func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byID), nil
}

func norm(v []float32) float64 {
	s := 0.0
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 || len(a) != len(b) {
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
