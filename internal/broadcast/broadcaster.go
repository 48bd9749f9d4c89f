// Package broadcast fans new events out to live subscribers.
//
// Each broadcast carries at most BatchSize events as one JSON array. A
// subscriber whose push fails is removed after that single attempt and never
// retried; the remaining subscribers are unaffected.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

// Subscriber is a live consumer. Push must respect ctx.
type Subscriber interface {
	ID() string
	Push(ctx context.Context, payload []byte) error
	Close() error
}

// Broadcaster holds the subscriber set.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber

	batchSize   int
	pushTimeout time.Duration
	logger      *zerolog.Logger
	onPrune     func(id string, err error)
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithBatchSize caps how many events go out per broadcast.
func WithBatchSize(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithPushTimeout bounds a single push.
func WithPushTimeout(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.pushTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(b *Broadcaster) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithPruneHook is called for every subscriber removed after a failed push.
func WithPruneHook(fn func(id string, err error)) Option {
	return func(b *Broadcaster) { b.onPrune = fn }
}

// New creates an empty broadcaster.
func New(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		subscribers: make(map[string]Subscriber),
		batchSize:   constants.BroadcastBatchSize,
		pushTimeout: constants.PushTimeout,
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds s. Registering the same ID twice keeps the first.
func (b *Broadcaster) Register(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[s.ID()]; ok {
		return
	}
	b.subscribers[s.ID()] = s
	b.logger.Debug().Str("subscriber", s.ID()).Int("total_subscribers", len(b.subscribers)).Msg("Subscriber registered")
}

// Unregister removes s. Unknown subscribers are ignored.
func (b *Broadcaster) Unregister(s Subscriber) {
	b.remove(s.ID())
}

func (b *Broadcaster) remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[id]; !ok {
		return false
	}
	delete(b.subscribers, id)
	b.logger.Debug().Str("subscriber", id).Int("total_subscribers", len(b.subscribers)).Msg("Subscriber unregistered")
	return true
}

// Count returns the number of registered subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Encode renders the first batchSize events as a JSON array.
func (b *Broadcaster) Encode(evts []events.Event) ([]byte, error) {
	if len(evts) > b.batchSize {
		evts = evts[:b.batchSize]
	}
	payload, err := json.Marshal(evts)
	if err != nil {
		return nil, errors.WrapParse("json", "broadcast", err)
	}
	return payload, nil
}

// Broadcast pushes evts to every subscriber concurrently and returns how many
// received it. An empty batch is a no-op.
func (b *Broadcaster) Broadcast(ctx context.Context, evts []events.Event) (int, error) {
	if len(evts) == 0 {
		return 0, nil
	}
	payload, err := b.Encode(evts)
	if err != nil {
		return 0, err
	}

	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	var (
		mu        sync.Mutex
		delivered int
		wg        conc.WaitGroup
	)
	for _, s := range subs {
		wg.Go(func() {
			if err := b.push(ctx, s, payload); err != nil {
				b.prune(s, err)
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
		})
	}
	wg.Wait()

	b.logger.Debug().
		Int("events", min(len(evts), b.batchSize)).
		Int("subscribers", len(subs)).
		Int("delivered", delivered).
		Msg("Events broadcast")
	return delivered, nil
}

func (b *Broadcaster) push(ctx context.Context, s Subscriber, payload []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.NewDeliveryError(s.ID(), errors.New("push panicked"))
		}
	}()
	pctx, cancel := context.WithTimeout(ctx, b.pushTimeout)
	defer cancel()
	if err := s.Push(pctx, payload); err != nil {
		return errors.NewDeliveryError(s.ID(), err)
	}
	return nil
}

func (b *Broadcaster) prune(s Subscriber, err error) {
	if !b.remove(s.ID()) {
		return
	}
	_ = s.Close()
	b.logger.Warn().Err(err).Str("subscriber", s.ID()).Msg("Dropped live subscriber")
	if b.onPrune != nil {
		b.onPrune(s.ID(), err)
	}
}

// Shutdown closes and removes every subscriber.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[string]Subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	b.logger.Info().Int("closed", len(subs)).Msg("Broadcaster shut down")
}
