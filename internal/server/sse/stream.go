// Package sse serves the live event channel as Server-Sent Events. Each
// open stream is a broadcast.Subscriber; every push becomes one "events"
// event whose data is the JSON array.
package sse

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/osiris/internal/broadcast"
	"github.com/agentstation/osiris/pkg/errors"
)

// EventName is the SSE event type used for event batches.
const EventName = "events"

// keepAlivePeriod is how often an idle stream sends a comment line.
const keepAlivePeriod = 30 * time.Second

// ErrClosed is returned by Push after the stream has ended.
var ErrClosed = errors.New("sse stream closed")

var _ broadcast.Subscriber = (*Stream)(nil)

// Stream is one connected SSE client.
type Stream struct {
	id        string
	logger    *zerolog.Logger
	queue     chan []byte
	done      chan struct{}
	closeOnce sync.Once
	keepAlive time.Duration
}

// NewStream creates a stream. Payloads queue until Serve writes them.
func NewStream(id string, logger *zerolog.Logger) *Stream {
	return &Stream{
		id:        id,
		logger:    logger,
		queue:     make(chan []byte, 4),
		done:      make(chan struct{}),
		keepAlive: keepAlivePeriod,
	}
}

// ID implements broadcast.Subscriber.
func (s *Stream) ID() string { return s.id }

// Push implements broadcast.Subscriber. It fails if the client is gone or
// too far behind to accept the batch before ctx expires.
func (s *Stream) Push(ctx context.Context, payload []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.queue <- payload:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements broadcast.Subscriber.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Serve writes queued batches to w until the request ends or the stream is
// closed.
func (s *Stream) Serve(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	defer func() { _ = s.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "event: connected\ndata: {\"id\":%q}\n\n", s.id); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case payload := <-s.queue:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventName, payload); err != nil {
				s.logger.Debug().Err(err).Str("client_id", s.id).Msg("SSE write failed")
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-s.done:
			return

		case <-r.Context().Done():
			return
		}
	}
}
