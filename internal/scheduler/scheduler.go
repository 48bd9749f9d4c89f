// Package scheduler drives periodic aggregation cycles.
//
// A cycle is run, its events are prepended to the store and then pushed to
// live subscribers. At most one cycle runs at a time; manual triggers wait
// for the in-flight cycle before starting their own.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

// Runner runs one cycle.
type Runner interface {
	Run(ctx context.Context) *cycle.Report
}

// Sink receives each cycle's events, newest first.
type Sink interface {
	Prepend(batch []events.Event) error
}

// Publisher pushes each cycle's events to live subscribers.
type Publisher interface {
	Broadcast(ctx context.Context, evts []events.Event) (int, error)
}

// Observer is notified after every completed cycle.
type Observer func(ctx context.Context, report *cycle.Report)

// Scheduler owns the cycle loop.
type Scheduler struct {
	runner    Runner
	sink      Sink
	publisher Publisher

	period     time.Duration
	retryDelay time.Duration
	logger     *zerolog.Logger
	observers  []Observer

	// flight is a one-slot semaphore so acquisition can honor ctx.
	flight chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
	last    *cycle.Report
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPeriod sets the delay between cycles.
func WithPeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithRetryDelay sets the delay after a cycle that failed outright.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// WithPublisher sets the live channel.
func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithObserver adds a cycle observer.
func WithObserver(fn Observer) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scheduler.
func New(runner Runner, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:     runner,
		sink:       sink,
		period:     constants.DefaultCyclePeriod,
		retryDelay: constants.CycleRetryDelay,
		logger:     logging.Default(),
		flight:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TriggerNow runs a cycle immediately and returns how many events it ingested.
func (s *Scheduler) TriggerNow(ctx context.Context) (int, error) {
	report, err := s.RunOnce(ctx)
	if report == nil {
		return 0, err
	}
	return len(report.Events), err
}

// LastReport returns the most recent completed cycle, or nil.
func (s *Scheduler) LastReport() *cycle.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// errStopped ends a scheduled cycle that lost the race with Stop.
var errStopped = errors.New("scheduler stopped")

// RunOnce runs a single cycle, store update and broadcast.
func (s *Scheduler) RunOnce(ctx context.Context) (*cycle.Report, error) {
	if err := s.acquire(ctx, nil); err != nil {
		return nil, err
	}
	defer s.release()
	return s.run(ctx)
}

// acquire takes the flight slot. A closed stop channel aborts the wait, and
// is re-checked once the slot is held so no cycle starts after Stop.
func (s *Scheduler) acquire(ctx context.Context, stop <-chan struct{}) error {
	select {
	case s.flight <- struct{}{}:
	case <-stop:
		return errStopped
	case <-ctx.Done():
		return errors.NewTimeoutError("cycle", "", "waiting for in-flight cycle: "+ctx.Err().Error())
	}
	if stop == nil {
		return nil
	}
	select {
	case <-stop:
		s.release()
		return errStopped
	default:
		return nil
	}
}

func (s *Scheduler) release() {
	<-s.flight
}

// run executes one cycle while holding the flight slot.
func (s *Scheduler) run(ctx context.Context) (report *cycle.Report, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cycle panicked: %v", rec)
			s.logger.Error().Err(err).Msg("Cycle aborted")
		}
	}()

	report = s.runner.Run(ctx)
	if err := s.sink.Prepend(report.Events); err != nil {
		s.logger.Error().Err(err).Int64("cycle", report.Seq).Msg("Store update failed")
		return report, err
	}

	if s.publisher != nil {
		if _, err := s.publisher.Broadcast(ctx, report.Events); err != nil {
			s.logger.Warn().Err(err).Int64("cycle", report.Seq).Msg("Broadcast failed")
		}
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	for _, fn := range s.observers {
		fn(ctx, report)
	}
	return report, nil
}

// scheduled runs a loop cycle unless Stop was requested first.
func (s *Scheduler) scheduled(ctx context.Context, stop <-chan struct{}) error {
	if err := s.acquire(ctx, stop); err != nil {
		return err
	}
	defer s.release()
	_, err := s.run(ctx)
	return err
}

// Run blocks, running a cycle immediately and then every period until ctx is
// canceled or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.NewValidationError("scheduler", "running", "scheduler already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.cancel = cancel
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	s.logger.Info().Dur("period", s.period).Msg("Scheduler started")

	for {
		wait := s.period
		if err := s.scheduled(loopCtx, stopCh); err != nil {
			if errors.Is(err, errStopped) {
				s.logger.Info().Msg("Scheduler stopped")
				return nil
			}
			if loopCtx.Err() != nil {
				return nil
			}
			wait = s.retryDelay
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-stopCh:
			timer.Stop()
			s.logger.Info().Msg("Scheduler stopped")
			return nil
		case <-loopCtx.Done():
			timer.Stop()
			return nil
		}
	}
}

// Stop signals the loop to exit and waits for the in-flight cycle to finish.
// If ctx expires first the in-flight cycle is canceled and a TimeoutError is
// returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	done, cancel := s.done, s.cancel
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		cancel()
		<-done
		return errors.NewTimeoutError("scheduler stop", "", "in-flight cycle canceled")
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
