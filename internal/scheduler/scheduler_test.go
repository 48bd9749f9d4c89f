package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/internal/store"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

type fakeRunner struct {
	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	delay    time.Duration
	panicOn  int64
	perCycle int
}

func (f *fakeRunner) Run(ctx context.Context) *cycle.Report {
	n := f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	if n == f.panicOn {
		panic("runner blew up")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	evts := make([]events.Event, f.perCycle)
	for i := range evts {
		e := events.New(events.SourceUSGS, events.CategoryEarthquake, "quake", time.Now())
		e.ID = fmt.Sprintf("c%d-%d", n, i)
		evts[i] = e
	}
	return &cycle.Report{Seq: n, Events: evts}
}

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]events.Event
}

func (p *fakePublisher) Broadcast(_ context.Context, evts []events.Event) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, evts)
	return 1, nil
}

type failingSink struct{}

func (failingSink) Prepend([]events.Event) error {
	return &errors.StoreInvariantViolation{Invariant: "capacity", Length: 11, Capacity: 10}
}

func TestRunOncePrependsThenBroadcasts(t *testing.T) {
	r := &fakeRunner{perCycle: 2}
	st := store.New(10)
	pub := &fakePublisher{}
	var observed []int64
	s := New(r, st,
		WithPublisher(pub),
		WithLogger(logging.NewNopLogger()),
		WithObserver(func(_ context.Context, rep *cycle.Report) { observed = append(observed, rep.Seq) }),
	)

	n, err := s.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, st.Len())
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)
	assert.Equal(t, []int64{1}, observed)
	require.NotNil(t, s.LastReport())
	assert.Equal(t, int64(1), s.LastReport().Seq)
}

func TestRunOnceStoreFailureSkipsBroadcast(t *testing.T) {
	pub := &fakePublisher{}
	s := New(&fakeRunner{perCycle: 1}, failingSink{}, WithPublisher(pub), WithLogger(logging.NewNopLogger()))

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, pub.batches)
	assert.Nil(t, s.LastReport())
}

func TestTriggerNowIsSingleFlight(t *testing.T) {
	r := &fakeRunner{delay: 30 * time.Millisecond, perCycle: 1}
	st := store.New(100)
	s := New(r, st, WithLogger(logging.NewNopLogger()))

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.TriggerNow(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), r.calls.Load())
	assert.Equal(t, int64(1), r.maxSeen.Load())
	assert.Equal(t, 5, st.Len())
}

func TestTriggerNowHonorsContextWhileWaiting(t *testing.T) {
	r := &fakeRunner{delay: 200 * time.Millisecond}
	s := New(r, store.New(10), WithLogger(logging.NewNopLogger()))

	go func() { _, _ = s.TriggerNow(context.Background()) }()
	require.Eventually(t, func() bool { return r.inFlight.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.TriggerNow(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
}

func TestRunRecoversPanicAndRetries(t *testing.T) {
	r := &fakeRunner{panicOn: 1, perCycle: 1}
	st := store.New(10)
	s := New(r, st,
		WithPeriod(time.Hour),
		WithRetryDelay(10*time.Millisecond),
		WithLogger(logging.NewNopLogger()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return st.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), r.calls.Load())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-errCh)
	assert.False(t, s.Running())
}

func TestRunRejectsSecondLoop(t *testing.T) {
	s := New(&fakeRunner{}, store.New(10), WithPeriod(time.Hour), WithLogger(logging.NewNopLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)

	err := s.Run(ctx)
	assert.True(t, errors.IsValidationError(err))

	cancel()
	require.NoError(t, <-errCh)
}

func TestStopDeadlineCancelsInFlightCycle(t *testing.T) {
	r := &fakeRunner{delay: 5 * time.Second}
	s := New(r, store.New(10), WithPeriod(time.Hour), WithLogger(logging.NewNopLogger()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()
	require.Eventually(t, func() bool { return r.inFlight.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := s.Stop(ctx)
	assert.True(t, errors.IsTimeout(err))
	assert.Less(t, time.Since(start), 2*time.Second)
	require.NoError(t, <-errCh)
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	s := New(&fakeRunner{}, store.New(10))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestStopDuringManualTriggerStartsNoNewCycle(t *testing.T) {
	r := &fakeRunner{delay: 300 * time.Millisecond}
	s := New(r, store.New(10), WithPeriod(100*time.Millisecond), WithLogger(logging.NewNopLogger()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()

	// First loop cycle done; the loop now waits on its timer.
	require.Eventually(t, func() bool { return r.calls.Load() == 1 && r.inFlight.Load() == 0 },
		time.Second, time.Millisecond)

	triggered := make(chan struct{})
	go func() {
		defer close(triggered)
		_, _ = s.TriggerNow(context.Background())
	}()
	require.Eventually(t, func() bool { return r.calls.Load() == 2 }, time.Second, time.Millisecond)

	// Let the loop timer fire so the loop queues behind the trigger.
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, int64(1), r.inFlight.Load())
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, <-errCh)

	<-triggered
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(2), r.calls.Load(), "no cycle may start after Stop")
	assert.False(t, s.Running())
}
