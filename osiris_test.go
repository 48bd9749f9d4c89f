package osiris

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/internal/retrieval"
	"github.com/agentstation/osiris/internal/store"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

var fixedTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func quakeConnector() *connectors.Func {
	return &connectors.Func{
		ConnectorName: "Quakes",
		FeedSource:    events.SourceUSGS,
		FetchFunc: func(context.Context) ([]events.Event, error) {
			a := events.New(events.SourceUSGS, events.CategoryEarthquake, "M6.1 earthquake near Tokyo", fixedTime).At(35.6, 139.7)
			a.Description = "Strong shaking reported across the Kanto region"
			b := events.New(events.SourceUSGS, events.CategoryEarthquake, "M4.2 earthquake off Chile", fixedTime.Add(-time.Hour)).At(-33.4, -70.6)
			return []events.Event{a, b}, nil
		},
	}
}

func cyberConnector() *connectors.Func {
	return &connectors.Func{
		ConnectorName: "Vulns",
		FeedSource:    events.SourceCISAKEV,
		FetchFunc: func(context.Context) ([]events.Event, error) {
			e := events.New(events.SourceCISAKEV, events.CategoryCyber, "Remote code execution in mail gateway", fixedTime)
			return []events.Event{e}, nil
		},
	}
}

func brokenConnector() *connectors.Func {
	return &connectors.Func{
		ConnectorName: "Broken",
		FeedSource:    events.SourceGDELT,
		FetchFunc: func(context.Context) ([]events.Event, error) {
			return nil, fmt.Errorf("upstream exploded")
		},
	}
}

func newTestClient(t *testing.T, opts ...Option) Client {
	t.Helper()
	opts = append([]Option{
		WithLogger(logging.NewNopLogger()),
		WithConnectors(quakeConnector(), cyberConnector(), brokenConnector(),
			&connectors.Func{ConnectorName: "Keyed", FeedSource: events.SourceOTX, Unconfigured: true}),
	}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

func TestNewValidation(t *testing.T) {
	_, err := New(WithMaxEvents(0), WithConnectors())
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	dup := &connectors.Func{ConnectorName: "Same", FeedSource: events.SourceUSGS}
	_, err = New(WithConnectors(dup, dup))
	require.Error(t, err)
}

func TestRefreshAndEvents(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	n, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page, err := c.Events(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Events, 3)
	assert.Equal(t, events.SourceUSGS, page.Events[0].Source)
	assert.Equal(t, events.SourceCISAKEV, page.Events[2].Source)
	assert.Equal(t, []events.Source{events.SourceCISAKEV, events.SourceUSGS}, page.SourcesActive)
	assert.Equal(t, []events.Source{events.SourceGDELT, events.SourceOTX}, page.SourcesUnavailable)

	page, err = c.Events(ctx, store.Filter{Type: events.CategoryCyber})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestFeeds(t *testing.T) {
	c := newTestClient(t)

	before := c.Feeds()
	require.Len(t, before, 4)
	assert.Nil(t, before[0].LastFetch)
	assert.False(t, before[3].Configured)

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	feeds := c.Feeds()
	require.Len(t, feeds, 4)
	assert.Equal(t, "Quakes", feeds[0].Name)
	assert.Equal(t, 2, feeds[0].EventCount)
	assert.NotNil(t, feeds[0].LastFetch)
	require.NotNil(t, feeds[2].Error)
	assert.Contains(t, *feeds[2].Error, "upstream exploded")
	assert.False(t, feeds[3].Configured)
	assert.Nil(t, feeds[3].Error)
}

func TestSearchAndRelated(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	require.NoError(t, err)

	results, err := c.Search(ctx, retrieval.Query{Text: "earthquake near Tokyo", ScoreThreshold: retrieval.Threshold(0.1)})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "M6.1 earthquake near Tokyo", results[0].Event.Title)

	_, err = c.Search(ctx, retrieval.Query{})
	assert.True(t, errors.IsValidationError(err))

	page, err := c.Events(ctx, store.Filter{Limit: 1})
	require.NoError(t, err)
	id := page.Events[0].ID

	related, err := c.Related(ctx, id, 5)
	require.NoError(t, err)
	assert.Equal(t, id, related.Event.ID)
	for _, r := range related.Related {
		assert.NotEqual(t, id, r.Event.ID)
	}

	_, err = c.Related(ctx, "missing", 5)
	assert.True(t, errors.IsNotFound(err))
}

func TestEntities(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	matches := c.Entities("tok", 0)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Tokyo", matches[0].Name)
	assert.Empty(t, c.Entities("atlantis", 10))
}

func TestStats(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.Refresh(ctx)
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 3, stats.VectorDBCount)
	assert.Equal(t, 2, stats.BySource[events.SourceUSGS])
	assert.Equal(t, 1, stats.ByType[events.CategoryCyber])
	assert.Equal(t, 2, stats.ActiveFeeds)
	assert.Equal(t, 4, stats.TotalFeeds)
}

func TestOnCycleHook(t *testing.T) {
	c := newTestClient(t)

	var got atomic.Pointer[cycle.Report]
	c.OnCycle(func(r *cycle.Report) { got.Store(r) })
	c.OnCycle(func(*cycle.Report) { panic("bad hook") })
	c.OnCycle(nil)

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	r := got.Load()
	require.NotNil(t, r)
	assert.Equal(t, int64(1), r.Seq)
	assert.Len(t, r.Outcomes, 4)
	assert.Equal(t, 1, r.Failed())
}

func TestCycleLog(t *testing.T) {
	ctx := context.Background()

	mem := newTestClient(t)
	entries, err := mem.Cycles(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	c := newTestClient(t, WithDataDir(t.TempDir()))
	for range 2 {
		_, err := c.Refresh(ctx)
		require.NoError(t, err)
	}

	entries, err = c.Cycles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].Seq)
	assert.Equal(t, 3, entries[0].Events)
	assert.Equal(t, 1, entries[0].Failed)
}

func TestAutoUpdates(t *testing.T) {
	var calls atomic.Int32
	counting := &connectors.Func{
		ConnectorName: "Counting",
		FeedSource:    events.SourceUSGS,
		FetchFunc: func(context.Context) ([]events.Event, error) {
			calls.Add(1)
			return []events.Event{events.New(events.SourceUSGS, events.CategoryEarthquake, "tick", time.Now())}, nil
		},
	}

	c, err := New(
		WithLogger(logging.NewNopLogger()),
		WithConnectors(counting),
		WithAutoUpdateInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer func() { _ = c.Shutdown(context.Background()) }()

	require.NoError(t, c.AutoUpdatesOn())
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.AutoUpdatesOff())
	stopped := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())

	// Off is idempotent.
	require.NoError(t, c.AutoUpdatesOff())
}

func TestAutoUpdatesRejectsZeroPeriod(t *testing.T) {
	c := newTestClient(t, WithAutoUpdateInterval(0))
	err := c.AutoUpdatesOn()
	assert.True(t, errors.IsValidationError(err))
}

func TestMetricsHandler(t *testing.T) {
	c := newTestClient(t)
	assert.NotNil(t, c.MetricsHandler())
}
