package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris"
	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
	"github.com/agentstation/osiris/pkg/logging"
)

var fixedTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestClient(t *testing.T, fetches *atomic.Int32) osiris.Client {
	t.Helper()
	quakes := &connectors.Func{
		ConnectorName: "Quakes",
		FeedSource:    events.SourceUSGS,
		FetchFunc: func(context.Context) ([]events.Event, error) {
			fetches.Add(1)
			a := events.New(events.SourceUSGS, events.CategoryEarthquake, "M6.1 earthquake near Tokyo", fixedTime).At(35.6, 139.7)
			b := events.New(events.SourceUSGS, events.CategoryEarthquake, "M4.2 earthquake off Chile", fixedTime.Add(-time.Hour)).At(-33.4, -70.6)
			return []events.Event{a, b}, nil
		},
	}
	vulns := &connectors.Func{
		ConnectorName: "Vulns",
		FeedSource:    events.SourceCISAKEV,
		FetchFunc: func(context.Context) ([]events.Event, error) {
			return []events.Event{events.New(events.SourceCISAKEV, events.CategoryCyber, "Remote code execution in mail gateway", fixedTime)}, nil
		},
	}

	c, err := osiris.New(
		osiris.WithLogger(logging.NewNopLogger()),
		osiris.WithConnectors(quakes, vulns),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

func newTestServer(t *testing.T, mutate func(*Config)) (*httptest.Server, osiris.Client, *atomic.Int32) {
	t.Helper()
	var fetches atomic.Int32
	client := newTestClient(t, &fetches)

	cfg := DefaultConfig()
	cfg.RateLimit = 0
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	srv, err := New(client, cfg, &logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return ts, client, &fetches
}

func getJSON(t *testing.T, url string, wantStatus int, out any) envelope {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	return decodeEnvelope(t, resp, wantStatus, out)
}

func postJSON(t *testing.T, url string, body any, wantStatus int, out any) envelope {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	return decodeEnvelope(t, resp, wantStatus, out)
}

func decodeEnvelope(t *testing.T, resp *http.Response, wantStatus int, out any) envelope {
	t.Helper()
	require.Equal(t, wantStatus, resp.StatusCode)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func TestNewRequiresKeyWhenAuthEnabled(t *testing.T) {
	var fetches atomic.Int32
	client := newTestClient(t, &fetches)
	logger := zerolog.Nop()

	cfg := DefaultConfig()
	cfg.AuthEnabled = true
	_, err := New(client, cfg, &logger)
	assert.Error(t, err)

	_, err = New(nil, DefaultConfig(), &logger)
	assert.Error(t, err)
}

func TestHealthAndReady(t *testing.T) {
	ts, client, _ := newTestServer(t, nil)

	getJSON(t, ts.URL+"/health", http.StatusOK, nil)
	getJSON(t, ts.URL+"/api/v1/health", http.StatusOK, nil)

	env := getJSON(t, ts.URL+"/api/v1/ready", http.StatusServiceUnavailable, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error.Code)

	_, err := client.Refresh(context.Background())
	require.NoError(t, err)
	getJSON(t, ts.URL+"/api/v1/ready", http.StatusOK, nil)
}

func TestRefreshThenQuery(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	var refreshed struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	postJSON(t, ts.URL+"/api/v1/feeds/refresh", nil, http.StatusOK, &refreshed)
	assert.Equal(t, 3, refreshed.Count)
	assert.Equal(t, "Ingested 3 events", refreshed.Message)

	var page osiris.EventsPage
	getJSON(t, ts.URL+"/api/v1/events", http.StatusOK, &page)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Events, 3)
	assert.Equal(t, []events.Source{events.SourceCISAKEV, events.SourceUSGS}, page.SourcesActive)
	assert.Empty(t, page.SourcesUnavailable)

	tests := []struct {
		name  string
		query string
		total int
		n     int
	}{
		{"by source", "?source=usgs", 2, 2},
		{"by type", "?event_type=cyber", 1, 1},
		{"bbox", "?min_lat=0&max_lat=90&min_lon=100&max_lon=180", 1, 1},
		{"since", "?since=2026-01-01T11:30:00Z", 2, 2},
		{"bad since ignored", "?since=yesterday", 3, 3},
		{"paged", "?limit=1&offset=1", 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p osiris.EventsPage
			getJSON(t, ts.URL+"/api/v1/events"+tt.query, http.StatusOK, &p)
			assert.Equal(t, tt.total, p.Total)
			assert.Len(t, p.Events, tt.n)
		})
	}

	env := getJSON(t, ts.URL+"/api/v1/events?min_lat=north", http.StatusBadRequest, nil)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestEventsRejectsNonFiniteBounds(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	for _, q := range []string{"min_lat=NaN", "max_lat=Inf", "min_lon=-Inf", "max_lon=nan"} {
		env := getJSON(t, ts.URL+"/api/v1/events?"+q, http.StatusBadRequest, nil)
		assert.Equal(t, "BAD_REQUEST", env.Error.Code, q)
	}
}

func TestSearchAndRelationships(t *testing.T) {
	ts, client, _ := newTestServer(t, nil)
	_, err := client.Refresh(context.Background())
	require.NoError(t, err)

	var found struct {
		Results []struct {
			Event events.Event `json:"event"`
			Score float64      `json:"score"`
		} `json:"results"`
		Total int `json:"total"`
	}
	postJSON(t, ts.URL+"/api/v1/search", map[string]any{
		"query":           "earthquake near Tokyo",
		"score_threshold": 0.1,
	}, http.StatusOK, &found)
	require.NotEmpty(t, found.Results)
	assert.Equal(t, len(found.Results), found.Total)
	assert.Equal(t, "M6.1 earthquake near Tokyo", found.Results[0].Event.Title)

	postJSON(t, ts.URL+"/api/v1/search", map[string]any{"query": ""}, http.StatusBadRequest, nil)

	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	id := found.Results[0].Event.ID
	var related osiris.RelatedResult
	getJSON(t, ts.URL+"/api/v1/relationships/"+id+"?limit=5", http.StatusOK, &related)
	assert.Equal(t, id, related.Event.ID)
	for _, r := range related.Related {
		assert.NotEqual(t, id, r.Event.ID)
	}

	env := getJSON(t, ts.URL+"/api/v1/relationships/does-not-exist", http.StatusNotFound, nil)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestEntitiesFeedsStatsCycles(t *testing.T) {
	ts, client, _ := newTestServer(t, nil)
	_, err := client.Refresh(context.Background())
	require.NoError(t, err)

	var ents struct {
		Entities []struct {
			Name string `json:"name"`
		} `json:"entities"`
		Total int `json:"total"`
	}
	getJSON(t, ts.URL+"/api/v1/entities?q=tokyo", http.StatusOK, &ents)
	require.Equal(t, 1, ents.Total)
	assert.Equal(t, "Tokyo", ents.Entities[0].Name)

	var feeds struct {
		Feeds []events.FeedStatus `json:"feeds"`
	}
	getJSON(t, ts.URL+"/api/v1/feeds", http.StatusOK, &feeds)
	require.Len(t, feeds.Feeds, 2)
	assert.Equal(t, "Quakes", feeds.Feeds[0].Name)
	assert.Equal(t, 2, feeds.Feeds[0].EventCount)

	var stats struct {
		TotalEvents   int `json:"total_events"`
		VectorDBCount int `json:"vector_db_count"`
		ActiveFeeds   int `json:"active_feeds"`
		TotalFeeds    int `json:"total_feeds"`
	}
	getJSON(t, ts.URL+"/api/v1/stats", http.StatusOK, &stats)
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 3, stats.VectorDBCount)
	assert.Equal(t, 2, stats.ActiveFeeds)
	assert.Equal(t, 2, stats.TotalFeeds)

	var cycles struct {
		Total int `json:"total"`
	}
	getJSON(t, ts.URL+"/api/v1/cycles", http.StatusOK, &cycles)
	assert.Equal(t, 0, cycles.Total)
}

func TestStatsCacheFlushedByCycle(t *testing.T) {
	ts, client, _ := newTestServer(t, nil)

	var stats struct {
		TotalEvents int `json:"total_events"`
	}
	getJSON(t, ts.URL+"/api/v1/stats", http.StatusOK, &stats)
	assert.Equal(t, 0, stats.TotalEvents)

	_, err := client.Refresh(context.Background())
	require.NoError(t, err)

	getJSON(t, ts.URL+"/api/v1/stats", http.StatusOK, &stats)
	assert.Equal(t, 3, stats.TotalEvents)
}

func TestMethodMismatch(t *testing.T) {
	ts, _, fetches := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/feeds/refresh")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, int32(0), fetches.Load())
}

func TestMetricsEndpoint(t *testing.T) {
	ts, client, _ := newTestServer(t, nil)
	_, err := client.Refresh(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "osiris_cycles_total 1")
}

func TestAuthProtectsAPI(t *testing.T) {
	ts, _, _ := newTestServer(t, func(c *Config) {
		c.AuthEnabled = true
		c.APIKey = "secret"
	})

	getJSON(t, ts.URL+"/api/v1/health", http.StatusOK, nil)
	getJSON(t, ts.URL+"/api/v1/feeds", http.StatusUnauthorized, nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/feeds", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitApplied(t *testing.T) {
	ts, _, _ := newTestServer(t, func(c *Config) { c.RateLimit = 2 })

	getJSON(t, ts.URL+"/health", http.StatusOK, nil)
	getJSON(t, ts.URL+"/health", http.StatusOK, nil)
	env := getJSON(t, ts.URL+"/health", http.StatusTooManyRequests, nil)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
}

func TestWebSocketLiveChannel(t *testing.T) {
	ts, client, _ := newTestServer(t, nil)

	for _, path := range []string{"/api/v1/live/ws", "/ws"} {
		t.Run(path, func(t *testing.T) {
			url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			require.NoError(t, err)
			defer func() { _ = conn.Close() }()

			require.Eventually(t, func() bool { return client.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

			_, err = client.Refresh(context.Background())
			require.NoError(t, err)

			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			kind, data, err := conn.ReadMessage()
			require.NoError(t, err)
			assert.Equal(t, websocket.BinaryMessage, kind)

			var got []events.Event
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Len(t, got, 3)

			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
			assert.Eventually(t, func() bool { return client.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestSSELiveChannel(t *testing.T) {
	ts, client, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/live/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return client.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err = client.Refresh(context.Background())
	require.NoError(t, err)

	body := make(chan string, 1)
	go func() {
		var sb strings.Builder
		buf := make([]byte, 4096)
		for !strings.Contains(sb.String(), "event: events") || !strings.HasSuffix(sb.String(), "\n\n") {
			n, err := resp.Body.Read(buf)
			sb.Write(buf[:n])
			if err != nil {
				break
			}
		}
		body <- sb.String()
	}()

	select {
	case got := <-body:
		assert.Contains(t, got, "event: connected")
		assert.Contains(t, got, "event: events\ndata: [")
	case <-time.After(2 * time.Second):
		t.Fatal("no events received on SSE stream")
	}

	cancel()
	assert.Eventually(t, func() bool { return client.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
