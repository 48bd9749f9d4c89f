package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/pkg/events"
)

func TestObserveCycle(t *testing.T) {
	m := New()
	m.ObserveCycle(&cycle.Report{
		Duration: 2 * time.Second,
		Outcomes: []cycle.Outcome{
			{Connector: "USGS Earthquakes", Source: events.SourceUSGS, Result: cycle.ResultOK, Events: 4},
			{Connector: "AlienVault OTX", Source: events.SourceOTX, Result: cycle.ResultFetchError},
			{Connector: "CISA KEV", Source: events.SourceCISAKEV, Result: cycle.ResultUnconfigured},
		},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.connectorEvents.WithLabelValues("USGS Earthquakes", "usgs")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectorErrors.WithLabelValues("AlienVault OTX", "fetch_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.connectorErrors), "unconfigured is not an error")
}

func TestGaugesAndCounters(t *testing.T) {
	m := New()
	m.SetStoreSize(42)
	m.SetSubscribers(3)
	m.AddPushes(5)
	m.IncDrops()

	assert.Equal(t, 42.0, testutil.ToFloat64(m.storeSize))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.subscribers))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.pushes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.drops))
}

func TestHandlerExposes(t *testing.T) {
	m := New()
	m.SetStoreSize(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "osiris_store_events 7")
	assert.Contains(t, string(body), "go_goroutines")
}
