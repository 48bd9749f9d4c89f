package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/internal/transport"
	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/events"
)

func TestRegistryOrderAndConfiguration(t *testing.T) {
	reg := Registry(Config{})
	require.Equal(t, 7, reg.Len())

	var sources []events.Source
	for _, c := range reg.List() {
		sources = append(sources, c.Source())
	}
	assert.Equal(t, []events.Source{
		events.SourceUSGS, events.SourceCISAKEV, events.SourceNASAEONET, events.SourceOTX,
		events.SourceOpenSky, events.SourceGDELT, events.SourceRSSNews,
	}, sources)

	otx, ok := reg.Get("AlienVault OTX")
	require.True(t, ok)
	assert.False(t, otx.IsConfigured())

	keyed, _ := Registry(Config{OTXAPIKey: "k"}).Get("AlienVault OTX")
	assert.True(t, keyed.IsConfigured())

	for _, name := range []string{"OpenSky Network", "GDELT", "RSS News"} {
		c, ok := reg.Get(name)
		require.True(t, ok, name)
		assert.True(t, c.IsConfigured(), "%s needs no key", name)
	}
}

func TestPacingSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	get := func(cfg Config, n int) time.Duration {
		c := transport.New("paced", cfg.pacing())
		start := time.Now()
		for range n {
			require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil))
		}
		return time.Since(start)
	}

	// Burst 1 at 20 rps: the second and third requests wait ~50ms each.
	assert.GreaterOrEqual(t, get(Config{RequestsPerSecond: 20, Burst: 1}, 3), 90*time.Millisecond)

	// The default burst lets a feed's first requests out immediately.
	assert.Less(t, get(Config{}, constants.ConnectorRequestBurst), time.Second)
}
