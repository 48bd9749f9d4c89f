package cisakev

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
)

const fixture = `{
  "title": "CISA Catalog of Known Exploited Vulnerabilities",
  "vulnerabilities": [
    {
      "cveID": "CVE-2026-0001",
      "vendorProject": "Acme",
      "product": "Gateway",
      "vulnerabilityName": "Acme Gateway Remote Code Execution",
      "dateAdded": "2026-03-02",
      "shortDescription": "Acme Gateway contains an injection flaw.",
      "requiredAction": "Apply mitigations per vendor instructions.",
      "dueDate": "2026-03-23",
      "knownRansomwareCampaignUse": "Known"
    },
    {"cveID": "", "vulnerabilityName": "Mystery", "dateAdded": "not a date"}
  ]
}`

func serve(t *testing.T, status int, body string) *Connector {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(WithURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestFetch(t *testing.T) {
	c := serve(t, http.StatusOK, fixture)
	fixedNow := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixedNow }

	got, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	e := got[0]
	assert.Equal(t, "CVE-2026-0001: Acme Gateway Remote Code Execution", e.Title)
	assert.Equal(t, events.CategoryCyber, e.Type)
	assert.Equal(t, events.SeverityCritical, e.Severity)
	assert.Equal(t, "https://nvd.nist.gov/vuln/detail/CVE-2026-0001", e.URL)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), e.Timestamp)
	assert.InDelta(t, 38.8977, *e.Lat, 1e-9)
	assert.Equal(t, "Known", e.Metadata["known_ransomware"])
	assert.Equal(t, "Acme", e.Metadata["vendor"])

	unknown := got[1]
	assert.Equal(t, "Unknown: Mystery", unknown.Title)
	assert.Equal(t, fixedNow, unknown.Timestamp)
}

func TestFetchCapsAtFifty(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"vulnerabilities":[`)
	for i := range 80 {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"cveID":"CVE-2026-%04d","dateAdded":"2026-01-01"}`, i)
	}
	b.WriteString(`]}`)

	got, err := serve(t, http.StatusOK, b.String()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestFetchNon200IsError(t *testing.T) {
	_, err := serve(t, http.StatusNotFound, "gone").Fetch(context.Background())
	require.Error(t, err)
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
