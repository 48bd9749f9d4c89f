package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/pkg/errors"
)

func TestAuthenticators(t *testing.T) {
	t.Run("no auth", func(t *testing.T) {
		req := &http.Request{Header: make(http.Header)}
		(&NoAuth{}).Apply(req, "key")
		assert.Empty(t, req.Header)
	})

	t.Run("bearer", func(t *testing.T) {
		req := &http.Request{Header: make(http.Header)}
		(&BearerAuth{}).Apply(req, "key")
		assert.Equal(t, "Bearer key", req.Header.Get("Authorization"))
	})

	t.Run("header", func(t *testing.T) {
		req := &http.Request{Header: make(http.Header)}
		(&HeaderAuth{Header: "X-OTX-API-KEY"}).Apply(req, "key")
		assert.Equal(t, "key", req.Header.Get("X-OTX-API-KEY"))
		assert.Empty(t, req.Header.Get("Authorization"))
	})

	t.Run("query keeps existing params", func(t *testing.T) {
		u, _ := url.Parse("https://example.com/feed?limit=5")
		req := &http.Request{URL: u, Header: make(http.Header)}
		(&QueryAuth{Param: "api_key"}).Apply(req, "key")
		assert.Equal(t, "key", req.URL.Query().Get("api_key"))
		assert.Equal(t, "5", req.URL.Query().Get("limit"))
	})

	t.Run("basic", func(t *testing.T) {
		req := &http.Request{Header: make(http.Header)}
		(&BasicAuth{Username: "pilot"}).Apply(req, "pw")
		user, pass, ok := req.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "pilot", user)
		assert.Equal(t, "pw", pass)
	})

	t.Run("query with nil url", func(t *testing.T) {
		req := &http.Request{Header: make(http.Header)}
		assert.NotPanics(t, func() { (&QueryAuth{Param: "k"}).Apply(req, "key") })
	})
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"count": 3}`))
	}))
	defer srv.Close()

	c := New("test", WithAuth(&HeaderAuth{Header: "X-Key"}, "secret"), WithRateLimit(100, 1))
	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, 3, out.Count)
}

func TestGetJSONNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	err := New("usgs").GetJSON(context.Background(), srv.URL, &struct{}{})
	require.Error(t, err)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "usgs", apiErr.Upstream)
	assert.Equal(t, "maintenance", apiErr.Message)
	assert.True(t, errors.IsUpstreamUnavailable(err))
}

func TestGetJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	err := New("usgs").GetJSON(context.Background(), srv.URL, &struct{}{})
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestSendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	var out map[string]string
	err := New("qdrant").SendJSON(context.Background(), http.MethodPut, srv.URL, map[string]int{"a": 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out["status"])
}

func TestRateLimitHonorsContext(t *testing.T) {
	c := New("slow", WithRateLimit(0.001, 1))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.GetJSON(ctx, srv.URL, nil))
}

func TestGetBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "application/rss+xml", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer srv.Close()

	c := New("feed")
	body, err := c.GetBody(context.Background(), srv.URL+"/rss", "application/rss+xml")
	require.NoError(t, err)
	assert.Equal(t, "<rss/>", string(body))

	_, err = c.GetBody(context.Background(), srv.URL+"/missing", "")
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
