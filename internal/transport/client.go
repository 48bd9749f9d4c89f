// Package transport is the shared HTTP client for upstream feeds and
// backends. It applies authentication, optional request pacing and maps
// non-200 responses to typed API errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
)

const userAgent = "osiris/1.0 (+https://github.com/agentstation/osiris)"

// Client provides HTTP client functionality with authentication.
type Client struct {
	upstream string
	http     *http.Client
	auth     Authenticator
	apiKey   string
	limiter  *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithAuth sets the authenticator and key applied to every request.
func WithAuth(auth Authenticator, apiKey string) Option {
	return func(c *Client) {
		c.auth = auth
		c.apiKey = apiKey
	}
}

// WithRateLimit paces outgoing requests. A zero or negative rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the named upstream.
func New(upstream string, opts ...Option) *Client {
	c := &Client{
		upstream: upstream,
		http:     &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:     &NoAuth{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upstream returns the name used in errors.
func (c *Client) Upstream() string {
	return c.upstream
}

// Do performs an HTTP request with authentication and pacing applied.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", userAgent)
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req.WithContext(ctx))
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	return c.Do(ctx, req)
}

// GetJSON performs a GET request and decodes a 200 response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, c.upstream, target)
}

// GetBody performs a GET request with the given Accept header and returns
// the body of a 200 response.
func (c *Client) GetBody(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return readOK(resp, c.upstream)
}

// SendJSON encodes body, sends it with the given method and decodes a 200
// response into target. A nil target discards the response body.
func (c *Client) SendJSON(ctx context.Context, method, url string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WrapParse("json", c.upstream, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.WrapResource("create", "request", method+" "+url, err)
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, c.upstream, target)
}

// DecodeResponse decodes a JSON response into the target structure.
// Non-200 responses become an *errors.APIError carrying the body.
func DecodeResponse(resp *http.Response, upstream string, target any) error {
	body, err := readOK(resp, upstream)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", upstream, err)
	}
	return nil
}

// readOK reads and closes the body. Non-200 responses become an
// *errors.APIError.
func readOK(resp *http.Response, upstream string) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapResource("read", "response body", upstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := errors.NewAPIError(upstream, resp.StatusCode, truncate(string(body), 512))
		if resp.Request != nil && resp.Request.URL != nil {
			apiErr.Endpoint = resp.Request.URL.String()
		}
		return nil, apiErr
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
