// Package transport provides the shared HTTP layer for knowledge-source
// clients: a timeout-bounded client, authenticator strategies, and a JSON
// decode helper that maps upstream status codes onto the error taxonomy.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/verdantlabs/florasynth/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = 30 * time.Second

// Client provides HTTP client functionality with authentication.
type Client struct {
	http   *http.Client
	auth   Authenticator
	apiKey string
	agent  string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the key the authenticator applies to each request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.Timeout = timeout }
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(agent string) Option {
	return func(c *Client) { c.agent = agent }
}

// New creates a new transport client with the specified authenticator.
func New(auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http: &http.Client{Timeout: DefaultHTTPTimeout},
		auth: auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with authentication and common headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	return c.http.Do(req)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapIO("create", "GET "+url, err)
	}
	return c.Do(req)
}

// GetJSON performs a GET request and decodes the JSON body into out.
// Non-2xx statuses become APIErrors carrying the source name, so callers can
// distinguish rate limiting and unavailability via errors.Is.
func (c *Client) GetJSON(ctx context.Context, source, url string, out any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return errors.WrapAPI(source, 0, err)
	}
	defer func() {
		// Drain any remaining body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewAPIError(source, resp.StatusCode, "unexpected status "+resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapParse("json", url, err)
	}
	return nil
}
