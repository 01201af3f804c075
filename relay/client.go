package relay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultTimeout = 60 * time.Second

// Client is the shared HTTP layer under the relay bindings. It owns the base
// URL, authentication, retry policy and optional outbound rate limit.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	retry      *RetryConfig
	limiter    *rate.Limiter
}

// Option configures the relay client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAuthToken sends a bearer token on every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(rc *RetryConfig) Option {
	return func(c *Client) {
		c.retry = rc
	}
}

// WithRateLimit caps outbound requests at rps with the given burst. Useful
// when fanning out notifications to many inboxes on one relay.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a relay client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, &APIError{Message: "relay base URL is required"}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retry:      DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured relay base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// do issues one request with retry. The body is buffered so attempts can be
// replayed. Responses with status >= 400 are returned to the caller, not
// turned into errors here; bindings decide what a status means.
func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil || attempt >= c.retry.MaxRetries {
				return nil, err
			}
			if werr := c.retry.Wait(ctx, attempt); werr != nil {
				return nil, werr
			}
			continue
		}

		if c.retry.ShouldRetry(attempt, resp.StatusCode) {
			resp.Body.Close()
			if err := c.retry.Wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}
		return resp, nil
	}
}

// readBody drains and closes a response body.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
