package relay

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	sealpost "github.com/sealpost/client-go"
)

// Shortener is a URL-shortening client. Shortening is always best effort:
// the channel falls back to the long URI when it fails.
type Shortener struct {
	client   *Client
	endpoint string
}

var _ sealpost.URLShortener = (*Shortener)(nil)

// NewShortener binds the shortener at endpoint to a relay client. The
// endpoint is called as GET {endpoint}?url={long} and answers with the short
// URL as plain text.
func NewShortener(c *Client, endpoint string) *Shortener {
	return &Shortener{client: c, endpoint: strings.TrimRight(endpoint, "/")}
}

// Shorten returns a short URL for longURL.
func (s *Shortener) Shorten(ctx context.Context, longURL string) (string, error) {
	target := s.endpoint + "?url=" + url.QueryEscape(longURL)
	resp, err := s.client.do(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", parseAPIError(resp)
	}
	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	short := strings.TrimSpace(string(body))
	if u, err := url.Parse(short); err != nil || !u.IsAbs() {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "shortener returned an invalid URL"}
	}
	return short, nil
}
