package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	sealpost "github.com/sealpost/client-go"
)

// InboxTransport moves notifications through relay inboxes. An inbox address
// is itself a URL on the relay; pushing is a POST to it, polling a GET,
// acknowledging a DELETE of the item's sub-resource.
type InboxTransport struct {
	client   *Client
	longPoll bool
}

var _ sealpost.InboxTransport = (*InboxTransport)(nil)

// InboxOption configures the transport.
type InboxOption func(*InboxTransport)

// WithLongPoll makes Poll hold the request open until items arrive or the
// context is cancelled, instead of returning immediately.
func WithLongPoll() InboxOption {
	return func(t *InboxTransport) {
		t.longPoll = true
	}
}

// NewInboxTransport binds inbox operations to a relay client.
func NewInboxTransport(c *Client, opts ...InboxOption) *InboxTransport {
	t := &InboxTransport{client: c}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateInbox provisions a fresh inbox on the relay and returns its address.
func (t *InboxTransport) CreateInbox(ctx context.Context) (string, error) {
	resp, err := t.client.do(ctx, http.MethodPost, t.client.baseURL+"/inbox", nil, nil)
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
	var payload struct {
		InboxURL string `json:"inboxUrl"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.InboxURL == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "malformed create-inbox response"}
	}
	return payload.InboxURL, nil
}

// Push delivers a notification payload to a recipient's inbox.
func (t *InboxTransport) Push(ctx context.Context, inboxAddress string, payload []byte) error {
	headers := map[string]string{"Content-Type": "application/octet-stream"}
	resp, err := t.client.do(ctx, http.MethodPost, inboxAddress, headers, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// inboxItemWire is the relay's JSON for one pending item.
type inboxItemWire struct {
	ID      string `json:"id"`
	Payload string `json:"payload"` // standard base64
}

// Poll returns the pending items in one's own inbox, oldest first. With long
// polling enabled the request blocks server-side until something arrives;
// cancel the context to stop waiting.
func (t *InboxTransport) Poll(ctx context.Context, inboxAddress string) ([]sealpost.InboxItem, error) {
	target := inboxAddress
	if t.longPoll {
		sep := "?"
		if u, err := url.Parse(inboxAddress); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target += sep + "longPoll=true"
	}

	resp, err := t.client.do(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []inboxItemWire `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "malformed poll response"}
	}

	items := make([]sealpost.InboxItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		raw, err := base64.StdEncoding.DecodeString(item.Payload)
		if err != nil {
			// An item the relay mangled must not block the rest of the
			// batch. It stays unacknowledged on the server.
			continue
		}
		items = append(items, sealpost.InboxItem{ID: item.ID, Payload: raw})
	}
	return items, nil
}

// Acknowledge deletes a consumed item so it is not redelivered.
func (t *InboxTransport) Acknowledge(ctx context.Context, inboxAddress, itemID string) error {
	target := inboxAddress + "/" + url.PathEscape(itemID)
	resp, err := t.client.do(ctx, http.MethodDelete, target, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Already gone is as good as deleted.
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return parseAPIError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
