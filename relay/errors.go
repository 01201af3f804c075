package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is an HTTP-level error from the relay.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	if e.Message != "" {
		return fmt.Sprintf("relay: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("relay: status %d", e.StatusCode)
}

// NotFound reports whether the resource is gone or never existed.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// parseAPIError builds an APIError from a non-2xx response, consuming the
// body. The relay sends {"error": "..."} on failures; anything else is kept
// verbatim.
func parseAPIError(resp *http.Response) *APIError {
	body, _ := readBody(resp)

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
}
