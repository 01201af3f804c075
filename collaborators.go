package sealpost

import (
	"context"
	"io"
	"time"
)

// BlobStorage stores envelope blobs. Implementations must make uploads
// atomic (no partially written blob is ever readable at the returned
// location) and garbage-collect content at or after its expiration.
type BlobStorage interface {
	// CreateContainerIfNotExist prepares the backing container. Idempotent.
	CreateContainerIfNotExist(ctx context.Context) error

	// Upload stores content and returns the location it can be fetched
	// from until expiration. contentType and contentEncoding may be empty.
	Upload(ctx context.Context, content io.Reader, expiration time.Time, contentType, contentEncoding string) (string, error)

	// Download fetches a blob by location. An expired or unknown blob
	// yields a *StorageError with NotFound set, never stale content.
	Download(ctx context.Context, location string) ([]byte, error)
}

// InboxItem is one pending notification in a relay inbox.
type InboxItem struct {
	// ID identifies the item for acknowledgment.
	ID string
	// Payload is the notification wire bytes.
	Payload []byte
}

// InboxTransport moves notifications to and from relay inboxes. Poll may
// long-poll; every method must honor context cancellation.
type InboxTransport interface {
	// Push delivers a notification payload to a recipient's inbox.
	Push(ctx context.Context, inboxAddress string, payload []byte) error

	// Poll returns the pending items in one's own inbox, oldest first.
	// Items remain pending until acknowledged.
	Poll(ctx context.Context, inboxAddress string) ([]InboxItem, error)

	// Acknowledge removes a consumed item so it is not redelivered.
	Acknowledge(ctx context.Context, inboxAddress, itemID string) error
}

// URLShortener shortens envelope locations before they are pushed to
// inboxes. Optional collaborator; failures fall back to the long URI.
type URLShortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}
