package sealpost

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"
)

// Channel ties the envelope protocol to the storage and inbox collaborators:
// posting seals, uploads and fans out notifications; receiving polls,
// downloads, opens and acknowledges. A Channel is safe for concurrent use.
type Channel struct {
	own       *OwnEndpoint
	engine    CryptoEngine
	storage   BlobStorage
	transport InboxTransport

	shortener       URLShortener
	now             func() time.Time
	maxReceiveBatch int
}

// New creates a channel for the given identity. The engine supplies the
// cryptographic primitives, storage holds envelope blobs and transport moves
// inbox notifications.
func New(own *OwnEndpoint, engine CryptoEngine, storage BlobStorage, transport InboxTransport, opts ...Option) (*Channel, error) {
	if own == nil {
		return nil, fmt.Errorf("own endpoint is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("crypto engine is required")
	}
	if storage == nil || transport == nil {
		return nil, fmt.Errorf("blob storage and inbox transport are required")
	}

	cfg := &channelConfig{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Channel{
		own:             own,
		engine:          engine,
		storage:         storage,
		transport:       transport,
		shortener:       cfg.shortener,
		now:             cfg.now,
		maxReceiveBatch: cfg.maxReceiveBatch,
	}, nil
}

// RecipientOutcome is the delivery result for one recipient of a post.
type RecipientOutcome struct {
	Recipient *Endpoint
	// Err is nil on success, otherwise a *NotificationError.
	Err error
}

// PostResult reports one post. The envelope upload either succeeded for
// everyone or Post returned an error; notification delivery is independent
// per recipient, so overall success means inspecting Recipients.
type PostResult struct {
	// Location is the (possibly shortened) URI the envelope was stored at.
	Location string
	// Recipients holds one outcome per recipient, in argument order.
	Recipients []RecipientOutcome
}

// Failed returns the outcomes for recipients whose notification failed.
func (r *PostResult) Failed() []RecipientOutcome {
	var failed []RecipientOutcome
	for _, o := range r.Recipients {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// AllSucceeded reports whether every recipient was notified.
func (r *PostResult) AllSucceeded() bool {
	return len(r.Failed()) == 0
}

// Post seals msg for the recipients, uploads the envelope once and notifies
// each recipient's inbox.
//
// The upload completes before any notification referencing its location is
// dispatched, so no recipient can race a not-yet-durable blob. Notification
// pushes then run concurrently and independently: one recipient's failure
// never blocks the others and is reported in the result set rather than as
// an error. Post itself returns an error only when nothing was delivered to
// anyone (empty recipient set, sealing failure, upload failure).
func (c *Channel) Post(ctx context.Context, msg *Message, recipients []*Endpoint, expiration time.Time) (*PostResult, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformedPayload)
	}
	if msg.CreationUTC.IsZero() {
		stamped := *msg
		stamped.CreationUTC = c.now()
		msg = &stamped
	}

	env, wrapped, err := SealEnvelope(c.engine, msg, c.own, recipients)
	if err != nil {
		return nil, err
	}

	data, err := env.MarshalBinary()
	if err != nil {
		return nil, err
	}

	location, err := c.storage.Upload(ctx, bytes.NewReader(data), expiration, "application/octet-stream", "")
	if err != nil {
		return nil, fmt.Errorf("upload envelope: %w", err)
	}

	// Best effort. A shortener failure falls back to the long URI.
	if c.shortener != nil {
		if short, err := c.shortener.Shorten(ctx, location); err == nil && short != "" {
			location = short
		}
	}

	outcomes := make([]RecipientOutcome, len(recipients))
	var wg sync.WaitGroup
	for i, recipient := range recipients {
		wg.Add(1)
		go func(i int, recipient *Endpoint) {
			defer wg.Done()
			outcomes[i] = RecipientOutcome{
				Recipient: recipient,
				Err:       c.notify(ctx, recipient, location, wrapped[i]),
			}
		}(i, recipient)
	}
	wg.Wait()

	return &PostResult{Location: location, Recipients: outcomes}, nil
}

func (c *Channel) notify(ctx context.Context, recipient *Endpoint, location string, wrappedKey []byte) error {
	n := Notification{Location: location, WrappedKey: wrappedKey}
	payload, err := n.MarshalBinary()
	if err == nil {
		err = c.transport.Push(ctx, recipient.InboxAddress, payload)
	}
	if err != nil {
		return &NotificationError{Inbox: recipient.InboxAddress, Err: err}
	}
	return nil
}

// SkippedItem records an inbox item Receive could not turn into a message,
// or a message whose acknowledgment failed (the message was still delivered
// and may be redelivered on a later poll).
type SkippedItem struct {
	ID  string
	Err error
}

// ReceiveResult is one poll's worth of inbox processing.
type ReceiveResult struct {
	// Messages in inbox retrieval order. No cross-sender ordering beyond that.
	Messages []*Message
	// Skipped lists items that failed individually.
	Skipped []SkippedItem
}

// Receive polls the channel's own inbox once, downloads and opens every
// referenced envelope, and acknowledges each successfully decrypted item.
//
// Failures are contained per item: a corrupt, tampered or expired entry is
// recorded in Skipped and never aborts the rest of the batch. Acknowledgment
// happens only after a message decrypts, preserving at-least-once delivery
// if the process dies mid-batch.
func (c *Channel) Receive(ctx context.Context) (*ReceiveResult, error) {
	items, err := c.transport.Poll(ctx, c.own.InboxAddress)
	if err != nil {
		return nil, fmt.Errorf("poll inbox: %w", err)
	}

	result := &ReceiveResult{}
	for _, item := range items {
		if c.maxReceiveBatch > 0 && len(result.Messages) >= c.maxReceiveBatch {
			break
		}
		msg, err := c.openItem(ctx, item)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedItem{ID: item.ID, Err: err})
			continue
		}
		result.Messages = append(result.Messages, msg)
		if err := c.transport.Acknowledge(ctx, c.own.InboxAddress, item.ID); err != nil {
			result.Skipped = append(result.Skipped, SkippedItem{
				ID:  item.ID,
				Err: fmt.Errorf("acknowledge: %w", err),
			})
		}
	}
	return result, nil
}

func (c *Channel) openItem(ctx context.Context, item InboxItem) (*Message, error) {
	var n Notification
	if err := n.UnmarshalBinary(item.Payload); err != nil {
		return nil, err
	}
	blob, err := c.storage.Download(ctx, n.Location)
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := env.UnmarshalBinary(blob); err != nil {
		return nil, err
	}
	return OpenEnvelope(c.engine, &env, n.WrappedKey, c.own)
}
