package sealpost_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	sealpost "github.com/sealpost/client-go"
	"github.com/sealpost/client-go/stdengine"
)

// blobStore and inboxHub are minimal in-memory collaborators for end-to-end
// tests with a real engine.
type blobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	n     int
}

func (s *blobStore) CreateContainerIfNotExist(ctx context.Context) error { return nil }

func (s *blobStore) Upload(ctx context.Context, content io.Reader, expiration time.Time, contentType, contentEncoding string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = make(map[string][]byte)
	}
	s.n++
	location := "test://blobs/" + strconv.Itoa(s.n)
	s.blobs[location] = data
	return location, nil
}

func (s *blobStore) Download(ctx context.Context, location string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[location]
	if !ok {
		return nil, &sealpost.StorageError{Op: "download", Location: location, NotFound: true, Err: errors.New("no such blob")}
	}
	return data, nil
}

type inboxHub struct {
	mu      sync.Mutex
	inboxes map[string][]sealpost.InboxItem
	nextID  int
}

func (h *inboxHub) Push(ctx context.Context, inboxAddress string, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inboxes == nil {
		h.inboxes = make(map[string][]sealpost.InboxItem)
	}
	h.nextID++
	h.inboxes[inboxAddress] = append(h.inboxes[inboxAddress], sealpost.InboxItem{
		ID:      strconv.Itoa(h.nextID),
		Payload: payload,
	})
	return nil
}

func (h *inboxHub) Poll(ctx context.Context, inboxAddress string) ([]sealpost.InboxItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sealpost.InboxItem(nil), h.inboxes[inboxAddress]...), nil
}

func (h *inboxHub) Acknowledge(ctx context.Context, inboxAddress, itemID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	items := h.inboxes[inboxAddress]
	for i, item := range items {
		if item.ID == itemID {
			h.inboxes[inboxAddress] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return errors.New("unknown item")
}

// TestTwoRecipientDelivery runs the full path with the RSA+AES engine: a
// sender posts one message to two recipients through shared storage, both
// recover it, and an uninvolved party sees nothing.
func TestTwoRecipientDelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("RSA key generation in -short mode")
	}
	engine, err := stdengine.New(sealpost.MinimumProfile())
	if err != nil {
		t.Fatal(err)
	}

	storage := &blobStore{}
	hub := &inboxHub{}
	ctx := context.Background()

	newParty := func(inbox string) (*sealpost.OwnEndpoint, *sealpost.Channel) {
		t.Helper()
		own, err := sealpost.NewOwnEndpoint(engine, inbox)
		if err != nil {
			t.Fatal(err)
		}
		ch, err := sealpost.New(own, engine, storage, hub)
		if err != nil {
			t.Fatal(err)
		}
		return own, ch
	}

	sender, senderCh := newParty("test://inbox/sender")
	r1, ch1 := newParty("test://inbox/r1")
	r2, ch2 := newParty("test://inbox/r2")
	_, bystanderCh := newParty("test://inbox/bystander")

	msg := sealpost.NewMessage(sender.PublicEndpoint(), []byte("hello"))
	result, err := senderCh.Post(ctx, msg, []*sealpost.Endpoint{r1.PublicEndpoint(), r2.PublicEndpoint()}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if !result.AllSucceeded() {
		t.Fatalf("outcomes = %+v", result.Recipients)
	}
	if storage.n != 1 {
		t.Fatalf("uploads = %d, want a single shared envelope", storage.n)
	}

	for name, ch := range map[string]*sealpost.Channel{"r1": ch1, "r2": ch2} {
		got, err := ch.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive(%s) error = %v", name, err)
		}
		if len(got.Messages) != 1 {
			t.Fatalf("Receive(%s) = %d messages", name, len(got.Messages))
		}
		m := got.Messages[0]
		if !bytes.Equal(m.Payload, []byte("hello")) {
			t.Errorf("%s payload = %q", name, m.Payload)
		}
		if !m.Sender.Equal(sender.PublicEndpoint()) {
			t.Errorf("%s sender identity mismatch", name)
		}
	}

	// The bystander was never notified and cannot see the message.
	got, err := bystanderCh.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 0 || len(got.Skipped) != 0 {
		t.Errorf("bystander received %d messages, %d skipped", len(got.Messages), len(got.Skipped))
	}
}

// TestWrappedKeyIsPerRecipient checks that a recipient's wrapped key is
// useless to anyone else even when they hold the envelope.
func TestWrappedKeyIsPerRecipient(t *testing.T) {
	if testing.Short() {
		t.Skip("RSA key generation in -short mode")
	}
	engine, err := stdengine.New(sealpost.MinimumProfile())
	if err != nil {
		t.Fatal(err)
	}

	sender, err := sealpost.NewOwnEndpoint(engine, "test://inbox/s")
	if err != nil {
		t.Fatal(err)
	}
	recipient, err := sealpost.NewOwnEndpoint(engine, "test://inbox/r")
	if err != nil {
		t.Fatal(err)
	}
	outsider, err := sealpost.NewOwnEndpoint(engine, "test://inbox/x")
	if err != nil {
		t.Fatal(err)
	}

	msg := sealpost.NewMessage(sender.PublicEndpoint(), []byte("for one pair of eyes"))
	env, wrapped, err := sealpost.SealEnvelope(engine, msg, sender, []*sealpost.Endpoint{recipient.PublicEndpoint()})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := sealpost.OpenEnvelope(engine, env, wrapped[0], recipient); err != nil {
		t.Fatalf("intended recipient failed to open: %v", err)
	}
	if _, err := sealpost.OpenEnvelope(engine, env, wrapped[0], outsider); !errors.Is(err, sealpost.ErrInvalidKeyMaterial) {
		t.Fatalf("outsider open error = %v, want ErrInvalidKeyMaterial", err)
	}
}
