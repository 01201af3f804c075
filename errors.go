package sealpost

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks.
var (
	// ErrUnsupportedAlgorithm is returned when a profile names a hash or
	// cipher the engine has no implementation for.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrInvalidKeyMaterial is returned when a key or IV has the wrong
	// length or format for the configured cipher.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrIntegrityViolation is returned when signature verification fails.
	// The envelope must be discarded; its ciphertext is never decrypted.
	ErrIntegrityViolation = errors.New("signature verification failed")

	// ErrMalformedPayload is returned when wire data or decrypted plaintext
	// is structurally invalid.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrEmptyRecipientSet is returned when a message is posted to no one.
	ErrEmptyRecipientSet = errors.New("no recipients specified")

	// ErrKeyExportFailure is returned when a recipient's public encryption
	// key cannot be used to wrap the symmetric key.
	ErrKeyExportFailure = errors.New("cannot wrap key for recipient")

	// ErrWaitTimeout is returned by WaitForMessages when the wait deadline
	// passes with no messages delivered.
	ErrWaitTimeout = errors.New("timed out waiting for messages")
)

// StorageError reports a failure talking to the blob storage collaborator.
// These are transient from the protocol's point of view; callers may retry
// the operation, unlike the terminal protocol errors above.
type StorageError struct {
	// Op is the storage operation that failed ("upload", "download", ...).
	Op string
	// Location is the blob location involved, when known.
	Location string
	// NotFound indicates the blob does not exist (expired or never written).
	NotFound bool
	// Err is the underlying cause.
	Err error
}

func (e *StorageError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("blob %s %s: %v", e.Op, e.Location, e.Err)
	}
	return fmt.Sprintf("blob %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NotificationError reports a failure pushing a notification to one
// recipient's inbox. Other recipients' deliveries are unaffected.
type NotificationError struct {
	// Inbox is the recipient inbox address that could not be notified.
	Inbox string
	// Err is the underlying cause.
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify inbox %s: %v", e.Inbox, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// wipe zeroes b. Best effort; reduces the lifetime of secrets in memory.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
