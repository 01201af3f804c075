package sealpost

import (
	"fmt"
	"time"
)

// Envelope is the signed, symmetrically encrypted message blob stored at a
// URI. It is recipient-agnostic: the per-recipient wrapped keys are delivered
// separately inside each recipient's inbox notification, so one cached blob
// serves any number of recipients without leaking the symmetric key.
type Envelope struct {
	// HashAlgorithm names the hash the signature was produced with. Carried
	// on the wire so a recipient on a different profile can still verify.
	HashAlgorithm HashAlgorithm
	// SenderSigningPublicKey verifies Signature.
	SenderSigningPublicKey []byte
	// CreationUTC is when the envelope was sealed.
	CreationUTC time.Time
	// Ciphertext is the symmetrically encrypted message.
	Ciphertext []byte
	// Signature covers Ciphertext.
	Signature []byte
}

// MarshalBinary encodes the envelope wire form: hash id (1 byte), signing
// key, creation time (int64 unix millis), ciphertext, signature. Integers
// little-endian, byte fields uint32-length-prefixed.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	if !e.HashAlgorithm.Valid() {
		return nil, fmt.Errorf("%w: hash id %d", ErrUnsupportedAlgorithm, e.HashAlgorithm)
	}
	var w wireWriter
	w.writeUint8(uint8(e.HashAlgorithm))
	w.writeBytes(e.SenderSigningPublicKey)
	w.writeInt64(e.CreationUTC.UnixMilli())
	w.writeBytes(e.Ciphertext)
	w.writeBytes(e.Signature)
	return w.bytes(), nil
}

// UnmarshalBinary decodes an envelope, rejecting truncated or padded input
// with ErrMalformedPayload and unknown hash ids with ErrUnsupportedAlgorithm.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	r := &wireReader{data: data}
	hash := HashAlgorithm(r.readUint8())
	signingKey := r.readBytes()
	millis := r.readInt64()
	ciphertext := r.readBytes()
	signature := r.readBytes()
	if err := r.done(); err != nil {
		return err
	}
	if !hash.Valid() {
		return fmt.Errorf("%w: hash id %d", ErrUnsupportedAlgorithm, hash)
	}
	e.HashAlgorithm = hash
	e.SenderSigningPublicKey = signingKey
	e.CreationUTC = time.UnixMilli(millis).UTC()
	e.Ciphertext = ciphertext
	e.Signature = signature
	return nil
}

// Notification is the small record pushed to one recipient's inbox: where to
// fetch the envelope and that recipient's wrapped copy of the symmetric key.
type Notification struct {
	// Location is the URI the envelope blob can be downloaded from.
	Location string
	// WrappedKey is the symmetric key+IV bundle encrypted to this
	// recipient's public encryption key.
	WrappedKey []byte
}

// MarshalBinary encodes the notification wire form: location (uint32 length
// + UTF-8), wrapped key (uint32 length + bytes), little-endian.
func (n *Notification) MarshalBinary() ([]byte, error) {
	var w wireWriter
	w.writeString(n.Location)
	w.writeBytes(n.WrappedKey)
	return w.bytes(), nil
}

// UnmarshalBinary decodes a notification.
func (n *Notification) UnmarshalBinary(data []byte) error {
	r := &wireReader{data: data}
	location := r.readString()
	wrapped := r.readBytes()
	if err := r.done(); err != nil {
		return err
	}
	if location == "" {
		return fmt.Errorf("%w: empty location", ErrMalformedPayload)
	}
	n.Location = location
	n.WrappedKey = wrapped
	return nil
}
