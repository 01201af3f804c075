package sealpost

import "time"

// Message is the unit of communication: an opaque payload, the sender's
// public identity and a creation timestamp. Immutable once constructed; the
// whole structure is what ends up inside the envelope's ciphertext.
type Message struct {
	Sender      *Endpoint
	Payload     []byte
	CreationUTC time.Time
}

// NewMessage builds a message from sender stamped with the current time.
func NewMessage(sender *Endpoint, payload []byte) *Message {
	return &Message{
		Sender:      sender,
		Payload:     payload,
		CreationUTC: time.Now().UTC(),
	}
}

// marshalPlaintext serializes the message into the buffer that gets
// symmetrically encrypted. Layout (little-endian, length-prefixed fields):
// sender encryption key, sender signing key, sender inbox address, creation
// time in unix millis, payload.
func (m *Message) marshalPlaintext() []byte {
	var w wireWriter
	w.writeBytes(m.Sender.EncryptionPublicKey)
	w.writeBytes(m.Sender.SigningPublicKey)
	w.writeString(m.Sender.InboxAddress)
	w.writeInt64(m.CreationUTC.UnixMilli())
	w.writeBytes(m.Payload)
	return w.bytes()
}

// unmarshalPlaintext is the inverse of marshalPlaintext. Returns
// ErrMalformedPayload on any structural mismatch.
func unmarshalPlaintext(data []byte) (*Message, error) {
	r := &wireReader{data: data}
	sender := &Endpoint{
		EncryptionPublicKey: r.readBytes(),
		SigningPublicKey:    r.readBytes(),
		InboxAddress:        r.readString(),
	}
	millis := r.readInt64()
	payload := r.readBytes()
	if err := r.done(); err != nil {
		return nil, err
	}
	return &Message{
		Sender:      sender,
		Payload:     payload,
		CreationUTC: time.UnixMilli(millis).UTC(),
	}, nil
}
