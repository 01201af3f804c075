package sealpost

import (
	"bytes"
	"fmt"
)

// Endpoint is a party's public identity: the keys needed to encrypt to them
// and verify their signatures, plus the relay inbox where they pick up
// notifications. Key bytes are the canonical exported forms consumed by the
// CryptoEngine.
type Endpoint struct {
	EncryptionPublicKey []byte `json:"encryptionPublicKey"`
	SigningPublicKey    []byte `json:"signingPublicKey"`
	InboxAddress        string `json:"inboxAddress"`
}

// Equal reports whether two endpoints denote the same party. Identity is the
// public key material, not the inbox address and not pointer identity.
func (e *Endpoint) Equal(other *Endpoint) bool {
	if e == nil || other == nil {
		return e == other
	}
	return bytes.Equal(e.EncryptionPublicKey, other.EncryptionPublicKey) &&
		bytes.Equal(e.SigningPublicKey, other.SigningPublicKey)
}

// clone returns a deep copy so callers cannot mutate shared key slices.
func (e *Endpoint) clone() *Endpoint {
	return &Endpoint{
		EncryptionPublicKey: append([]byte(nil), e.EncryptionPublicKey...),
		SigningPublicKey:    append([]byte(nil), e.SigningPublicKey...),
		InboxAddress:        e.InboxAddress,
	}
}

// OwnEndpoint is an Endpoint together with the corresponding private keys.
// The private halves live in unexported fields: they are never serialized and
// never leave the process. Key material is read concurrently by in-flight
// seal/open calls and never mutated after construction.
type OwnEndpoint struct {
	Endpoint

	encryptionPrivateKey []byte
	signingPrivateKey    []byte
}

// NewOwnEndpoint generates fresh encryption and signing key pairs at the
// engine profile's sizes and binds them to the given inbox address.
func NewOwnEndpoint(engine CryptoEngine, inboxAddress string) (*OwnEndpoint, error) {
	profile := engine.Profile()

	encPriv, encPub, err := engine.GenerateKeyPair(EncryptionKeyPair, profile.EncryptionKeyBits())
	if err != nil {
		return nil, fmt.Errorf("generate encryption key pair: %w", err)
	}
	sigPriv, sigPub, err := engine.GenerateKeyPair(SigningKeyPair, profile.SignatureKeyBits())
	if err != nil {
		return nil, fmt.Errorf("generate signing key pair: %w", err)
	}

	return &OwnEndpoint{
		Endpoint: Endpoint{
			EncryptionPublicKey: encPub,
			SigningPublicKey:    sigPub,
			InboxAddress:        inboxAddress,
		},
		encryptionPrivateKey: encPriv,
		signingPrivateKey:    sigPriv,
	}, nil
}

// OwnEndpointFromKeys reconstructs an OwnEndpoint from stored key material.
func OwnEndpointFromKeys(public Endpoint, encryptionPrivateKey, signingPrivateKey []byte) *OwnEndpoint {
	return &OwnEndpoint{
		Endpoint:             public,
		encryptionPrivateKey: encryptionPrivateKey,
		signingPrivateKey:    signingPrivateKey,
	}
}

// PublicEndpoint returns the shareable half of the identity, suitable for
// publishing to contacts. The copy carries no private material.
func (o *OwnEndpoint) PublicEndpoint() *Endpoint {
	return o.Endpoint.clone()
}

// Destroy zeroes the private key material. The endpoint is unusable
// afterwards. Best effort.
func (o *OwnEndpoint) Destroy() {
	wipe(o.encryptionPrivateKey)
	wipe(o.signingPrivateKey)
}
