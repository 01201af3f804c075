// Package hpkeengine implements sealpost.CryptoEngine on a modern stack:
// HPKE (X25519/HKDF-SHA256, RFC 9180) for key wrapping, Ed25519 signatures
// and ChaCha20-Poly1305 as the symmetric cipher. Key sizes are fixed by the
// algorithms, so the engine carries its own profile.
package hpkeengine

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/cloudflare/circl/hpke"
	"github.com/cloudflare/circl/sign/ed25519"
	"golang.org/x/crypto/chacha20poly1305"

	sealpost "github.com/sealpost/client-go"
)

const (
	kemID  = hpke.KEM_X25519_HKDF_SHA256
	kdfID  = hpke.KDF_HKDF_SHA256
	aeadID = hpke.AEAD_AES128GCM
)

// wrapInfo domain-separates key wrapping from other HPKE uses of a key.
var wrapInfo = []byte("sealpost/wrapped-key/v1")

func defaultProfile() *sealpost.SecurityProfile {
	p, err := sealpost.NewSecurityProfile(
		sealpost.SHA512,
		sealpost.SymmetricCipher{
			Algorithm: sealpost.CipherAlgorithmChaCha20,
			Mode:      sealpost.CipherModePoly1305,
			Padding:   sealpost.CipherPaddingNone,
		},
		256, 256, 256,
	)
	if err != nil {
		panic(err)
	}
	return p
}

// Engine is the HPKE-based crypto engine. Stateless per call and safe for
// concurrent use.
type Engine struct {
	profile *sealpost.SecurityProfile
	random  io.Reader
}

var _ sealpost.CryptoEngine = (*Engine)(nil)

// New returns a ready engine.
func New() *Engine {
	return &Engine{profile: defaultProfile(), random: rand.Reader}
}

// Profile returns the engine's fixed profile.
func (e *Engine) Profile() *sealpost.SecurityProfile { return e.profile }

// Hash computes the digest of data with the named algorithm.
func (e *Engine) Hash(data []byte, algorithm sealpost.HashAlgorithm) ([]byte, error) {
	switch algorithm {
	case sealpost.SHA1:
		sum := sha1.Sum(data)
		return sum[:], nil
	case sealpost.SHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case sealpost.SHA384:
		sum := sha512.Sum384(data)
		return sum[:], nil
	case sealpost.SHA512:
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("%w: %s", sealpost.ErrUnsupportedAlgorithm, algorithm)
	}
}

// Sign signs data with Ed25519. EdDSA hashes internally, so the profile's
// hash names the envelope metadata rather than a tunable digest.
func (e *Engine) Sign(data, signingPrivateKey []byte) ([]byte, error) {
	if len(signingPrivateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: Ed25519 private key length %d", sealpost.ErrInvalidKeyMaterial, len(signingPrivateKey))
	}
	return ed25519.Sign(ed25519.PrivateKey(signingPrivateKey), data), nil
}

// Verify reports whether signature is valid for data. The hash parameter is
// accepted for interface compatibility; Ed25519 defines its own digest.
func (e *Engine) Verify(signingPublicKey, data, signature []byte, hash sealpost.HashAlgorithm) bool {
	if len(signingPublicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(signingPublicKey), data, signature)
}

// SymmetricEncrypt seals plaintext with ChaCha20-Poly1305. The IV is the
// 12-byte AEAD nonce.
func (e *Engine) SymmetricEncrypt(plaintext, key, iv []byte) ([]byte, error) {
	aead, err := newAEAD(key, iv)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}

// SymmetricDecrypt opens a ChaCha20-Poly1305 ciphertext.
func (e *Engine) SymmetricDecrypt(ciphertext, key, iv []byte) ([]byte, error) {
	aead, err := newAEAD(key, iv)
	if err != nil {
		return nil, err
	}
	out, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, sealpost.ErrIntegrityViolation
	}
	return out, nil
}

func newAEAD(key, iv []byte) (interface {
	Seal(dst, nonce, plaintext, aad []byte) []byte
	Open(dst, nonce, ciphertext, aad []byte) ([]byte, error)
}, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: key length %d, want %d", sealpost.ErrInvalidKeyMaterial, len(key), chacha20poly1305.KeySize)
	}
	if len(iv) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: nonce length %d, want %d", sealpost.ErrInvalidKeyMaterial, len(iv), chacha20poly1305.NonceSize)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	return aead, nil
}

// AsymmetricEncrypt wraps a short payload with single-shot HPKE. Output is
// the KEM encapsulation followed by the sealed payload.
func (e *Engine) AsymmetricEncrypt(publicKey, data []byte) ([]byte, error) {
	pub, err := kemID.Scheme().UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	suite := hpke.NewSuite(kemID, kdfID, aeadID)
	sender, err := suite.NewSender(pub, wrapInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	enc, sealer, err := sender.Setup(e.random)
	if err != nil {
		return nil, fmt.Errorf("hpke setup: %w", err)
	}
	ct, err := sealer.Seal(data, nil)
	if err != nil {
		return nil, fmt.Errorf("hpke seal: %w", err)
	}
	return append(enc, ct...), nil
}

// AsymmetricDecrypt is the inverse of AsymmetricEncrypt. A wrap produced for
// a different key fails with ErrInvalidKeyMaterial.
func (e *Engine) AsymmetricDecrypt(privateKey, data []byte) ([]byte, error) {
	priv, err := kemID.Scheme().UnmarshalBinaryPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	encSize := kemID.Scheme().CiphertextSize()
	if len(data) <= encSize {
		return nil, fmt.Errorf("%w: wrapped payload length %d", sealpost.ErrInvalidKeyMaterial, len(data))
	}
	suite := hpke.NewSuite(kemID, kdfID, aeadID)
	receiver, err := suite.NewReceiver(priv, wrapInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	opener, err := receiver.Setup(data[:encSize])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	out, err := opener.Open(data[encSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	return out, nil
}

// GenerateKeyPair generates Ed25519 signing keys or X25519 KEM encryption
// keys. bits is fixed by the curve and only validated for sanity.
func (e *Engine) GenerateKeyPair(kind sealpost.KeyPairKind, bits int) ([]byte, []byte, error) {
	if bits != 0 && bits != 256 {
		return nil, nil, fmt.Errorf("%w: key size %d, curve is fixed at 256", sealpost.ErrInvalidKeyMaterial, bits)
	}
	switch kind {
	case sealpost.SigningKeyPair:
		pub, priv, err := ed25519.GenerateKey(e.random)
		if err != nil {
			return nil, nil, fmt.Errorf("generate Ed25519 key: %w", err)
		}
		return []byte(priv), []byte(pub), nil
	case sealpost.EncryptionKeyPair:
		pub, priv, err := kemID.Scheme().GenerateKeyPair()
		if err != nil {
			return nil, nil, fmt.Errorf("generate X25519 key: %w", err)
		}
		privBytes, err := priv.MarshalBinary()
		if err != nil {
			return nil, nil, fmt.Errorf("export private key: %w", err)
		}
		pubBytes, err := pub.MarshalBinary()
		if err != nil {
			return nil, nil, fmt.Errorf("export public key: %w", err)
		}
		return privBytes, pubBytes, nil
	default:
		return nil, nil, fmt.Errorf("%w: key pair kind %d", sealpost.ErrUnsupportedAlgorithm, kind)
	}
}

// NewSymmetricVariables returns a fresh ChaCha20-Poly1305 key and nonce.
func (e *Engine) NewSymmetricVariables() (*sealpost.SymmetricVariables, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(e.random, key); err != nil {
		return nil, fmt.Errorf("generate symmetric key: %w", err)
	}
	iv := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(e.random, iv); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return &sealpost.SymmetricVariables{Key: key, IV: iv}, nil
}

// IVSize returns the AEAD nonce length.
func (e *Engine) IVSize() int { return chacha20poly1305.NonceSize }
