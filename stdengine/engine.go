// Package stdengine implements sealpost.CryptoEngine on Go's standard
// cryptography: RSASSA-PKCS1v15 signatures, RSA-OAEP key wrapping and AES in
// CBC, CTR or GCM mode, as selected by the security profile's cipher triple.
// Keys are exchanged in PKCS#1 DER form.
package stdengine

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"

	_ "crypto/sha1"
	_ "crypto/sha512"

	sealpost "github.com/sealpost/client-go"
)

// gcmNonceSize is the standard GCM nonce length.
const gcmNonceSize = 12

// Engine is a profile-bound RSA+AES crypto engine. Stateless per call and
// safe for concurrent use.
type Engine struct {
	profile *sealpost.SecurityProfile
	mode    string
	random  io.Reader
}

var _ sealpost.CryptoEngine = (*Engine)(nil)

// New validates that the profile's algorithms are available and returns an
// engine bound to it.
func New(profile *sealpost.SecurityProfile) (*Engine, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: nil profile", sealpost.ErrUnsupportedAlgorithm)
	}
	if _, err := hashFunc(profile.HashAlgorithm()); err != nil {
		return nil, err
	}

	c := profile.SymmetricCipher()
	if c.Algorithm != sealpost.CipherAlgorithmAES {
		return nil, fmt.Errorf("%w: symmetric algorithm %q", sealpost.ErrUnsupportedAlgorithm, c.Algorithm)
	}
	switch {
	case c.Mode == sealpost.CipherModeCBC && c.Padding == sealpost.CipherPaddingPKCS7:
	case c.Mode == sealpost.CipherModeCTR && c.Padding == sealpost.CipherPaddingNone:
	case c.Mode == sealpost.CipherModeGCM && c.Padding == sealpost.CipherPaddingNone:
	default:
		return nil, fmt.Errorf("%w: cipher %s", sealpost.ErrUnsupportedAlgorithm, c)
	}

	switch profile.SymmetricKeyBits() {
	case 128, 192, 256:
	default:
		return nil, fmt.Errorf("%w: AES key size %d", sealpost.ErrInvalidKeyMaterial, profile.SymmetricKeyBits())
	}

	return &Engine{profile: profile, mode: c.Mode, random: rand.Reader}, nil
}

// Profile returns the profile the engine was built with.
func (e *Engine) Profile() *sealpost.SecurityProfile { return e.profile }

func hashFunc(algorithm sealpost.HashAlgorithm) (crypto.Hash, error) {
	var h crypto.Hash
	switch algorithm {
	case sealpost.SHA1:
		h = crypto.SHA1
	case sealpost.SHA256:
		h = crypto.SHA256
	case sealpost.SHA384:
		h = crypto.SHA384
	case sealpost.SHA512:
		h = crypto.SHA512
	default:
		return 0, fmt.Errorf("%w: %s", sealpost.ErrUnsupportedAlgorithm, algorithm)
	}
	if !h.Available() {
		return 0, fmt.Errorf("%w: %s not linked in", sealpost.ErrUnsupportedAlgorithm, algorithm)
	}
	return h, nil
}

// Hash computes the digest of data with the named algorithm.
func (e *Engine) Hash(data []byte, algorithm sealpost.HashAlgorithm) ([]byte, error) {
	h, err := hashFunc(algorithm)
	if err != nil {
		return nil, err
	}
	digest := h.New()
	digest.Write(data)
	return digest.Sum(nil), nil
}

// Sign signs data with an RSASSA-PKCS1v15 signature under the profile's hash.
func (e *Engine) Sign(data, signingPrivateKey []byte) ([]byte, error) {
	h, err := hashFunc(e.profile.HashAlgorithm())
	if err != nil {
		return nil, err
	}
	priv, err := x509.ParsePKCS1PrivateKey(signingPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	digest, err := e.Hash(data, e.profile.HashAlgorithm())
	if err != nil {
		return nil, err
	}
	return rsa.SignPKCS1v15(e.random, priv, h, digest)
}

// Verify reports whether signature is valid. Malformed keys, unknown hashes
// and mismatches all yield false; Verify never returns an error.
func (e *Engine) Verify(signingPublicKey, data, signature []byte, hash sealpost.HashAlgorithm) bool {
	h, err := hashFunc(hash)
	if err != nil {
		return false
	}
	pub, err := x509.ParsePKCS1PublicKey(signingPublicKey)
	if err != nil {
		return false
	}
	digest, err := e.Hash(data, hash)
	if err != nil {
		return false
	}
	return rsa.VerifyPKCS1v15(pub, h, digest, signature) == nil
}

func (e *Engine) checkSymmetricSizes(key, iv []byte) error {
	if len(key) != e.profile.SymmetricKeyBits()/8 {
		return fmt.Errorf("%w: key length %d, want %d", sealpost.ErrInvalidKeyMaterial, len(key), e.profile.SymmetricKeyBits()/8)
	}
	if len(iv) != e.IVSize() {
		return fmt.Errorf("%w: IV length %d, want %d", sealpost.ErrInvalidKeyMaterial, len(iv), e.IVSize())
	}
	return nil
}

// SymmetricEncrypt encrypts plaintext with the profile's AES mode.
func (e *Engine) SymmetricEncrypt(plaintext, key, iv []byte) ([]byte, error) {
	if err := e.checkSymmetricSizes(key, iv); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	switch e.mode {
	case sealpost.CipherModeCBC:
		padded := pkcs7Pad(plaintext, aes.BlockSize)
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
		return out, nil
	case sealpost.CipherModeCTR:
		out := make([]byte, len(plaintext))
		cipher.NewCTR(block, iv).XORKeyStream(out, plaintext)
		return out, nil
	case sealpost.CipherModeGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
		}
		return gcm.Seal(nil, iv, plaintext, nil), nil
	default:
		return nil, fmt.Errorf("%w: mode %s", sealpost.ErrUnsupportedAlgorithm, e.mode)
	}
}

// SymmetricDecrypt is the inverse of SymmetricEncrypt.
func (e *Engine) SymmetricDecrypt(ciphertext, key, iv []byte) ([]byte, error) {
	if err := e.checkSymmetricSizes(key, iv); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	switch e.mode {
	case sealpost.CipherModeCBC:
		if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
			return nil, fmt.Errorf("%w: ciphertext length %d", sealpost.ErrMalformedPayload, len(ciphertext))
		}
		out := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
		return pkcs7Unpad(out, aes.BlockSize)
	case sealpost.CipherModeCTR:
		out := make([]byte, len(ciphertext))
		cipher.NewCTR(block, iv).XORKeyStream(out, ciphertext)
		return out, nil
	case sealpost.CipherModeGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
		}
		out, err := gcm.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, sealpost.ErrIntegrityViolation
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: mode %s", sealpost.ErrUnsupportedAlgorithm, e.mode)
	}
}

// AsymmetricEncrypt wraps a short payload with RSA-OAEP/SHA-256. Payload
// length is bounded by the key size minus OAEP overhead; only key+IV bundles
// belong here.
func (e *Engine) AsymmetricEncrypt(publicKey, data []byte) ([]byte, error) {
	pub, err := x509.ParsePKCS1PublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	out, err := rsa.EncryptOAEP(sha256.New(), e.random, pub, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	return out, nil
}

// AsymmetricDecrypt is the inverse of AsymmetricEncrypt. A wrap produced for
// a different key fails with ErrInvalidKeyMaterial, never with silently
// wrong plaintext.
func (e *Engine) AsymmetricDecrypt(privateKey, data []byte) ([]byte, error) {
	priv, err := x509.ParsePKCS1PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	out, err := rsa.DecryptOAEP(sha256.New(), nil, priv, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sealpost.ErrInvalidKeyMaterial, err)
	}
	return out, nil
}

// GenerateKeyPair generates an RSA key pair. Both kinds use RSA; kind exists
// so other engines can pick different algorithms per role. Blobs are PKCS#1
// DER.
func (e *Engine) GenerateKeyPair(kind sealpost.KeyPairKind, bits int) ([]byte, []byte, error) {
	switch kind {
	case sealpost.SigningKeyPair, sealpost.EncryptionKeyPair:
	default:
		return nil, nil, fmt.Errorf("%w: key pair kind %d", sealpost.ErrUnsupportedAlgorithm, kind)
	}
	key, err := rsa.GenerateKey(e.random, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate RSA-%d key: %w", bits, err)
	}
	return x509.MarshalPKCS1PrivateKey(key), x509.MarshalPKCS1PublicKey(&key.PublicKey), nil
}

// NewSymmetricVariables returns a fresh random key and IV for the profile's
// cipher.
func (e *Engine) NewSymmetricVariables() (*sealpost.SymmetricVariables, error) {
	key := make([]byte, e.profile.SymmetricKeyBits()/8)
	if _, err := io.ReadFull(e.random, key); err != nil {
		return nil, fmt.Errorf("generate symmetric key: %w", err)
	}
	iv := make([]byte, e.IVSize())
	if _, err := io.ReadFull(e.random, iv); err != nil {
		return nil, fmt.Errorf("generate IV: %w", err)
	}
	return &sealpost.SymmetricVariables{Key: key, IV: iv}, nil
}

// IVSize returns the IV length of the profile's cipher mode.
func (e *Engine) IVSize() int {
	if e.mode == sealpost.CipherModeGCM {
		return gcmNonceSize
	}
	return aes.BlockSize
}
