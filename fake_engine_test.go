package sealpost

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"sync/atomic"
)

// fakeEngine is a deterministic CryptoEngine for protocol tests. It is not
// cryptography: "asymmetric encryption" tags data with the public key,
// "signatures" are HMAC-style digests derived from the key id. What matters
// is that it is invertible, keys pair up, and mismatches fail loudly.
type fakeEngine struct {
	profile *SecurityProfile
	pairSeq atomic.Int64
}

var _ CryptoEngine = (*fakeEngine)(nil)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{profile: MinimumProfile()}
}

func (e *fakeEngine) Profile() *SecurityProfile { return e.profile }

func (e *fakeEngine) IVSize() int { return 16 }

func (e *fakeEngine) keySize() int { return e.profile.SymmetricKeyBits() / 8 }

// xorStream XORs data with a keystream derived from key and iv.
func xorStream(data, key, iv []byte) []byte {
	out := make([]byte, len(data))
	var block [sha256.Size]byte
	for i := range data {
		if i%sha256.Size == 0 {
			h := sha256.New()
			h.Write(key)
			h.Write(iv)
			var ctr [8]byte
			binary.LittleEndian.PutUint64(ctr[:], uint64(i/sha256.Size))
			h.Write(ctr[:])
			h.Sum(block[:0])
		}
		out[i] = data[i] ^ block[i%sha256.Size]
	}
	return out
}

func (e *fakeEngine) SymmetricEncrypt(plaintext, key, iv []byte) ([]byte, error) {
	if len(key) != e.keySize() || len(iv) != e.IVSize() {
		return nil, ErrInvalidKeyMaterial
	}
	return xorStream(plaintext, key, iv), nil
}

func (e *fakeEngine) SymmetricDecrypt(ciphertext, key, iv []byte) ([]byte, error) {
	return e.SymmetricEncrypt(ciphertext, key, iv)
}

func (e *fakeEngine) AsymmetricEncrypt(publicKey, data []byte) ([]byte, error) {
	if !strings.HasPrefix(string(publicKey), "fake-pub:") {
		return nil, ErrInvalidKeyMaterial
	}
	var w wireWriter
	w.writeBytes(publicKey)
	w.writeBytes(data)
	return w.bytes(), nil
}

func (e *fakeEngine) AsymmetricDecrypt(privateKey, data []byte) ([]byte, error) {
	id, ok := strings.CutPrefix(string(privateKey), "fake-priv:")
	if !ok {
		return nil, ErrInvalidKeyMaterial
	}
	r := &wireReader{data: data}
	pub := r.readBytes()
	payload := r.readBytes()
	if err := r.done(); err != nil {
		return nil, ErrInvalidKeyMaterial
	}
	if string(pub) != "fake-pub:"+id {
		return nil, fmt.Errorf("%w: wrapped for a different key", ErrInvalidKeyMaterial)
	}
	return payload, nil
}

func fakeDigest(id string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte("fake-sig|" + id + "|"))
	h.Write(data)
	return h.Sum(nil)
}

func (e *fakeEngine) Sign(data, signingPrivateKey []byte) ([]byte, error) {
	id, ok := strings.CutPrefix(string(signingPrivateKey), "fake-priv:")
	if !ok {
		return nil, ErrInvalidKeyMaterial
	}
	return fakeDigest(id, data), nil
}

func (e *fakeEngine) Verify(signingPublicKey, data, signature []byte, hash HashAlgorithm) bool {
	id, ok := strings.CutPrefix(string(signingPublicKey), "fake-pub:")
	if !ok || !hash.Valid() {
		return false
	}
	return hmac.Equal(signature, fakeDigest(id, data))
}

func (e *fakeEngine) Hash(data []byte, algorithm HashAlgorithm) ([]byte, error) {
	if !algorithm.Valid() {
		return nil, ErrUnsupportedAlgorithm
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func (e *fakeEngine) GenerateKeyPair(kind KeyPairKind, bits int) ([]byte, []byte, error) {
	id := fmt.Sprintf("%d-%d", kind, e.pairSeq.Add(1))
	return []byte("fake-priv:" + id), []byte("fake-pub:" + id), nil
}

func (e *fakeEngine) NewSymmetricVariables() (*SymmetricVariables, error) {
	key := make([]byte, e.keySize())
	iv := make([]byte, e.IVSize())
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return &SymmetricVariables{Key: key, IV: iv}, nil
}

// newTestIdentity makes an OwnEndpoint backed by the fake engine.
func newTestIdentity(e *fakeEngine, inbox string) *OwnEndpoint {
	own, err := NewOwnEndpoint(e, inbox)
	if err != nil {
		panic(err)
	}
	return own
}
