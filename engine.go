package sealpost

// KeyPairKind selects which kind of asymmetric key pair to generate.
type KeyPairKind int

const (
	// SigningKeyPair generates keys for Sign/Verify.
	SigningKeyPair KeyPairKind = iota
	// EncryptionKeyPair generates keys for AsymmetricEncrypt/AsymmetricDecrypt.
	EncryptionKeyPair
)

// SymmetricVariables is a single-use symmetric key and IV pair. It is
// generated fresh for every sealed envelope and must never encrypt two
// distinct plaintexts.
type SymmetricVariables struct {
	Key []byte
	IV  []byte
}

// Destroy zeroes the key material. Best effort.
func (v *SymmetricVariables) Destroy() {
	wipe(v.Key)
	wipe(v.IV)
}

// SymmetricEncryptionResult pairs freshly generated symmetric variables with
// the ciphertext they produced. The raw key is never persisted; it exists
// only until the sealing step wraps it for each recipient.
type SymmetricEncryptionResult struct {
	SymmetricVariables
	Ciphertext []byte
}

// CryptoEngine wraps the raw cryptographic primitives behind one capability
// interface. Every method is stateless given its inputs, so an engine is safe
// for concurrent use. Protocol logic is written purely against this
// interface; a deterministic fake suffices for testing it.
//
// An engine is constructed around a single SecurityProfile which fixes its
// key sizes, symmetric cipher and signing hash. Verify alone takes an
// explicit hash algorithm, because the envelope being verified may have been
// produced under a different profile than the local one.
type CryptoEngine interface {
	// Profile returns the immutable profile this engine was built with.
	Profile() *SecurityProfile

	// Sign signs data with the private signing key using the profile's
	// hash. Returns ErrUnsupportedAlgorithm if the hash has no signature
	// counterpart in this engine.
	Sign(data, signingPrivateKey []byte) ([]byte, error)

	// Verify reports whether signature is valid for data under the public
	// signing key and the named hash. It never fails with an error on
	// mismatch; any problem yields false.
	Verify(signingPublicKey, data, signature []byte, hash HashAlgorithm) bool

	// SymmetricEncrypt encrypts plaintext under key and iv with the
	// profile's cipher. Returns ErrInvalidKeyMaterial when key or iv do not
	// match the cipher's required sizes.
	SymmetricEncrypt(plaintext, key, iv []byte) ([]byte, error)

	// SymmetricDecrypt is the inverse of SymmetricEncrypt.
	SymmetricDecrypt(ciphertext, key, iv []byte) ([]byte, error)

	// AsymmetricEncrypt encrypts a short payload to a public key. Input
	// length is bounded by the key size minus padding overhead; callers
	// pass only the symmetric key+IV bundle through here, never the
	// message ciphertext itself.
	AsymmetricEncrypt(publicKey, data []byte) ([]byte, error)

	// AsymmetricDecrypt is the inverse of AsymmetricEncrypt.
	AsymmetricDecrypt(privateKey, data []byte) ([]byte, error)

	// Hash computes the digest of data with the named algorithm.
	Hash(data []byte, algorithm HashAlgorithm) ([]byte, error)

	// GenerateKeyPair generates a key pair of the given kind and size. The
	// returned blobs are the canonical exported forms consumed by the
	// other methods.
	GenerateKeyPair(kind KeyPairKind, bits int) (private, public []byte, err error)

	// NewSymmetricVariables returns a fresh random key and IV sized for
	// the profile's cipher.
	NewSymmetricVariables() (*SymmetricVariables, error)

	// IVSize returns the IV (or nonce) length in bytes of the profile's
	// cipher. Used to split an unwrapped key||iv bundle.
	IVSize() int
}
