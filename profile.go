package sealpost

import (
	"fmt"
	"strings"
)

// HashAlgorithm identifies the hash used for signatures. The numeric values
// are the one-byte identifiers carried in the envelope wire format.
type HashAlgorithm uint8

const (
	SHA1 HashAlgorithm = iota + 1
	SHA256
	SHA384
	SHA512
)

// Valid reports whether h is a known algorithm identifier.
func (h HashAlgorithm) Valid() bool {
	return h >= SHA1 && h <= SHA512
}

func (h HashAlgorithm) String() string {
	switch h {
	case SHA1:
		return "SHA1"
	case SHA256:
		return "SHA256"
	case SHA384:
		return "SHA384"
	case SHA512:
		return "SHA512"
	default:
		return fmt.Sprintf("HashAlgorithm(%d)", uint8(h))
	}
}

// Cipher name components understood by the bundled engines.
const (
	CipherAlgorithmAES      = "AES"
	CipherAlgorithmChaCha20 = "CHACHA20"

	CipherModeCBC      = "CBC"
	CipherModeCTR      = "CTR"
	CipherModeGCM      = "GCM"
	CipherModePoly1305 = "POLY1305"

	CipherPaddingPKCS7 = "PKCS7"
	CipherPaddingNone  = "NOPADDING"
)

// SymmetricCipher names the symmetric algorithm, block mode and padding
// scheme as a triple, e.g. AES/CBC/PKCS7.
type SymmetricCipher struct {
	Algorithm string
	Mode      string
	Padding   string
}

func (c SymmetricCipher) String() string {
	return c.Algorithm + "/" + c.Mode + "/" + c.Padding
}

// ParseSymmetricCipher parses an "ALGORITHM/MODE/PADDING" triple.
func ParseSymmetricCipher(s string) (SymmetricCipher, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return SymmetricCipher{}, fmt.Errorf("%w: cipher triple %q", ErrMalformedPayload, s)
	}
	return SymmetricCipher{Algorithm: parts[0], Mode: parts[1], Padding: parts[2]}, nil
}

// SecurityProfile is an immutable bundle of algorithm choices and key sizes.
// Profiles of different strengths may coexist in one process; everything a
// recipient needs to decode an envelope travels in the wire format, so two
// parties on different profiles still interoperate.
type SecurityProfile struct {
	hash              HashAlgorithm
	cipher            SymmetricCipher
	encryptionKeyBits int
	signatureKeyBits  int
	symmetricKeyBits  int
}

// NewSecurityProfile validates and constructs a profile. All key sizes must
// be positive multiples of 8 and the cipher triple must be fully named.
func NewSecurityProfile(hash HashAlgorithm, cipher SymmetricCipher, encryptionKeyBits, signatureKeyBits, symmetricKeyBits int) (*SecurityProfile, error) {
	if !hash.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, hash)
	}
	if cipher.Algorithm == "" || cipher.Mode == "" || cipher.Padding == "" {
		return nil, fmt.Errorf("%w: incomplete cipher triple %q", ErrUnsupportedAlgorithm, cipher)
	}
	for _, bits := range []int{encryptionKeyBits, signatureKeyBits, symmetricKeyBits} {
		if bits <= 0 || bits%8 != 0 {
			return nil, fmt.Errorf("%w: key size %d is not a positive multiple of 8", ErrInvalidKeyMaterial, bits)
		}
	}
	return &SecurityProfile{
		hash:              hash,
		cipher:            cipher,
		encryptionKeyBits: encryptionKeyBits,
		signatureKeyBits:  signatureKeyBits,
		symmetricKeyBits:  symmetricKeyBits,
	}, nil
}

// HashAlgorithm returns the hash used for signatures.
func (p *SecurityProfile) HashAlgorithm() HashAlgorithm { return p.hash }

// SymmetricCipher returns the symmetric cipher triple.
func (p *SecurityProfile) SymmetricCipher() SymmetricCipher { return p.cipher }

// EncryptionKeyBits returns the asymmetric encryption key size.
func (p *SecurityProfile) EncryptionKeyBits() int { return p.encryptionKeyBits }

// SignatureKeyBits returns the signing key size.
func (p *SecurityProfile) SignatureKeyBits() int { return p.signatureKeyBits }

// SymmetricKeyBits returns the per-message symmetric key size.
func (p *SecurityProfile) SymmetricKeyBits() int { return p.symmetricKeyBits }

func mustProfile(hash HashAlgorithm, cipher SymmetricCipher, enc, sig, sym int) *SecurityProfile {
	p, err := NewSecurityProfile(hash, cipher, enc, sig, sym)
	if err != nil {
		panic(err)
	}
	return p
}

// MinimumProfile returns the weakest profile the module will interoperate
// with: SHA-256 signatures, AES-256-CBC with PKCS#7 padding, 2048-bit
// encryption keys and 1024-bit signature keys.
func MinimumProfile() *SecurityProfile {
	return mustProfile(SHA256,
		SymmetricCipher{CipherAlgorithmAES, CipherModeCBC, CipherPaddingPKCS7},
		2048, 1024, 256)
}

// RecommendedProfile returns the profile new deployments should use:
// SHA-512 signatures, AES-256-CBC with PKCS#7 padding and 4096-bit
// asymmetric keys.
func RecommendedProfile() *SecurityProfile {
	return mustProfile(SHA512,
		SymmetricCipher{CipherAlgorithmAES, CipherModeCBC, CipherPaddingPKCS7},
		4096, 4096, 256)
}
