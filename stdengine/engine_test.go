package stdengine

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	sealpost "github.com/sealpost/client-go"
)

func mustProfile(t *testing.T, cipher string, symBits int) *sealpost.SecurityProfile {
	t.Helper()
	c, err := sealpost.ParseSymmetricCipher(cipher)
	if err != nil {
		t.Fatal(err)
	}
	p, err := sealpost.NewSecurityProfile(sealpost.SHA256, c, 1024, 1024, symBits)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newEngine(t *testing.T, cipher string, symBits int) *Engine {
	t.Helper()
	e, err := New(mustProfile(t, cipher, symBits))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNewRejectsUnsupported(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cipher  string
		symBits int
		wantErr error
	}{
		{"non-AES algorithm", "DES/CBC/PKCS7", 256, sealpost.ErrUnsupportedAlgorithm},
		{"CBC without padding", "AES/CBC/NOPADDING", 256, sealpost.ErrUnsupportedAlgorithm},
		{"CTR with padding", "AES/CTR/PKCS7", 256, sealpost.ErrUnsupportedAlgorithm},
		{"unknown mode", "AES/OFB/NOPADDING", 256, sealpost.ErrUnsupportedAlgorithm},
		{"bad AES key size", "AES/CBC/PKCS7", 88, sealpost.ErrInvalidKeyMaterial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(mustProfile(t, tt.cipher, tt.symBits)); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("nil profile", func(t *testing.T) {
		if _, err := New(nil); !errors.Is(err, sealpost.ErrUnsupportedAlgorithm) {
			t.Fatalf("error = %v, want ErrUnsupportedAlgorithm", err)
		}
	})
}

func TestSymmetricRoundTrip(t *testing.T) {
	t.Parallel()
	plaintexts := [][]byte{
		nil,
		[]byte("a"),
		[]byte("exactly sixteen!"),
		bytes.Repeat([]byte{0x42}, 1000),
	}

	for _, cipher := range []string{"AES/CBC/PKCS7", "AES/CTR/NOPADDING", "AES/GCM/NOPADDING"} {
		t.Run(cipher, func(t *testing.T) {
			engine := newEngine(t, cipher, 256)
			vars, err := engine.NewSymmetricVariables()
			if err != nil {
				t.Fatal(err)
			}
			for _, plaintext := range plaintexts {
				ciphertext, err := engine.SymmetricEncrypt(plaintext, vars.Key, vars.IV)
				if err != nil {
					t.Fatalf("encrypt %d bytes: %v", len(plaintext), err)
				}
				got, err := engine.SymmetricDecrypt(ciphertext, vars.Key, vars.IV)
				if err != nil {
					t.Fatalf("decrypt %d bytes: %v", len(plaintext), err)
				}
				if !bytes.Equal(got, plaintext) {
					t.Errorf("round trip of %d bytes mismatched", len(plaintext))
				}
			}
		})
	}
}

func TestSymmetricKeySizes(t *testing.T) {
	t.Parallel()
	for _, bits := range []int{128, 192, 256} {
		engine := newEngine(t, "AES/CBC/PKCS7", bits)
		vars, err := engine.NewSymmetricVariables()
		if err != nil {
			t.Fatal(err)
		}
		if len(vars.Key) != bits/8 {
			t.Errorf("key length = %d, want %d", len(vars.Key), bits/8)
		}
		if len(vars.IV) != engine.IVSize() {
			t.Errorf("IV length = %d, want %d", len(vars.IV), engine.IVSize())
		}
	}
}

func TestSymmetricWrongSizes(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/CBC/PKCS7", 256)

	shortKey := make([]byte, 16)
	iv := make([]byte, engine.IVSize())
	if _, err := engine.SymmetricEncrypt([]byte("x"), shortKey, iv); !errors.Is(err, sealpost.ErrInvalidKeyMaterial) {
		t.Errorf("short key: error = %v, want ErrInvalidKeyMaterial", err)
	}

	key := make([]byte, 32)
	if _, err := engine.SymmetricEncrypt([]byte("x"), key, iv[:4]); !errors.Is(err, sealpost.ErrInvalidKeyMaterial) {
		t.Errorf("short IV: error = %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestGCMTamperDetection(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/GCM/NOPADDING", 256)
	vars, err := engine.NewSymmetricVariables()
	if err != nil {
		t.Fatal(err)
	}
	ciphertext, err := engine.SymmetricEncrypt([]byte("authenticated"), vars.Key, vars.IV)
	if err != nil {
		t.Fatal(err)
	}
	ciphertext[0] ^= 0x01
	if _, err := engine.SymmetricDecrypt(ciphertext, vars.Key, vars.IV); !errors.Is(err, sealpost.ErrIntegrityViolation) {
		t.Fatalf("error = %v, want ErrIntegrityViolation", err)
	}
}

func TestCBCMalformedCiphertext(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/CBC/PKCS7", 256)
	vars, err := engine.NewSymmetricVariables()
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 1, 15, 17} {
		if _, err := engine.SymmetricDecrypt(make([]byte, n), vars.Key, vars.IV); !errors.Is(err, sealpost.ErrMalformedPayload) {
			t.Errorf("length %d: error = %v, want ErrMalformedPayload", n, err)
		}
	}
}

func TestSignVerify(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/CBC/PKCS7", 256)
	priv, pub, err := engine.GenerateKeyPair(sealpost.SigningKeyPair, 1024)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("signed content")
	signature, err := engine.Sign(data, priv)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if !engine.Verify(pub, data, signature, sealpost.SHA256) {
		t.Fatal("Verify() = false for a valid signature")
	}

	tampered := append([]byte(nil), data...)
	tampered[0] ^= 0xff
	if engine.Verify(pub, tampered, signature, sealpost.SHA256) {
		t.Error("Verify() = true for tampered data")
	}
	if engine.Verify(pub, data, signature, sealpost.SHA512) {
		t.Error("Verify() = true under a different hash")
	}
	if engine.Verify([]byte("not a key"), data, signature, sealpost.SHA256) {
		t.Error("Verify() = true with a malformed public key")
	}
	if engine.Verify(pub, data, signature, sealpost.HashAlgorithm(99)) {
		t.Error("Verify() = true with an unknown hash")
	}
}

func TestSignBadKey(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/CBC/PKCS7", 256)
	if _, err := engine.Sign([]byte("x"), []byte("junk")); !errors.Is(err, sealpost.ErrInvalidKeyMaterial) {
		t.Fatalf("error = %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestAsymmetricRoundTrip(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/CBC/PKCS7", 256)
	priv, pub, err := engine.GenerateKeyPair(sealpost.EncryptionKeyPair, 1024)
	if err != nil {
		t.Fatal(err)
	}

	bundle := bytes.Repeat([]byte{0x7f}, 48)
	wrapped, err := engine.AsymmetricEncrypt(pub, bundle)
	if err != nil {
		t.Fatalf("AsymmetricEncrypt() error = %v", err)
	}
	got, err := engine.AsymmetricDecrypt(priv, wrapped)
	if err != nil {
		t.Fatalf("AsymmetricDecrypt() error = %v", err)
	}
	if !bytes.Equal(got, bundle) {
		t.Error("round trip mismatch")
	}

	otherPriv, _, err := engine.GenerateKeyPair(sealpost.EncryptionKeyPair, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.AsymmetricDecrypt(otherPriv, wrapped); !errors.Is(err, sealpost.ErrInvalidKeyMaterial) {
		t.Fatalf("wrong key: error = %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestGenerateKeyPairKind(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/CBC/PKCS7", 256)
	if _, _, err := engine.GenerateKeyPair(sealpost.KeyPairKind(99), 1024); !errors.Is(err, sealpost.ErrUnsupportedAlgorithm) {
		t.Fatalf("error = %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestHashVector(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/CBC/PKCS7", 256)
	got, err := engine.Hash([]byte("abc"), sealpost.SHA256)
	if err != nil {
		t.Fatal(err)
	}
	want := sha256.Sum256([]byte("abc"))
	if !bytes.Equal(got, want[:]) {
		t.Errorf("Hash(abc) = %s", hex.EncodeToString(got))
	}

	if _, err := engine.Hash([]byte("abc"), sealpost.HashAlgorithm(99)); !errors.Is(err, sealpost.ErrUnsupportedAlgorithm) {
		t.Fatalf("unknown hash: error = %v", err)
	}
}

func TestNewSymmetricVariablesFresh(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, "AES/CBC/PKCS7", 256)
	a, err := engine.NewSymmetricVariables()
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.NewSymmetricVariables()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.Key, b.Key) || bytes.Equal(a.IV, b.IV) {
		t.Error("consecutive symmetric variables repeated")
	}

	a.Destroy()
	for _, x := range a.Key {
		if x != 0 {
			t.Fatal("Destroy left key material behind")
		}
	}
}

func TestIVSize(t *testing.T) {
	t.Parallel()
	if got := newEngine(t, "AES/CBC/PKCS7", 256).IVSize(); got != 16 {
		t.Errorf("CBC IVSize() = %d, want 16", got)
	}
	if got := newEngine(t, "AES/GCM/NOPADDING", 256).IVSize(); got != 12 {
		t.Errorf("GCM IVSize() = %d, want 12", got)
	}
}
