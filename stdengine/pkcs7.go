package stdengine

import (
	"fmt"

	sealpost "github.com/sealpost/client-go"
)

// pkcs7Pad appends PKCS#7 padding. Always adds at least one byte, so the
// result length is a positive multiple of blockSize.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// pkcs7Unpad strips PKCS#7 padding, rejecting anything inconsistent.
// Padding checks run after signature verification, so this is a structural
// check rather than an unauthenticated-decryption oracle.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: padded length %d", sealpost.ErrMalformedPayload, len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: pad byte %d", sealpost.ErrMalformedPayload, n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: inconsistent padding", sealpost.ErrMalformedPayload)
		}
	}
	return data[:len(data)-n], nil
}
