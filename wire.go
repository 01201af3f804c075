package sealpost

import (
	"bytes"
	"encoding/binary"
)

// Wire primitives shared by the envelope, notification and message codecs.
// All integers are little-endian; byte fields carry a uint32 length prefix.

type wireWriter struct {
	buf bytes.Buffer
}

func (w *wireWriter) writeUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *wireWriter) writeInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

func (w *wireWriter) writeBytes(p []byte) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(len(p)))
	w.buf.Write(b[:])
	w.buf.Write(p)
}

func (w *wireWriter) writeString(s string) {
	w.writeBytes([]byte(s))
}

func (w *wireWriter) bytes() []byte {
	return w.buf.Bytes()
}

// wireReader decodes the same layout. The first structural problem latches
// into err; subsequent reads are no-ops so callers check once at the end.
type wireReader struct {
	data []byte
	off  int
	err  error
}

func (r *wireReader) fail() {
	if r.err == nil {
		r.err = ErrMalformedPayload
	}
}

func (r *wireReader) readUint8() uint8 {
	if r.err != nil {
		return 0
	}
	if r.off+1 > len(r.data) {
		r.fail()
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *wireReader) readInt64() int64 {
	if r.err != nil {
		return 0
	}
	if r.off+8 > len(r.data) {
		r.fail()
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return int64(v)
}

func (r *wireReader) readBytes() []byte {
	if r.err != nil {
		return nil
	}
	if r.off+4 > len(r.data) {
		r.fail()
		return nil
	}
	n := int(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	if n < 0 || r.off+n > len(r.data) {
		r.fail()
		return nil
	}
	out := make([]byte, n)
	copy(out, r.data[r.off:r.off+n])
	r.off += n
	return out
}

func (r *wireReader) readString() string {
	return string(r.readBytes())
}

// done reports an error unless the reader consumed data exactly.
func (r *wireReader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.data) {
		return ErrMalformedPayload
	}
	return nil
}
