package oixx

import (
	"bytes"
	"encoding/binary"

	"github.com/oxsomi/oxc3-go"
)

// Reader consumes bytes from an in-memory buffer left-to-right, matching the
// Buffer_consume contract of spec.md §4.A: every consume either returns the
// requested slice or fails with KindOutOfBounds. It never copies; slices
// returned by Consume alias the original buffer, exactly as the C reference
// hands back pointers into the source buffer.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for sequential consumption.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unconsumed bytes remaining.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

// Offset returns how many bytes have been consumed so far, i.e. the
// readLength accounting used by every format's Read path.
func (r *Reader) Offset() int {
	return r.off
}

// Remainder returns the unconsumed tail without advancing the cursor.
func (r *Reader) Remainder() []byte {
	return r.buf[r.off:]
}

// Consume returns the next n bytes and advances the cursor, or fails with
// KindOutOfBounds if fewer than n bytes remain.
func (r *Reader) Consume(n int) ([]byte, error) {
	if n < 0 {
		return nil, oxc3.InvalidParameter(0, 0, "oixx.Reader.Consume: negative length")
	}
	if r.Len() < n {
		return nil, oxc3.OutOfBounds(0, uint64(r.off+n), uint64(len(r.buf)), "oixx.Reader.Consume: buffer underrun")
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ConsumeInto consumes binary.Size(v) bytes and decodes them little-endian
// into v, which must be a pointer to a fixed-size struct or integer. This is
// the Go analog of binary.Read(reader, binary.LittleEndian, v) used
// throughout internal/squashfs's reader.go.
func (r *Reader) ConsumeInto(v any) error {
	n := binary.Size(v)
	if n < 0 {
		return oxc3.InvalidParameter(0, 0, "oixx.Reader.ConsumeInto: unsupported type")
	}
	b, err := r.Consume(n)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, v)
}

// ConsumeU32LE consumes a little-endian uint32, e.g. a magic number.
func (r *Reader) ConsumeU32LE() (uint32, error) {
	b, err := r.Consume(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
