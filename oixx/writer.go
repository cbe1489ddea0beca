package oixx

import (
	"io"

	"github.com/orcaman/writerseeker"
)

// Writer accumulates a file under construction. It satisfies the
// "write(&[u8]) that either appends or writes at a caller-chosen offset and
// cannot fail for pre-sized buffers" contract of spec.md §4.A, backed by an
// in-memory io.WriteSeeker exactly the way internal/squashfs.Writer is built
// over a caller-supplied io.WriteSeeker.
type Writer struct {
	ws writerseeker.WriterSeeker
	// len tracks the logical end of the buffer across Append/WriteAt calls,
	// since WriteAt may move the seek position backwards.
	len int64
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Append writes p at the current end of the buffer.
func (w *Writer) Append(p []byte) {
	if _, err := w.ws.Seek(w.len, io.SeekStart); err != nil {
		panic(err) // in-memory WriteSeeker; Seek cannot fail
	}
	n, err := w.ws.Write(p)
	if err != nil {
		panic(err) // in-memory WriteSeeker; Write cannot fail
	}
	w.len += int64(n)
}

// Reserve appends n zero bytes and returns their offset, for a field whose
// value (e.g. a length prefix) is only known once the rest of the payload
// has been written.
func (w *Writer) Reserve(n int) int64 {
	off := w.len
	w.Append(make([]byte, n))
	return off
}

// WriteAt patches p into the buffer at a previously Reserve'd offset without
// moving the logical end of the buffer.
func (w *Writer) WriteAt(off int64, p []byte) {
	if _, err := w.ws.Seek(off, io.SeekStart); err != nil {
		panic(err)
	}
	if _, err := w.ws.Write(p); err != nil {
		panic(err)
	}
}

// Len reports the current logical length of the buffer.
func (w *Writer) Len() int64 {
	return w.len
}

// Bytes materializes the accumulated buffer.
func (w *Writer) Bytes() []byte {
	b, err := io.ReadAll(w.ws.BytesReader())
	if err != nil {
		panic(err) // reading from an in-memory bytes.Reader cannot fail
	}
	if int64(len(b)) > w.len {
		b = b[:w.len]
	}
	return b
}
