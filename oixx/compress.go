package oixx

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"golang.org/x/xerrors"

	"github.com/oxsomi/oxc3-go"
)

// CompressionType selects the oiXX payload codec (spec.md §3).
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionBrotli11
	CompressionBrotli1
)

// brotliLevel maps a CompressionType to the level passed to the Brotli
// encoder, per spec.md §4.C ("compress(level ∈ {1,11}, src)").
func (c CompressionType) brotliLevel() (level int, ok bool) {
	switch c {
	case CompressionBrotli11:
		return 11, true
	case CompressionBrotli1:
		return 1, true
	default:
		return 0, false
	}
}

// CompressBrotli compresses src at the given level (1 or 11). Failures
// surface as KindInvalidState per spec.md §4.C.
func CompressBrotli(level int, src []byte) ([]byte, error) {
	if level != 1 && level != 11 {
		return nil, oxc3.InvalidParameter(0, 0, "oixx.CompressBrotli: level must be 1 or 11")
	}

	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, level)
	if _, err := w.Write(src); err != nil {
		return nil, xerrors.Errorf("oixx.CompressBrotli: %w", oxc3.InvalidState(0, err.Error()))
	}
	if err := w.Close(); err != nil {
		return nil, xerrors.Errorf("oixx.CompressBrotli: %w", oxc3.InvalidState(1, err.Error()))
	}
	return buf.Bytes(), nil
}

// DecompressBrotli decompresses src, which is expected to inflate to exactly
// decompressedSize bytes (the length stored separately alongside the
// compressed payload, per spec.md §4.C).
func DecompressBrotli(src []byte, decompressedSize int) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(src))
	out := make([]byte, decompressedSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, xerrors.Errorf("oixx.DecompressBrotli: %w", oxc3.InvalidState(0, err.Error()))
	}
	return out, nil
}

// Compress dispatches on CompressionType, the single entry point the
// container formats call during write.
func Compress(c CompressionType, src []byte) ([]byte, error) {
	level, ok := c.brotliLevel()
	if !ok {
		return nil, oxc3.InvalidEnum(0, uint64(c), uint64(CompressionBrotli1), "oixx.Compress: unknown compression type")
	}
	return CompressBrotli(level, src)
}

// Decompress dispatches on CompressionType, the single entry point the
// container formats call during read.
func Decompress(c CompressionType, src []byte, decompressedSize int) ([]byte, error) {
	if _, ok := c.brotliLevel(); !ok {
		return nil, oxc3.InvalidEnum(0, uint64(c), uint64(CompressionBrotli1), "oixx.Decompress: unknown compression type")
	}
	return DecompressBrotli(src, decompressedSize)
}
