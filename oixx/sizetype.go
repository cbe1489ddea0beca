// Package oixx implements the common oiXX binary-container substrate shared
// by oiDL, oiSB, oiSH and oiBC: variable-width size fields, the container
// header bits, integrity hashing, AES-256-GCM encryption and the Brotli
// compression shim.
package oixx

import (
	"encoding/binary"
	"math"

	"github.com/oxsomi/oxc3-go"
)

// SizeWidth is the 2-bit width selector for a variable-width size field
// (spec.md §3 "SizeWidth").
type SizeWidth uint8

const (
	SizeU8 SizeWidth = iota
	SizeU16
	SizeU32
	SizeU64
)

// SizeByteWidth mirrors SIZE_BYTE_TYPE[4] from the original: the number of
// bytes a SizeWidth occupies on disk.
var SizeByteWidth = [4]uint8{1, 2, 4, 8}

// RequiredSizeWidth returns the smallest SizeWidth that can represent v,
// i.e. EXXDataSizeType_getRequiredType.
func RequiredSizeWidth(v uint64) SizeWidth {
	switch {
	case v <= math.MaxUint8:
		return SizeU8
	case v <= math.MaxUint16:
		return SizeU16
	case v <= math.MaxUint32:
		return SizeU32
	default:
		return SizeU64
	}
}

// ReadSized reads a little-endian integer of the given width starting at
// ptr, i.e. Buffer_forceReadSizeType. ptr must contain at least
// SizeByteWidth[w] bytes.
func ReadSized(ptr []byte, w SizeWidth) uint64 {
	switch w {
	case SizeU8:
		return uint64(ptr[0])
	case SizeU16:
		return uint64(binary.LittleEndian.Uint16(ptr))
	case SizeU32:
		return uint64(binary.LittleEndian.Uint32(ptr))
	case SizeU64:
		return binary.LittleEndian.Uint64(ptr)
	default:
		return 0
	}
}

// WriteSized writes v into ptr as a little-endian integer of the given
// width, i.e. Buffer_forceWriteSizeType. Returns the number of bytes
// written. ptr must have room for SizeByteWidth[w] bytes.
func WriteSized(ptr []byte, w SizeWidth, v uint64) int {
	switch w {
	case SizeU8:
		ptr[0] = uint8(v)
		return 1
	case SizeU16:
		binary.LittleEndian.PutUint16(ptr, uint16(v))
		return 2
	case SizeU32:
		binary.LittleEndian.PutUint32(ptr, uint32(v))
		return 4
	case SizeU64:
		binary.LittleEndian.PutUint64(ptr, v)
		return 8
	default:
		return 0
	}
}

// ConsumeSized reads a size field of width w from r, i.e.
// Buffer_consumeSizeType.
func ConsumeSized(r *Reader, w SizeWidth) (uint64, error) {
	if w > SizeU64 {
		return 0, oxc3.InvalidEnum(1, uint64(w), uint64(SizeU64), "oixx.ConsumeSized: type out of bounds")
	}
	b, err := r.Consume(int(SizeByteWidth[w]))
	if err != nil {
		return 0, err
	}
	return ReadSized(b, w), nil
}

// AppendSized appends v to w as a size field of the given width, i.e. the
// write-side counterpart used when building a file's length table.
func AppendSized(w *Writer, width SizeWidth, v uint64) {
	var buf [8]byte
	n := WriteSized(buf[:], width, v)
	w.Append(buf[:n])
}
