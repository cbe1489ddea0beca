package oish

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oidl"
	"github.com/oxsomi/oxc3-go/oixx"
)

// Magic is the little-endian 'oiSH' magic number (spec.md §6.1).
const Magic uint32 = 0x4853696F

const version uint8 = 12 // oiSH 1.2 (spec.md §6.2)

const (
	shFlagHasSPIRV uint8 = 1 << 0
	shFlagHasDXIL  uint8 = 1 << 1
)

// Write serializes f: an optional magic, the fixed SHHeader, an embedded
// oiDL of entry names, the per-entry stage bytes, the per-entry
// pipeline-specific payload, then each present binary's length-prefixed
// bytes (spec.md §4.G.3, mirroring SHFile_write's field order).
func Write(f *File) ([]byte, error) {
	if len(f.Entries) == 0 {
		return nil, oxc3.NullPointer(0, "oish.Write: file has no entries")
	}

	isUTF8 := f.Flags&FlagIsUTF8 != 0
	dataType := oidl.DataTypeASCII
	if isUTF8 {
		dataType = oidl.DataTypeUTF8
	}

	names, err := oidl.Create(oidl.Settings{DataType: dataType})
	if err != nil {
		return nil, err
	}
	for _, e := range f.Entries {
		if isUTF8 {
			if err := names.AddEntryUTF8([]byte(e.Name)); err != nil {
				return nil, err
			}
		} else if err := names.AddEntryASCII(e.Name); err != nil {
			return nil, err
		}
	}
	namesBuf, err := oidl.Write(names, true)
	if err != nil {
		return nil, err
	}

	var hasBinary, sizes uint8
	var binaryWidths [eshBinaryTypeCount]oixx.SizeWidth
	for i := 0; i < eshBinaryTypeCount; i++ {
		n := len(f.Binaries[i])
		if n == 0 {
			continue
		}
		hasBinary |= 1 << i
		binaryWidths[i] = oixx.RequiredSizeWidth(uint64(n))
		sizes |= uint8(binaryWidths[i]) << (i * 2)
	}
	if hasBinary == 0 {
		return nil, oxc3.NullPointer(0, "oish.Write: at least one binary is required")
	}

	w := oixx.NewWriter()
	hideMagic := f.Flags&FlagHideMagicNumber != 0
	if !hideMagic {
		var magicBuf [4]byte
		oixx.WriteSized(magicBuf[:], oixx.SizeU32, uint64(Magic))
		w.Append(magicBuf[:])
	}

	hdr := make([]byte, 8)
	hdr[0] = version
	hdr[1] = hasBinary
	hdr[2] = sizes
	hdr[3] = uint8(f.pipelineType)
	oixx.WriteSized(hdr[4:8], oixx.SizeU32, uint64(f.Extensions))
	w.Append(hdr)

	w.Append(namesBuf)

	for _, e := range f.Entries {
		w.Append([]byte{uint8(e.Stage)})
	}

	for _, e := range f.Entries {
		switch f.pipelineType {
		case ESHPipelineTypeCompute:
			var buf [8]byte
			groups := uint64(e.GroupX) | uint64(e.GroupY)<<16 | uint64(e.GroupZ)<<32
			oixx.WriteSized(buf[:], oixx.SizeU64, groups)
			w.Append(buf[:])

		case ESHPipelineTypeGraphics:
			var buf [16]byte
			oixx.WriteSized(buf[0:8], oixx.SizeU64, packESHTypes(e.Inputs))
			oixx.WriteSized(buf[8:16], oixx.SizeU64, packESHTypes(e.Outputs))
			w.Append(buf[:])

		case ESHPipelineTypeRaytracing:
			w.Append([]byte{e.IntersectionSize, e.PayloadSize})
		}
	}

	for i := 0; i < eshBinaryTypeCount; i++ {
		n := len(f.Binaries[i])
		if n == 0 {
			continue
		}
		var buf [8]byte
		width := binaryWidths[i]
		written := oixx.WriteSized(buf[:], width, uint64(n))
		w.Append(buf[:written])
	}
	for i := 0; i < eshBinaryTypeCount; i++ {
		if len(f.Binaries[i]) > 0 {
			w.Append(f.Binaries[i])
		}
	}

	return w.Bytes(), nil
}

func packESHTypes(types [16]ESHType) uint64 {
	var v uint64
	for i, t := range types {
		v |= uint64(t) << (uint(i) * 4)
	}
	return v
}

func unpackESHTypes(v uint64) [16]ESHType {
	var out [16]ESHType
	for i := range out {
		out[i] = ESHType((v >> (uint(i) * 4)) & 0xF)
	}
	return out
}
