package oisb

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oidl"
	"github.com/oxsomi/oxc3-go/oixx"
)

// Magic is the little-endian 'oiSB' magic number (spec.md §6.1).
const Magic uint32 = 0x4253696F

const version uint8 = 12 // oiSB 1.2 (spec.md §6.2)

const sbFlagIsTightlyPacked uint8 = 1 << 0

// Write serializes f: an optional magic, the fixed SBHeader, an embedded
// oiDL holding struct then variable names, the struct table, the variable
// table and finally the array-dimension tables (spec.md §4.F.4, mirroring
// SBFile_write's field order exactly).
func Write(f *File) ([]byte, error) {
	if len(f.Structs) > 0xFFFF || len(f.Vars) > 0xFFFF || len(f.Arrays) > 0xFFFF {
		return nil, oxc3.InvalidState(0, "oisb.Write: table length exceeds U16")
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
	for _, n := range f.StructNames {
		if err := addName(names, n, isUTF8); err != nil {
			return nil, err
		}
	}
	for _, n := range f.VarNames {
		if err := addName(names, n, isUTF8); err != nil {
			return nil, err
		}
	}
	namesBuf, err := oidl.Write(names, true)
	if err != nil {
		return nil, err
	}

	w := oixx.NewWriter()
	hideMagic := f.Flags&FlagHideMagicNumber != 0
	if !hideMagic {
		var magicBuf [4]byte
		oixx.WriteSized(magicBuf[:], oixx.SizeU32, uint64(Magic))
		w.Append(magicBuf[:])
	}

	var hdrFlags uint8
	if f.isTightlyPacked() {
		hdrFlags |= sbFlagIsTightlyPacked
	}

	hdr := make([]byte, 12)
	hdr[0] = version
	hdr[1] = hdrFlags
	oixx.WriteSized(hdr[2:4], oixx.SizeU16, uint64(len(f.Arrays)))
	oixx.WriteSized(hdr[4:6], oixx.SizeU16, uint64(len(f.Structs)))
	oixx.WriteSized(hdr[6:8], oixx.SizeU16, uint64(len(f.Vars)))
	oixx.WriteSized(hdr[8:12], oixx.SizeU32, uint64(f.BufferSize))
	w.Append(hdr)

	w.Append(namesBuf)

	for _, s := range f.Structs {
		var buf [8]byte
		oixx.WriteSized(buf[0:4], oixx.SizeU32, uint64(s.Stride))
		oixx.WriteSized(buf[4:8], oixx.SizeU32, uint64(s.Length))
		w.Append(buf[:])
	}

	for _, v := range f.Vars {
		var buf [12]byte
		oixx.WriteSized(buf[0:2], oixx.SizeU16, uint64(v.StructID))
		oixx.WriteSized(buf[2:4], oixx.SizeU16, uint64(v.ArrayID))
		oixx.WriteSized(buf[4:8], oixx.SizeU32, uint64(v.Offset))
		buf[8] = uint8(v.Type)
		buf[9] = uint8(v.Flags)
		oixx.WriteSized(buf[10:12], oixx.SizeU16, uint64(v.ParentID))
		w.Append(buf[:])
	}

	for _, dims := range f.Arrays {
		if len(dims) > 0xFF {
			return nil, oxc3.InvalidState(1, "oisb.Write: array dimension count exceeds U8")
		}
		w.Append([]byte{uint8(len(dims))})
	}
	for _, dims := range f.Arrays {
		for _, d := range dims {
			var buf [4]byte
			oixx.WriteSized(buf[:], oixx.SizeU32, uint64(d))
			w.Append(buf[:])
		}
	}

	return w.Bytes(), nil
}

func addName(f *oidl.File, name string, isUTF8 bool) error {
	if isUTF8 {
		return f.AddEntryUTF8([]byte(name))
	}
	return f.AddEntryASCII(name)
}
