package oisb

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oidl"
	"github.com/oxsomi/oxc3-go/oixx"
)

// Read parses buf into a File, the inverse of Write (spec.md §4.F.4,
// §9 Open Questions: SBFile_read is declared but not defined in the
// excerpted original, so this mirrors the write path in reverse).
//
// isSubFile means buf embeds this oiSB inside another format's container:
// the leading magic is assumed already consumed by the caller and trailing
// bytes beyond the parsed length are tolerated.
func Read(buf []byte, isSubFile bool) (*File, error) {
	r := oixx.NewReader(buf)

	if !isSubFile {
		magic, err := r.ConsumeU32LE()
		if err != nil {
			return nil, err
		}
		if magic != Magic {
			return nil, oxc3.InvalidParameter(0, 0, "oisb.Read: bad magic number")
		}
	}

	hdrBytes, err := r.Consume(12)
	if err != nil {
		return nil, err
	}
	hdrVersion := hdrBytes[0]
	hdrFlags := hdrBytes[1]
	arraysLen := oixx.ReadSized(hdrBytes[2:4], oixx.SizeU16)
	structsLen := oixx.ReadSized(hdrBytes[4:6], oixx.SizeU16)
	varsLen := oixx.ReadSized(hdrBytes[6:8], oixx.SizeU16)
	bufferSize := uint32(oixx.ReadSized(hdrBytes[8:12], oixx.SizeU32))

	if hdrVersion != version {
		return nil, oxc3.InvalidParameter(0, 1, "oisb.Read: version mismatch")
	}
	if hdrFlags&^sbFlagIsTightlyPacked != 0 {
		return nil, oxc3.Unsupported(0, "oisb.Read: unsupported header flag")
	}

	flags := Flags(0)
	if isSubFile {
		flags |= FlagHideMagicNumber
	}
	if hdrFlags&sbFlagIsTightlyPacked != 0 {
		flags |= FlagIsTightlyPacked
	}

	names, err := oidl.Read(r.Remainder(), nil, true)
	if err != nil {
		return nil, err
	}
	if names.Settings.DataType == oidl.DataTypeUTF8 {
		flags |= FlagIsUTF8
	}
	if _, err := r.Consume(int(names.ReadLength)); err != nil {
		return nil, err
	}

	totalNames := uint64(structsLen) + varsLen
	if uint64(len(names.Entries)) != totalNames {
		return nil, oxc3.InvalidState(0, "oisb.Read: name table entry count doesn't match struct+var count")
	}

	f := &File{Flags: flags, BufferSize: bufferSize}

	for i := uint64(0); i < structsLen; i++ {
		b, err := r.Consume(8)
		if err != nil {
			return nil, err
		}
		f.Structs = append(f.Structs, SBStruct{
			Stride: uint32(oixx.ReadSized(b[0:4], oixx.SizeU32)),
			Length: uint32(oixx.ReadSized(b[4:8], oixx.SizeU32)),
		})
		f.StructNames = append(f.StructNames, string(names.Entries[i]))
	}

	for i := uint64(0); i < varsLen; i++ {
		b, err := r.Consume(12)
		if err != nil {
			return nil, err
		}
		v := SBVar{
			StructID: uint16(oixx.ReadSized(b[0:2], oixx.SizeU16)),
			ArrayID:  uint16(oixx.ReadSized(b[2:4], oixx.SizeU16)),
			Offset:   uint32(oixx.ReadSized(b[4:8], oixx.SizeU32)),
			Type:     ESBType(b[8]),
			Flags:    VarFlag(b[9]),
			ParentID: uint16(oixx.ReadSized(b[10:12], oixx.SizeU16)),
		}
		if v.StructID != noStruct && int(v.StructID) >= len(f.Structs) {
			return nil, oxc3.OutOfBounds(0, uint64(v.StructID), uint64(len(f.Structs)), "oisb.Read: var references out-of-range struct")
		}
		if v.StructID == noStruct && !v.Type.Valid() {
			return nil, oxc3.InvalidParameter(0, 0, "oisb.Read: invalid ESBType in var table")
		}
		f.Vars = append(f.Vars, v)
		f.VarNames = append(f.VarNames, string(names.Entries[structsLen+i]))
	}

	dimCounts := make([]uint8, arraysLen)
	for i := range dimCounts {
		b, err := r.Consume(1)
		if err != nil {
			return nil, err
		}
		dimCounts[i] = b[0]
	}
	for _, count := range dimCounts {
		dims := make([]uint32, count)
		for i := range dims {
			b, err := r.Consume(4)
			if err != nil {
				return nil, err
			}
			dims[i] = uint32(oixx.ReadSized(b, oixx.SizeU32))
		}
		f.Arrays = append(f.Arrays, dims)
	}

	if !isSubFile && r.Len() != 0 {
		return nil, oxc3.InvalidState(1, "oisb.Read: trailing bytes after file content")
	}

	f.ReadLength = uint64(r.Offset())
	return f, nil
}
