package oish

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oidl"
	"github.com/oxsomi/oxc3-go/oixx"
)

const shFlagsValidMask = shFlagHasSPIRV | shFlagHasDXIL

// Read parses buf into a File, the inverse of Write. It re-derives the
// pipeline type from the first entry and re-applies every invariant from
// AddEntrypoint/AddBinary, so a file that round-trips through Read is
// checked against exactly the same rules a freshly-built one is (spec.md
// §4.G.4).
//
// isSubFile means buf embeds this oiSH inside another format's container.
func Read(buf []byte, isSubFile bool) (*File, error) {
	r := oixx.NewReader(buf)

	if !isSubFile {
		magic, err := r.ConsumeU32LE()
		if err != nil {
			return nil, err
		}
		if magic != Magic {
			return nil, oxc3.InvalidParameter(0, 0, "oish.Read: bad magic number")
		}
	}

	hdrBytes, err := r.Consume(8)
	if err != nil {
		return nil, err
	}
	hdrVersion := hdrBytes[0]
	hdrFlags := hdrBytes[1]
	sizes := hdrBytes[2]
	pipelineType := ESHPipelineType(hdrBytes[3])
	extensions := ESHExtension(oixx.ReadSized(hdrBytes[4:8], oixx.SizeU32))

	if hdrVersion != version {
		return nil, oxc3.InvalidParameter(0, 1, "oish.Read: header.version is invalid")
	}
	if hdrFlags&^shFlagsValidMask != 0 {
		return nil, oxc3.Unsupported(1, "oish.Read: unsupported flags")
	}
	if hdrFlags == 0 {
		return nil, oxc3.InvalidState(0, "oish.Read: no binary present")
	}
	if pipelineType > ESHPipelineTypeRaytracing {
		return nil, oxc3.InvalidEnum(0, uint64(pipelineType), 3, "oish.Read: pipelineType invalid enum")
	}

	flags := FlagsNone
	if isSubFile {
		flags |= FlagHideMagicNumber
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

	f, err := Create(flags, extensions)
	if err != nil {
		return nil, err
	}

	n := len(names.Entries)
	stages := make([]ESHPipelineStage, n)
	for i := 0; i < n; i++ {
		b, err := r.Consume(1)
		if err != nil {
			return nil, err
		}
		stages[i] = ESHPipelineStage(b[0])
	}

	for i := 0; i < n; i++ {
		entry := SHEntry{Name: string(names.Entries[i]), Stage: stages[i]}

		switch pipelineType {
		case ESHPipelineTypeCompute:
			b, err := r.Consume(8)
			if err != nil {
				return nil, err
			}
			groups := oixx.ReadSized(b, oixx.SizeU64)
			entry.GroupX = uint16(groups)
			entry.GroupY = uint16(groups >> 16)
			entry.GroupZ = uint16(groups >> 32)

		case ESHPipelineTypeRaytracing:
			b, err := r.Consume(2)
			if err != nil {
				return nil, err
			}
			entry.IntersectionSize = b[0]
			entry.PayloadSize = b[1]

		case ESHPipelineTypeGraphics:
			b, err := r.Consume(16)
			if err != nil {
				return nil, err
			}
			entry.Inputs = unpackESHTypes(oixx.ReadSized(b[0:8], oixx.SizeU64))
			entry.Outputs = unpackESHTypes(oixx.ReadSized(b[8:16], oixx.SizeU64))
		}

		if err := f.AddEntrypoint(entry); err != nil {
			return nil, err
		}
	}

	var binarySize [eshBinaryTypeCount]uint64
	for i := 0; i < eshBinaryTypeCount; i++ {
		if hdrFlags&(1<<i) == 0 {
			continue
		}
		width := oixx.SizeWidth((sizes >> (i * 2)) & 3)
		size, err := oixx.ConsumeSized(r, width)
		if err != nil {
			return nil, err
		}
		binarySize[i] = size
	}

	for i := 0; i < eshBinaryTypeCount; i++ {
		if binarySize[i] == 0 {
			continue
		}
		data, err := r.Consume(int(binarySize[i]))
		if err != nil {
			return nil, err
		}
		if err := f.AddBinary(ESHBinaryType(i), data); err != nil {
			return nil, err
		}
	}

	if !isSubFile && r.Len() != 0 {
		return nil, oxc3.InvalidState(1, "oish.Read: contained extra data, not allowed if it's not a subfile")
	}

	f.ReadLength = uint64(r.Offset())
	return f, nil
}
