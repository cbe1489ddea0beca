package oish

import (
	"github.com/oxsomi/oxc3-go"
)

// Flags configures a File at creation time (ESHSettingsFlags).
type Flags uint8

const (
	FlagsNone           Flags = 0
	FlagHideMagicNumber Flags = 1 << 0
	FlagIsUTF8          Flags = 1 << 1
)

const flagsValidMask = FlagHideMagicNumber | FlagIsUTF8

// SHEntry is one compiled entry point (spec.md §3 "oiSH file").
type SHEntry struct {
	Name  string
	Stage ESHPipelineStage

	// GroupX/Y/Z are required (and only valid) for Compute.
	GroupX, GroupY, GroupZ uint16

	// IntersectionSize/PayloadSize are raytracing-only (spec.md §4.G.1).
	IntersectionSize, PayloadSize uint8

	// Inputs/Outputs are populated only for graphics stages; each slot is
	// either 0 (absent) or a valid ESHType (spec.md §4.G.1).
	Inputs, Outputs [16]ESHType
}

// File is an oiSH compiled-shader package under construction or freshly
// read.
type File struct {
	// Binaries holds the raw target binary, indexed by ESHBinaryType. At
	// least one must be non-empty to serialize.
	Binaries [2][]byte

	Entries []SHEntry

	Extensions ESHExtension
	Flags      Flags

	// ReadLength records how many bytes Read consumed from its source
	// buffer (spec.md §6.6).
	ReadLength uint64

	pipelineType ESHPipelineType
}

// Create returns an empty File declaring the extensions its entries are
// permitted to require.
func Create(flags Flags, extensions ESHExtension) (*File, error) {
	if flags&^flagsValidMask != 0 {
		return nil, oxc3.InvalidParameter(0, 3, "oish.Create: flags contained an unsupported bit")
	}
	if extensions&^eshExtensionValidMask != 0 {
		return nil, oxc3.InvalidParameter(0, 1, "oish.Create: extensions contained an unsupported bit")
	}
	return &File{Flags: flags, Extensions: extensions, pipelineType: pipelineTypeUnset}, nil
}

// PipelineType reports the pipeline type derived from the first entry
// added, or false if the file has no entries yet.
func (f *File) PipelineType() (ESHPipelineType, bool) {
	if f.pipelineType == pipelineTypeUnset {
		return 0, false
	}
	return f.pipelineType, true
}

// AddBinary moves data in as the compiled binary for typ. SPIR-V binaries
// must be a whole number of U32 words. Calling this twice for the same typ
// is InvalidOperation (SHFile_addBinary's AlreadyDefined).
func (f *File) AddBinary(typ ESHBinaryType, data []byte) error {
	if len(data) == 0 {
		return oxc3.NullPointer(1, "oish.AddBinary: entry is required")
	}
	if typ >= eshBinaryTypeCount {
		return oxc3.InvalidParameter(0, 0, "oish.AddBinary: type is invalid")
	}
	if typ == ESHBinaryTypeSPIRV && len(data)&3 != 0 {
		return oxc3.InvalidParameter(1, 0, "oish.AddBinary: entry needs to be U32[] for SPIRV")
	}
	if f.Binaries[typ] != nil {
		return oxc3.InvalidOperation(0, "oish.AddBinary: binary type is already defined")
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	f.Binaries[typ] = owned
	return nil
}

// AddEntrypoint validates entry against every invariant in spec.md §4.G.1
// and appends it. The first call locks the file's pipeline type; later
// calls must agree with it (Raytracing may hold many entries, Compute and
// Graphics exactly one).
func (f *File) AddEntrypoint(entry SHEntry) error {
	if entry.Name == "" {
		return oxc3.NullPointer(1, "oish.AddEntrypoint: entry.Name is required")
	}
	if entry.Stage >= eshPipelineStageCount {
		return oxc3.InvalidEnum(1, uint64(entry.Stage), eshPipelineStageCount, "oish.AddEntrypoint: entry.Stage invalid enum")
	}

	currType := pipelineTypeOf(entry.Stage)

	if f.pipelineType != pipelineTypeUnset && f.pipelineType != currType {
		return oxc3.InvalidOperation(0, "oish.AddEntrypoint: pipeline is incompatible")
	}
	if f.pipelineType != pipelineTypeUnset && f.pipelineType != ESHPipelineTypeRaytracing {
		return oxc3.InvalidOperation(1, "oish.AddEntrypoint: can't add multiple entrypoints in a single file if type isn't raytracing")
	}

	groupXYZ := entry.GroupX | entry.GroupY | entry.GroupZ
	totalGroup := uint64(entry.GroupX) * uint64(entry.GroupY) * uint64(entry.GroupZ)

	if currType != ESHPipelineTypeCompute && groupXYZ != 0 {
		return oxc3.InvalidOperation(2, "oish.AddEntrypoint: can't have group size for non compute")
	}
	if currType == ESHPipelineTypeCompute && groupXYZ == 0 {
		return oxc3.InvalidOperation(2, "oish.AddEntrypoint: needs group size for compute")
	}
	if totalGroup > 512 {
		return oxc3.InvalidOperation(2, "oish.AddEntrypoint: group count out of bounds (512)")
	}
	if max16(entry.GroupX, entry.GroupY) > 512 {
		return oxc3.InvalidOperation(2, "oish.AddEntrypoint: group count x or y out of bounds (512)")
	}
	if entry.GroupZ > 64 {
		return oxc3.InvalidOperation(2, "oish.AddEntrypoint: group count z out of bounds (64)")
	}

	isHitOrIntersection := entry.Stage == ESHPipelineStageClosestHitExt || entry.Stage == ESHPipelineStageAnyHitExt ||
		entry.Stage == ESHPipelineStageIntersectionExt

	if isHitOrIntersection {
		if entry.PayloadSize == 0 {
			return oxc3.InvalidOperation(2, "oish.AddEntrypoint: payloadSize is required for hit/intersection shaders")
		}
		if entry.PayloadSize > 128 {
			return oxc3.OutOfBounds(2, uint64(entry.PayloadSize), 128, "oish.AddEntrypoint: payloadSize exceeds 128")
		}
	} else if entry.PayloadSize != 0 {
		return oxc3.InvalidOperation(2, "oish.AddEntrypoint: payloadSize is only valid for hit/intersection shaders")
	}

	if entry.Stage == ESHPipelineStageIntersectionExt {
		if entry.IntersectionSize == 0 {
			return oxc3.InvalidOperation(2, "oish.AddEntrypoint: intersectionSize is required for intersection shader")
		}
		if entry.IntersectionSize > 32 {
			return oxc3.OutOfBounds(2, uint64(entry.IntersectionSize), 32, "oish.AddEntrypoint: intersectionSize exceeds 32")
		}
	} else if entry.IntersectionSize != 0 {
		return oxc3.InvalidOperation(2, "oish.AddEntrypoint: intersectionSize is only valid for intersection shader")
	}

	hasIO := false
	for _, v := range entry.Inputs {
		if v != 0 {
			hasIO = true
		}
	}
	for _, v := range entry.Outputs {
		if v != 0 {
			hasIO = true
		}
	}
	if currType != ESHPipelineTypeGraphics && hasIO {
		return oxc3.InvalidOperation(3, "oish.AddEntrypoint: inputs/outputs are only valid for graphics shaders")
	}
	for i := 0; i < 16; i++ {
		if entry.Inputs[i] != 0 && entry.Inputs[i] < ESHTypeF32 {
			return oxc3.InvalidOperation(3, "oish.AddEntrypoint: inputs contains an invalid type")
		}
		if entry.Outputs[i] != 0 && entry.Outputs[i] < ESHTypeF32 {
			return oxc3.InvalidOperation(3, "oish.AddEntrypoint: outputs contains an invalid type")
		}
	}

	f.Entries = append(f.Entries, entry)
	if !isASCII(entry.Name) {
		f.Flags |= FlagIsUTF8
	}
	if len(f.Entries) == 1 {
		f.pipelineType = currType
	}
	return nil
}

func max16(a, b uint16) uint16 {
	if a > b {
		return a
	}
	return b
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}
