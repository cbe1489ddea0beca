package oisb

import (
	"github.com/oxsomi/oxc3-go"
)

// Flags configures a File at creation time (ESBSettingsFlags).
type Flags uint32

const (
	FlagsNone            Flags = 0
	FlagHideMagicNumber  Flags = 1 << 0
	FlagIsUTF8           Flags = 1 << 1
	FlagIsTightlyPacked  Flags = 1 << 2
)

const flagsValidMask = FlagHideMagicNumber | FlagIsUTF8 | FlagIsTightlyPacked

// VarFlag marks which shader stages reference a variable (ESBVarFlag).
type VarFlag uint8

const (
	VarFlagNone         VarFlag = 0
	VarFlagUsedBySPIRV  VarFlag = 1 << 0
	VarFlagUsedByDXIL   VarFlag = 1 << 1
)

const varFlagValidMask = VarFlagUsedBySPIRV | VarFlagUsedByDXIL

// RootID is the sentinel ParentID/value meaning "no parent" (U16_MAX):
// pass it to AddVariableAsType/AddVariableAsStruct for a top-level variable
// and to Print to start from the buffer's root.
const RootID uint16 = 0xFFFF

// noParent is the root sentinel for SBVar.ParentID (U16_MAX).
const noParent = RootID

// noStruct / noArray are the SBVar sentinel values for a type-path variable
// (StructID) and a scalar (non-array) variable (ArrayID).
const noStruct = 0xFFFF
const noArray = 0xFFFF

const maxTableLen = 0xFFFF // U16_MAX: at most 65535 entries, so every index stays below the 0xFFFF sentinels (spec.md §4.F.3)

// SBStruct is a named aggregate's byte stride and logical length (the last
// element of a trailing array of this struct may omit its own padding).
type SBStruct struct {
	Stride uint32
	Length uint32
}

// SBVar is one entry in the variable table: either a typed (scalar/vector/
// matrix) leaf when StructID == noStruct, or a struct-typed member
// otherwise. ParentID == noParent means a top-level (root) variable.
type SBVar struct {
	StructID  uint16
	ArrayID   uint16
	Offset    uint32
	Type      ESBType
	Flags     VarFlag
	ParentID  uint16
}

// IsStruct reports whether this variable takes the struct path rather than
// carrying a primitive ESBType.
func (v SBVar) IsStruct() bool {
	return v.StructID != noStruct
}

// File is an oiSB shader-buffer layout under construction or freshly read.
type File struct {
	StructNames []string
	VarNames    []string

	Structs []SBStruct
	Vars    []SBVar
	Arrays  [][]uint32

	Flags      Flags
	BufferSize uint32

	// ReadLength records how many bytes Read consumed from its source
	// buffer (spec.md §6.6).
	ReadLength uint64
}

// Create returns an empty File. bufferSize is the total addressable byte
// range root variables must fit within.
func Create(flags Flags, bufferSize uint32) (*File, error) {
	if flags&^flagsValidMask != 0 {
		return nil, oxc3.InvalidParameter(0, 0, "oisb.Create: flags contained an unsupported bit")
	}
	if bufferSize == 0 {
		return nil, oxc3.InvalidParameter(1, 0, "oisb.Create: bufferSize is required")
	}
	return &File{Flags: flags, BufferSize: bufferSize}, nil
}

func (f *File) isTightlyPacked() bool {
	return f.Flags&FlagIsTightlyPacked != 0
}

// AddStruct appends a named struct entry. stride must be >= length and
// length must be non-zero (spec.md §4.F.1).
func (f *File) AddStruct(name string, s SBStruct) (structID uint16, err error) {
	if s.Stride < s.Length || s.Length == 0 {
		return 0, oxc3.InvalidParameter(2, 0, "oisb.AddStruct: stride must be >= length and length must be non-zero")
	}
	if len(f.Structs) >= maxTableLen {
		return 0, oxc3.OutOfBounds(0, uint64(len(f.Structs)), maxTableLen, "oisb.AddStruct: structs table limited to 65535")
	}

	f.Structs = append(f.Structs, s)
	f.StructNames = append(f.StructNames, name)
	return uint16(len(f.Structs) - 1), nil
}

// AddVariableAsType appends a primitive-typed variable (scalar/vector/
// matrix). parentID == noParent (oisb.RootID) places it directly in the
// buffer; otherwise it must nest inside the struct-typed variable at
// parentID. arrays lists the array's dimensions (outermost first), at most
// 32 entries, each non-zero; pass nil for a non-array variable.
func (f *File) AddVariableAsType(name string, offset uint32, parentID uint16, typ ESBType, flags VarFlag, arrays []uint32) error {
	if flags&^varFlagValidMask != 0 {
		return oxc3.InvalidParameter(5, 0, "oisb.AddVariableAsType: flags contained an unsupported bit")
	}
	if len(arrays) > 32 {
		return oxc3.OutOfBounds(6, uint64(len(arrays)), 32, "oisb.AddVariableAsType: arrays limited to 32 dimensions")
	}
	if !typ.Valid() {
		return oxc3.InvalidParameter(4, 0, "oisb.AddVariableAsType: type is invalid")
	}
	if len(f.Vars) >= maxTableLen {
		return oxc3.OutOfBounds(0, uint64(len(f.Vars)), maxTableLen, "oisb.AddVariableAsType: vars table limited to 65535")
	}
	if len(arrays) > 0 && len(f.Arrays) >= maxTableLen {
		return oxc3.OutOfBounds(0, uint64(len(f.Arrays)), maxTableLen, "oisb.AddVariableAsType: arrays table limited to 65535")
	}

	isTightlyPacked := f.isTightlyPacked()
	size := typ.Size(isTightlyPacked)
	typeSize := typ.primitiveSize()

	if !isTightlyPacked && ((uint32(offset)+uint32(size)-1)>>4) != (offset>>4) && offset&15 != 0 {
		return oxc3.InvalidParameter(5, 0, "oisb.AddVariableAsType: offset spans a 16-byte boundary, not tightly packed")
	}
	if isTightlyPacked && offset&uint32(typeSize-1) != 0 {
		return oxc3.InvalidParameter(5, 0, "oisb.AddVariableAsType: offset doesn't follow the required type alignment")
	}

	totalSize := uint64(size)
	if !isTightlyPacked {
		totalSize = uint64(roundUp16(size))
	}
	for _, dim := range arrays {
		if dim == 0 {
			return oxc3.InvalidParameter(0, 0, "oisb.AddVariableAsType: array dimension is 0")
		}
		totalSize *= uint64(dim)
		if totalSize > 0xFFFFFFFF {
			return oxc3.OutOfBounds(0, totalSize, 0xFFFFFFFF, "oisb.AddVariableAsType: array byte size exceeds 2^32")
		}
	}
	// The final (innermost-trailing) element never needs its own padding.
	if !isTightlyPacked {
		padding := uint64(roundUp16(size)) - uint64(size)
		totalSize -= padding
	}

	if err := f.validateParentAndSiblings(parentID, offset, uint32(totalSize), name, isTightlyPacked, typeSize); err != nil {
		return err
	}

	var arrayID uint16 = noArray
	if len(arrays) > 0 {
		arrayID = uint16(len(f.Arrays))
		owned := make([]uint32, len(arrays))
		copy(owned, arrays)
		f.Arrays = append(f.Arrays, owned)
	}

	f.Vars = append(f.Vars, SBVar{
		StructID: noStruct,
		ArrayID:  arrayID,
		Offset:   offset,
		Type:     typ,
		Flags:    flags,
		ParentID: parentID,
	})
	f.VarNames = append(f.VarNames, name)
	return nil
}

// AddVariableAsStruct appends a struct-typed variable referencing the
// struct at structID.
func (f *File) AddVariableAsStruct(name string, offset uint32, parentID, structID uint16, flags VarFlag, arrays []uint32) error {
	if flags&^varFlagValidMask != 0 {
		return oxc3.InvalidParameter(5, 0, "oisb.AddVariableAsStruct: flags contained an unsupported bit")
	}
	if len(arrays) > 32 {
		return oxc3.OutOfBounds(6, uint64(len(arrays)), 32, "oisb.AddVariableAsStruct: arrays limited to 32 dimensions")
	}
	if int(structID) >= len(f.Structs) {
		return oxc3.OutOfBounds(0, uint64(structID), uint64(len(f.Structs)), "oisb.AddVariableAsStruct: structId out of bounds")
	}
	if len(f.Vars) >= maxTableLen {
		return oxc3.OutOfBounds(0, uint64(len(f.Vars)), maxTableLen, "oisb.AddVariableAsStruct: vars table limited to 65535")
	}
	if len(arrays) > 0 && len(f.Arrays) >= maxTableLen {
		return oxc3.OutOfBounds(0, uint64(len(f.Arrays)), maxTableLen, "oisb.AddVariableAsStruct: arrays table limited to 65535")
	}

	isTightlyPacked := f.isTightlyPacked()
	if !isTightlyPacked && offset&15 != 0 {
		return oxc3.InvalidParameter(5, 0, "oisb.AddVariableAsStruct: offset needs 16-byte alignment")
	}

	strc := f.Structs[structID]
	totalSize := uint64(strc.Stride)
	for _, dim := range arrays {
		if dim == 0 {
			return oxc3.InvalidParameter(0, 0, "oisb.AddVariableAsStruct: array dimension is 0")
		}
		totalSize *= uint64(dim)
		if totalSize > 0xFFFFFFFF {
			return oxc3.OutOfBounds(0, totalSize, 0xFFFFFFFF, "oisb.AddVariableAsStruct: array byte size exceeds 2^32")
		}
	}
	totalSize -= uint64(strc.Stride - strc.Length)

	if err := f.validateParentAndSiblings(parentID, offset, uint32(totalSize), name, isTightlyPacked, 0); err != nil {
		return err
	}

	var arrayID uint16 = noArray
	if len(arrays) > 0 {
		arrayID = uint16(len(f.Arrays))
		owned := make([]uint32, len(arrays))
		copy(owned, arrays)
		f.Arrays = append(f.Arrays, owned)
	}

	f.Vars = append(f.Vars, SBVar{
		StructID: structID,
		ArrayID:  arrayID,
		Offset:   offset,
		Type:     0,
		Flags:    flags,
		ParentID: parentID,
	})
	f.VarNames = append(f.VarNames, name)
	return nil
}

// validateParentAndSiblings checks bounds against bufferSize or the parent
// struct, plus sibling-name uniqueness (spec.md §4.F.3). typeSize is 0 for
// struct-typed variables (the tightly-packed sub-alignment check only
// applies to the scalar path).
func (f *File) validateParentAndSiblings(parentID uint16, offset, size uint32, name string, isTightlyPacked bool, typeSize uint8) error {
	if parentID == noParent {
		if uint64(offset)+uint64(size) > uint64(f.BufferSize) {
			return oxc3.OutOfBounds(0, uint64(offset), uint64(f.BufferSize), "oisb: offset + size is out of bounds")
		}
	} else {
		if int(parentID) >= len(f.Vars) {
			return oxc3.OutOfBounds(0, uint64(parentID), uint64(len(f.Vars)), "oisb: parentId is out of bounds")
		}
		parent := f.Vars[parentID]
		if !parent.IsStruct() {
			return oxc3.InvalidState(0, "oisb: parentId doesn't reference a struct")
		}
		strc := f.Structs[parent.StructID]
		assumedLength := uint64(strc.Length)
		if uint64(offset) < uint64(parent.Offset) || uint64(offset)+uint64(size) > uint64(parent.Offset)+assumedLength {
			return oxc3.OutOfBounds(0, uint64(offset)+uint64(size), uint64(parent.Offset)+assumedLength, "oisb: offset isn't in bounds of the parent struct")
		}
		if typeSize != 0 && isTightlyPacked && parent.Offset&uint32(typeSize-1) != 0 && (parent.Offset+strc.Stride)&uint32(typeSize-1) != 0 {
			return oxc3.InvalidState(0, "oisb: parent struct doesn't respect alignment")
		}
	}

	for i, v := range f.Vars {
		if v.ParentID != parentID {
			continue
		}
		if f.VarNames[i] == name {
			return oxc3.InvalidState(0, "oisb: parent already contains a member with this name")
		}
	}
	return nil
}
