package spirvbridge

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oisb"
)

// structKey identifies a previously-inserted oisb struct by the (name,
// stride) pair Compiler_convertMemberSPIRV dedups on (spec.md §4.I.6).
type structKey struct {
	name   string
	stride uint32
}

// bufferLayoutBuilder threads the dedup table through the recursive member
// walk while building a single oisb.File.
type bufferLayoutBuilder struct {
	file       *oisb.File
	structIDs  map[structKey]uint16
}

// ConvertShaderBuffer builds the oisb.File for one Constant/Structured/
// StorageBuffer register, the Go form of Compiler_convertShaderBufferSPIRV
// (spec.md §4.I.6).
//
// When block.PaddedSize == 0 the buffer holds a single outer element and the
// inner struct is recursed as "$Element"; otherwise every member is inserted
// directly at the buffer's root (no enclosing struct is created).
func ConvertShaderBuffer(block Block, isTightlyPacked bool) (*oisb.File, error) {
	bufferSize := block.Size
	if bufferSize == 0 {
		bufferSize = block.PaddedSize
	}
	if bufferSize == 0 {
		return nil, oxc3.InvalidState(0, "spirvbridge: shader buffer has zero size")
	}

	var flags oisb.Flags
	if isTightlyPacked {
		flags |= oisb.FlagIsTightlyPacked
	}

	f, err := oisb.Create(flags, bufferSize)
	if err != nil {
		return nil, err
	}
	b := &bufferLayoutBuilder{file: f, structIDs: map[structKey]uint16{}}

	if block.PaddedSize == 0 {
		if err := b.addMember(Member{
			Name:            "$Element",
			Offset:          0,
			Size:            block.Size,
			PaddedSize:      block.Size,
			Members:         block.Members,
			TypeDescription: block.TypeDescription,
			Numeric:         block.Numeric,
		}, oisb.RootID); err != nil {
			return nil, err
		}
		return f, nil
	}

	for _, m := range block.Members {
		if err := b.addMember(m, oisb.RootID); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// addMember is Compiler_convertMemberSPIRV: a leaf numeric member becomes an
// AddVariableAsType call; a struct-shaped member is matched against
// structIDs by (name, stride) or inserted anew via AddStruct (spec.md
// §4.I.6). Its children are recursed underneath the new variable only when
// the struct was inserted anew; a variable whose struct was already known
// gets no child variables of its own.
func (b *bufferLayoutBuilder) addMember(m Member, parentID uint16) error {
	arrays := m.ArrayDims

	if len(m.Members) == 0 {
		typ, err := numericToESBType(m.Numeric)
		if err != nil {
			return err
		}
		return b.file.AddVariableAsType(m.Name, m.Offset, parentID, typ, oisb.VarFlagNone, arrays)
	}

	stride := m.ArrayStride
	if stride == 0 {
		stride = m.PaddedSize
	}
	key := structKey{name: m.TypeDescription.TypeName, stride: stride}

	structID, known := b.structIDs[key]
	if !known {
		id, err := b.file.AddStruct(m.TypeDescription.TypeName, oisb.SBStruct{Stride: stride, Length: m.Size})
		if err != nil {
			return err
		}
		structID = id
		b.structIDs[key] = id
	}

	if err := b.file.AddVariableAsStruct(m.Name, m.Offset, parentID, structID, oisb.VarFlagNone, arrays); err != nil {
		return err
	}
	if known {
		return nil
	}

	newVarID := uint16(len(b.file.Vars) - 1)
	for _, child := range m.Members {
		if err := b.addMember(child, newVarID); err != nil {
			return err
		}
	}
	return nil
}

// numericToESBType is spvTypeToESBType: it reduces a reflected scalar/
// vector/matrix numeric shape to the packed ESBType byte (spec.md §4.I.6).
func numericToESBType(n NumericInfo) (oisb.ESBType, error) {
	var stride oisb.ESBStride
	switch n.ComponentBits {
	case 16:
		stride = oisb.ESBStrideX16
	case 32:
		stride = oisb.ESBStrideX32
	case 64:
		stride = oisb.ESBStrideX64
	default:
		return 0, oxc3.InvalidState(0, "spirvbridge: unsupported numeric component width")
	}

	var prim oisb.ESBPrimitive
	switch {
	case n.IsFloat:
		prim = oisb.ESBPrimitiveFloat
	case n.IsSigned:
		prim = oisb.ESBPrimitiveInt
	default:
		prim = oisb.ESBPrimitiveUInt
	}

	vecCount := n.ComponentCount
	if vecCount == 0 {
		vecCount = 1
	}
	if vecCount > 4 {
		return 0, oxc3.OutOfBounds(0, uint64(vecCount), 4, "spirvbridge: vector width out of bounds")
	}
	vec := oisb.ESBVector(vecCount - 1)

	mat := oisb.ESBMatrixN1
	if n.MatrixColumns > 1 {
		if n.MatrixColumns > 4 {
			return 0, oxc3.OutOfBounds(0, uint64(n.MatrixColumns), 4, "spirvbridge: matrix column count out of bounds")
		}
		mat = oisb.ESBMatrix(n.MatrixColumns - 1)
		if n.MatrixRows > 0 {
			vec = oisb.ESBVector(n.MatrixRows - 1)
		}
	}

	t := oisb.NewESBType(stride, prim, vec, mat)
	if !t.Valid() {
		return 0, oxc3.InvalidState(0, "spirvbridge: derived ESBType is invalid")
	}
	return t, nil
}
