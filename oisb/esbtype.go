// Package oisb implements the oiSB shader-buffer layout format: named
// struct/variable/array tables describing how a GPU buffer's bytes map to
// typed members, with either std140-style or tightly-packed alignment rules
// (spec.md §4.F).
package oisb

// ESBPrimitive is the scalar kind a variable's bytes are interpreted as.
type ESBPrimitive uint8

const (
	ESBPrimitiveInvalid ESBPrimitive = iota
	ESBPrimitiveFloat
	ESBPrimitiveInt
	ESBPrimitiveUInt
)

// ESBVector is vector width minus one (N1..N4 => 1..4 components).
type ESBVector uint8

const (
	ESBVectorN1 ESBVector = iota
	ESBVectorN2
	ESBVectorN3
	ESBVectorN4
)

// ESBMatrix is column count minus one; N1 means "not a matrix".
type ESBMatrix uint8

const (
	ESBMatrixN1 ESBMatrix = iota
	ESBMatrixN2
	ESBMatrixN3
	ESBMatrixN4
)

// ESBStride selects the primitive's bit width: X8 is reserved (unused by any
// named ESBType constant today), X16/X32/X64 are the ones SBFile_addStruct-
// style code actually produces.
type ESBStride uint8

const (
	ESBStrideX8 ESBStride = iota
	ESBStrideX16
	ESBStrideX32
	ESBStrideX64
)

// ESBType packs primitive, stride, vector width and matrix column count into
// a single byte: (mat<<6)|(stride<<4)|(prim<<2)|vec (spec.md §3, §6.5).
type ESBType uint8

// NewESBType is the ESBType_create equivalent.
func NewESBType(stride ESBStride, prim ESBPrimitive, vec ESBVector, mat ESBMatrix) ESBType {
	return ESBType(uint8(mat)<<6 | uint8(stride)<<4 | uint8(prim)<<2 | uint8(vec))
}

func (t ESBType) Vector() ESBVector       { return ESBVector(t & 3) }
func (t ESBType) Primitive() ESBPrimitive { return ESBPrimitive((t >> 2) & 3) }
func (t ESBType) Stride() ESBStride       { return ESBStride((t >> 4) & 3) }
func (t ESBType) Matrix() ESBMatrix       { return ESBMatrix((t >> 6) & 3) }

// primitiveSize returns the byte width of one scalar component.
func (t ESBType) primitiveSize() uint8 {
	return 1 << t.Stride()
}

// Size returns the byte size of a variable of this type (spec.md §4.F.2):
// for packed (tightly-packed) layouts it's primitiveSize × vector × matrix;
// for std140-style layouts a plain vector (matrix == N1) is
// primitiveSize × vector, and a matrix's row is rounded up to a 16-byte
// stride, repeated matrix times.
func (t ESBType) Size(isPacked bool) uint8 {
	primitiveSize := t.primitiveSize()
	vectorCount := uint8(t.Vector()) + 1
	matrixCount := uint8(t.Matrix()) + 1

	if isPacked {
		return primitiveSize * vectorCount * matrixCount
	}

	rowSize := primitiveSize * vectorCount
	if matrixCount == 1 {
		return rowSize
	}
	return roundUp16(rowSize) * matrixCount
}

func roundUp16(v uint8) uint8 {
	return (v + 15) &^ 15
}

// Valid reports whether t is a well-formed ESBType: primitive isn't
// Invalid, no high bits set beyond the 8 packed bits, and float never pairs
// with the 8-bit stride (spec.md §4.F.3, §8 property 3).
func (t ESBType) Valid() bool {
	if t.Primitive() == ESBPrimitiveInvalid {
		return false
	}
	if t.Primitive() == ESBPrimitiveFloat && t.Stride() == ESBStrideX8 {
		return false
	}
	return true
}

// esbTypeNames mirrors ESBType_names: indexed directly by the packed byte
// value, empty string for unused/reserved combinations.
var esbTypeNames = buildESBTypeNames()

func buildESBTypeNames() [256]string {
	var names [256]string
	strides := []ESBStride{ESBStrideX16, ESBStrideX32, ESBStrideX64}
	prims := []struct {
		p ESBPrimitive
		s string
	}{{ESBPrimitiveFloat, "F"}, {ESBPrimitiveInt, "I"}, {ESBPrimitiveUInt, "U"}}
	bits := []struct {
		s ESBStride
		n string
	}{{ESBStrideX16, "16"}, {ESBStrideX32, "32"}, {ESBStrideX64, "64"}}

	strideName := map[ESBStride]string{}
	for _, b := range bits {
		strideName[b.s] = b.n
	}

	for _, st := range strides {
		for _, pr := range prims {
			for vec := ESBVectorN1; vec <= ESBVectorN4; vec++ {
				for mat := ESBMatrixN1; mat <= ESBMatrixN4; mat++ {
					t := NewESBType(st, pr.p, vec, mat)
					name := pr.s + strideName[st]
					if vec != ESBVectorN1 || mat != ESBMatrixN1 {
						name += "x" + itoa(int(vec)+1)
					}
					if mat != ESBMatrixN1 {
						name += "x" + itoa(int(mat)+1)
					}
					names[t] = name
				}
			}
		}
	}
	return names
}

func itoa(v int) string {
	return string(rune('0' + v))
}

// Name returns the human-readable type name, or "" for an unused bit
// pattern (ESBType_name).
func (t ESBType) Name() string {
	return esbTypeNames[t]
}
