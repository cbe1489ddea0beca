package spirvbridge

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oish"
)

// formatToESHType maps the vertex-attribute SpvImageFormat values
// Compiler_processSPIRV's graphics I/O reflection table accepts
// (R16*..R64G64B64A64_*) onto the already-committed oish.ESHType nibble
// (spec.md §4.I.4). oish.ESHType carries only primitive+vector (no matrix,
// no stride byte width beyond 32-bit float/int/uint), so 16-bit formats
// fold onto their 32-bit ESHType; 64-bit formats have no entry and are
// rejected as Unsupported. This bridge targets the committed
// 4-bit-per-slot oiSH layout rather than inventing a wider one.
var formatToESHType = map[SpvImageFormat]oish.ESHType{
	SpvImageFormatR16f:    oish.ESHTypeF32,
	SpvImageFormatRg16f:   oish.ESHTypeF32x2,
	SpvImageFormatRgba16f: oish.ESHTypeF32x4,
	SpvImageFormatR32f:    oish.ESHTypeF32,
	SpvImageFormatRg32f:   oish.ESHTypeF32x2,
	SpvImageFormatRgba32f: oish.ESHTypeF32x4,
	SpvImageFormatR16i:    oish.ESHTypeI32,
	SpvImageFormatRg16i:   oish.ESHTypeI32x2,
	SpvImageFormatRgba16i: oish.ESHTypeI32x4,
	SpvImageFormatR32i:    oish.ESHTypeI32,
	SpvImageFormatRg32i:   oish.ESHTypeI32x2,
	SpvImageFormatRgba32i: oish.ESHTypeI32x4,
	SpvImageFormatR16ui:    oish.ESHTypeU32,
	SpvImageFormatRg16ui:   oish.ESHTypeU32x2,
	SpvImageFormatRgba16ui: oish.ESHTypeU32x4,
	SpvImageFormatR32ui:    oish.ESHTypeU32,
	SpvImageFormatRg32ui:   oish.ESHTypeU32x2,
	SpvImageFormatRgba32ui: oish.ESHTypeU32x4,
}

// reflectGraphicsIO implements spec.md §4.I.4: only variables carrying no
// SPIR-V builtin semantic are reflected, location must be in [0,16), and
// the interface variable's format is looked up in formatToESHType to
// produce the per-slot oish.ESHType nibble array.
//
// The reference's semantic-name splitting/dedup table (in.var.<X>/
// out.var.<X> trailing-decimal-index parsing, 4-bit name-index packing)
// has no destination in the committed oish.SHEntry shape, which only
// carries a type nibble per location slot — so this bridge resolves
// directly to that slot array instead of reconstructing the name table.
func reflectGraphicsIO(vars []InterfaceVariable) (inputs, outputs [16]oish.ESHType, err error) {
	for _, v := range vars {
		if v.BuiltIn >= 0 {
			continue
		}
		if v.Location >= 16 {
			return inputs, outputs, oxc3.OutOfBounds(0, uint64(v.Location), 16, "spirvbridge: interface variable location out of bounds")
		}

		typ, ok := formatToESHType[v.Format]
		if !ok {
			return inputs, outputs, oxc3.Unsupported(0, "spirvbridge: interface variable format is not supported")
		}

		switch v.StorageClass {
		case SpvStorageClassInput:
			inputs[v.Location] = typ
		case SpvStorageClassOutput:
			outputs[v.Location] = typ
		default:
			return inputs, outputs, oxc3.InvalidState(0, "spirvbridge: interface variable storage class must be Input or Output")
		}
	}
	return inputs, outputs, nil
}
