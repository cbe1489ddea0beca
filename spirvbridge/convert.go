package spirvbridge

import (
	"encoding/binary"

	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oisb"
	"github.com/oxsomi/oxc3-go/oish"
)

// spirvMagic is SPIR-V's little-endian magic word (spec.md §4.I.1).
const spirvMagic uint32 = 0x07230203

// checkHeader implements step 1 of spec.md §4.I: length >= 8, a multiple of
// 4, and the first word equal to spirvMagic.
func checkHeader(raw []byte) error {
	if len(raw) < 8 {
		return oxc3.OutOfBounds(0, uint64(len(raw)), 8, "spirvbridge: SPIR-V binary shorter than 8 bytes")
	}
	if len(raw)&3 != 0 {
		return oxc3.InvalidParameter(0, 0, "spirvbridge: SPIR-V binary length isn't a multiple of 4")
	}
	if binary.LittleEndian.Uint32(raw[:4]) != spirvMagic {
		return oxc3.InvalidParameter(0, 1, "spirvbridge: bad SPIR-V magic number")
	}
	return nil
}

// executionModelToStage maps SpvExecutionModel to ESHPipelineStage (step 3).
// localSize is only meaningful for GLCompute.
func executionModelToStage(model SpvExecutionModel) (oish.ESHPipelineStage, bool) {
	switch model {
	case SpvExecutionModelVertex:
		return oish.ESHPipelineStageVertex, true
	case SpvExecutionModelFragment:
		return oish.ESHPipelineStagePixel, true
	case SpvExecutionModelGLCompute:
		return oish.ESHPipelineStageCompute, true
	case SpvExecutionModelGeometry:
		return oish.ESHPipelineStageGeometryExt, true
	case SpvExecutionModelTessellationControl:
		return oish.ESHPipelineStageHull, true
	case SpvExecutionModelTessellationEvaluation:
		return oish.ESHPipelineStageDomain, true
	case SpvExecutionModelMeshEXT, SpvExecutionModelMeshNV:
		return oish.ESHPipelineStageMeshExt, true
	case SpvExecutionModelTaskEXT, SpvExecutionModelTaskNV:
		return oish.ESHPipelineStageTaskExt, true
	case SpvExecutionModelRayGenerationKHR:
		return oish.ESHPipelineStageRaygenExt, true
	case SpvExecutionModelCallableKHR:
		return oish.ESHPipelineStageCallableExt, true
	case SpvExecutionModelMissKHR:
		return oish.ESHPipelineStageMissExt, true
	case SpvExecutionModelClosestHitKHR:
		return oish.ESHPipelineStageClosestHitExt, true
	case SpvExecutionModelAnyHitKHR:
		return oish.ESHPipelineStageAnyHitExt, true
	case SpvExecutionModelIntersectionKHR:
		return oish.ESHPipelineStageIntersectionExt, true
	default:
		return 0, false
	}
}

func isRTStage(stage oish.ESHPipelineStage) bool {
	switch stage {
	case oish.ESHPipelineStageRaygenExt, oish.ESHPipelineStageCallableExt, oish.ESHPipelineStageMissExt,
		oish.ESHPipelineStageClosestHitExt, oish.ESHPipelineStageAnyHitExt, oish.ESHPipelineStageIntersectionExt:
		return true
	default:
		return false
	}
}

// buildEntry converts one reflected EntryPoint into an oish.SHEntry,
// covering steps 3 and 4 of spec.md §4.I.
func buildEntry(ep EntryPoint) (oish.SHEntry, error) {
	stage, ok := executionModelToStage(ep.ExecutionModel)
	if !ok {
		return oish.SHEntry{}, oxc3.Unsupported(0, "spirvbridge: execution model is not supported")
	}

	entry := oish.SHEntry{Name: ep.Name, Stage: stage}

	switch {
	case stage == oish.ESHPipelineStageCompute:
		entry.GroupX = uint16(ep.LocalSizeX)
		entry.GroupY = uint16(ep.LocalSizeY)
		entry.GroupZ = uint16(ep.LocalSizeZ)

	case isRTStage(stage):
		for _, v := range ep.InterfaceVariables {
			switch v.StorageClass {
			case SpvStorageClassIncomingRayPayloadKHR, SpvStorageClassRayPayloadKHR, SpvStorageClassCallableDataKHR, SpvStorageClassIncomingCallableDataKHR:
				size, err := checkPayloadOrAttribute(v, MaxRayPayloadSize)
				if err != nil {
					return oish.SHEntry{}, err
				}
				entry.PayloadSize = uint8(size)

			case SpvStorageClassHitAttributeKHR:
				size, err := checkPayloadOrAttribute(v, MaxHitAttributeSize)
				if err != nil {
					return oish.SHEntry{}, err
				}
				entry.IntersectionSize = uint8(size)
			}
		}

	default:
		inputs, outputs, err := reflectGraphicsIO(ep.InterfaceVariables)
		if err != nil {
			return oish.SHEntry{}, err
		}
		entry.Inputs = inputs
		entry.Outputs = outputs
	}

	return entry, nil
}

// firstShaderBuffer locates the first Constant/Structured/StorageBuffer
// register across mod's descriptor sets, the single buffer ConvertShaderBuffer
// materializes as the returned *oisb.File (spec.md §4.I.5-6; this bridge
// converts one buffer at a time the way oisb.File itself describes one
// buffer at a time — callers wanting every binding's layout call
// ConvertShaderBuffer directly per binding).
func firstShaderBuffer(mod *Module) (*DescriptorBinding, bool) {
	for _, ep := range mod.EntryPoints {
		for _, set := range ep.DescriptorSets {
			for i, b := range set.Bindings {
				switch b.DescriptorType {
				case DescriptorTypeUniformBuffer, DescriptorTypeStorageBuffer:
					return &set.Bindings[i], true
				}
			}
		}
	}
	return nil, false
}

// Convert implements spec.md §4.I end to end: header sanity, capability
// validation against target's declared extensions, the entry-point walk
// (populating target via AddEntrypoint and AddBinary), descriptor-binding
// classification into the runtime register table, and the shader-buffer
// layout extraction for the first eligible descriptor binding found.
//
// Step 8 (optimize/strip) is not run here; call Strip separately per its own
// documented scope.
func Convert(raw []byte, mod *Module, target *oish.File) (*oisb.File, *oish.File, []Register, error) {
	if err := checkHeader(raw); err != nil {
		return nil, nil, nil, err
	}
	if mod == nil {
		return nil, nil, nil, oxc3.NullPointer(1, "spirvbridge.Convert: mod is required")
	}
	if target == nil {
		return nil, nil, nil, oxc3.NullPointer(2, "spirvbridge.Convert: target is required")
	}

	required, err := requiredExtensions(mod.Capabilities)
	if err != nil {
		return nil, nil, nil, err
	}
	if required&^target.Extensions != 0 {
		return nil, nil, nil, oxc3.InvalidState(2, "spirvbridge.Convert: SPIR-V contained a capability that wasn't enabled by the oiSH file")
	}

	for _, ep := range mod.EntryPoints {
		entry, err := buildEntry(ep)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := target.AddEntrypoint(entry); err != nil {
			return nil, nil, nil, err
		}
	}

	if err := target.AddBinary(oish.ESHBinaryTypeSPIRV, raw); err != nil {
		return nil, nil, nil, err
	}

	registers, err := ConvertRegisters(mod)
	if err != nil {
		return nil, nil, nil, err
	}

	var sb *oisb.File
	if binding, ok := firstShaderBuffer(mod); ok {
		sb, err = ConvertShaderBuffer(binding.Block, false)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return sb, target, registers, nil
}

// spirvHeaderSize is the fixed 5-word SPIR-V module header no debug range
// may overlap.
const spirvHeaderSize = 20

// DebugRange marks one instruction span the caller's reflection pass
// identified as debug or reflection info (OpSource, OpString, OpName,
// OpMemberName, OpModuleProcessed, reflection-only decorations). Offset and
// Length are in bytes and must be whole words, past the module header.
type DebugRange struct {
	Offset, Length uint32
}

// Strip performs the portion of spec.md §4.I.8 expressible without shipping
// a SPIR-V optimizer: it 4-byte-aligns spirv (the precondition the reference
// applies before running its strip passes) and removes the caller-supplied
// debug/reflection instruction ranges, which must be sorted, word-aligned,
// non-overlapping and inside the body of the module. With no ranges the
// result is the aligned input unchanged.
//
// Identifying the ranges requires instruction-level reflection and so stays
// with the caller's DXC-like driver, as does the full `-O --legalize-hlsl`
// optimization recipe (see DESIGN.md).
func Strip(spirv []byte, debug []DebugRange) ([]byte, error) {
	aligned := spirv
	if len(spirv)&3 != 0 {
		aligned = make([]byte, (len(spirv)+3)&^3)
		copy(aligned, spirv)
	}
	if len(debug) == 0 {
		return aligned, nil
	}

	prevEnd := uint32(spirvHeaderSize)
	for _, d := range debug {
		if d.Length == 0 || d.Offset&3 != 0 || d.Length&3 != 0 {
			return nil, oxc3.InvalidParameter(1, 0, "spirvbridge.Strip: debug range isn't whole words")
		}
		if d.Offset < prevEnd {
			return nil, oxc3.InvalidParameter(1, 1, "spirvbridge.Strip: debug ranges must be sorted, non-overlapping and past the header")
		}
		end := uint64(d.Offset) + uint64(d.Length)
		if end > uint64(len(aligned)) {
			return nil, oxc3.OutOfBounds(1, end, uint64(len(aligned)), "spirvbridge.Strip: debug range exceeds the binary")
		}
		prevEnd = d.Offset + d.Length
	}

	out := make([]byte, 0, len(aligned))
	cursor := uint32(0)
	for _, d := range debug {
		out = append(out, aligned[cursor:d.Offset]...)
		cursor = d.Offset + d.Length
	}
	out = append(out, aligned[cursor:]...)
	return out, nil
}
