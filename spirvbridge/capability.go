package spirvbridge

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oish"
)

// capabilityKind classifies how a SpvCapability participates in the bridge's
// extension-requirement computation (spec.md §4.I.2).
type capabilityKind uint8

const (
	capKindExtension capabilityKind = iota // maps to exactly one ESHExtension bit
	capKindNoOp                            // always allowed, doesn't gate an extension
	capKindReject                          // never allowed
)

type capabilityMapping struct {
	kind capabilityKind
	ext  oish.ESHExtension // valid only when kind == capKindExtension
}

func noOp() capabilityMapping    { return capabilityMapping{kind: capKindNoOp} }
func reject() capabilityMapping  { return capabilityMapping{kind: capKindReject} }
func ext(e oish.ESHExtension) capabilityMapping {
	return capabilityMapping{kind: capKindExtension, ext: e}
}

// capabilityTable is the data-driven switch spvMapCapabilityToESHExtension
// implements as a C switch statement (original_source/src/shader_compiler/
// compiler_spv.cpp), ported here as a map per spec.md's "Design Notes"
// recommendation. Capabilities absent from the table are unknown and fail
// Convert with InvalidState (step 2's "unknown/new capabilities fail").
//
// oish.ESHExtension is a closed, already-fixed 14-bit set (spec.md §3 "oiSH
// file"); reference capabilities with no equivalent bit (subgroup vote/
// ballot, 16-bit-everything-but-scalar, multiview) are mapped to
// capKindNoOp rather than invented bits, since Demotions can only ever
// report demotable bits that exist. Compute-derivative-group capabilities
// have no entry and so fail as unknown.
var capabilityTable = map[SpvCapability]capabilityMapping{
	// Always allowed: base shader model, matrix math, array indexing,
	// image queries and sampling shapes every target is assumed to support.
	SpvCapabilityMatrix:                            noOp(),
	SpvCapabilityShader:                             noOp(),
	SpvCapabilityGeometry:                           noOp(),
	SpvCapabilityTessellation:                       noOp(),
	SpvCapabilityClipDistance:                       noOp(),
	SpvCapabilityCullDistance:                       noOp(),
	SpvCapabilityImageCubeArray:                     noOp(),
	SpvCapabilitySampleRateShading:                  noOp(),
	SpvCapabilityInputAttachment:                    noOp(),
	SpvCapabilitySampled1D:                          noOp(),
	SpvCapabilityImage1D:                            noOp(),
	SpvCapabilitySampledCubeArray:                   noOp(),
	SpvCapabilitySampledBuffer:                      noOp(),
	SpvCapabilityImageBuffer:                        noOp(),
	SpvCapabilityImageMSArray:                       noOp(),
	SpvCapabilityStorageImageExtendedFormats:        noOp(),
	SpvCapabilityImageQuery:                         noOp(),
	SpvCapabilityDerivativeControl:                  noOp(),
	SpvCapabilityInterpolationFunction:               noOp(),
	SpvCapabilityStorageImageReadWithoutFormat:       noOp(),
	SpvCapabilityStorageImageWriteWithoutFormat:      noOp(),
	SpvCapabilityMultiViewport:                      noOp(),
	SpvCapabilityImageGatherExtended:                noOp(),
	SpvCapabilityStorageImageMultisample:            noOp(),
	SpvCapabilityUniformBufferArrayDynamicIndexing:  noOp(),
	SpvCapabilitySampledImageArrayDynamicIndexing:   noOp(),
	SpvCapabilityStorageBufferArrayDynamicIndexing:  noOp(),
	SpvCapabilityStorageImageArrayDynamicIndexing:   noOp(),
	SpvCapabilityInt8:                               noOp(),
	SpvCapabilitySparseResidency:                    noOp(),
	SpvCapabilityMinLod:                             noOp(),
	SpvCapabilityShaderNonUniform:                   noOp(),
	SpvCapabilityRuntimeDescriptorArray:             noOp(),
	SpvCapabilityVulkanMemoryModel:                  noOp(),
	SpvCapabilityVulkanMemoryModelDeviceScope:       noOp(),
	SpvCapabilityPhysicalStorageBufferAddresses:     noOp(),
	SpvCapabilityDenormPreserve:                     noOp(),
	SpvCapabilityDenormFlushToZero:                  noOp(),
	SpvCapabilitySignedZeroInfNanPreserve:           noOp(),
	SpvCapabilityRoundingModeRTE:                    noOp(),
	SpvCapabilityRoundingModeRTZ:                    noOp(),
	SpvCapabilityDemoteToHelperInvocation:            noOp(),
	SpvCapabilityRayTracingKHR:                      noOp(), // gating lives in the entry-point stage, not an extension bit
	SpvCapabilityRayTracingNV:                       noOp(),
	SpvCapabilityStorageBuffer16BitAccess:            noOp(),
	SpvCapabilityUniformAndStorageBuffer16BitAccess:  noOp(),
	SpvCapabilityStoragePushConstant16:               noOp(),
	SpvCapabilityStorageInputOutput16:                noOp(),
	SpvCapabilityStorageBuffer8BitAccess:             noOp(),
	SpvCapabilityUniformAndStorageBuffer8BitAccess:   noOp(),
	SpvCapabilityStoragePushConstant8:                noOp(),
	SpvCapabilityDeviceGroup:                         noOp(),
	SpvCapabilityMultiView:                           noOp(),
	SpvCapabilityVariablePointersStorageBuffer:       noOp(),
	SpvCapabilityVariablePointers:                    noOp(),
	SpvCapabilityGroupNonUniform:                     noOp(),
	SpvCapabilityGroupNonUniformVote:                 noOp(),
	SpvCapabilityGroupNonUniformBallot:               noOp(),
	SpvCapabilityGroupNonUniformShuffleRelative:      noOp(),
	SpvCapabilityGroupNonUniformClustered:            noOp(),
	SpvCapabilityGroupNonUniformQuad:                 noOp(),

	// Maps to a declared oiSH extension bit.
	SpvCapabilityFloat64:                   ext(oish.ESHExtensionF64),
	SpvCapabilityInt64:                     ext(oish.ESHExtensionI64),
	SpvCapabilityInt64Atomics:              ext(oish.ESHExtensionAtomicI64),
	SpvCapabilityFloat16:                   ext(oish.ESHExtensionF16),
	SpvCapabilityInt16:                     ext(oish.ESHExtensionI16),
	SpvCapabilityAtomicFloat32AddEXT:       ext(oish.ESHExtensionAtomicF32),
	SpvCapabilityAtomicFloat32MinMaxEXT:    ext(oish.ESHExtensionAtomicF32),
	SpvCapabilityAtomicFloat64AddEXT:       ext(oish.ESHExtensionAtomicF64),
	SpvCapabilityAtomicFloat64MinMaxEXT:    ext(oish.ESHExtensionAtomicF64),
	SpvCapabilityGroupNonUniformArithmetic: ext(oish.ESHExtensionSubgroupArithmetic),
	SpvCapabilityGroupNonUniformShuffle:    ext(oish.ESHExtensionSubgroupShuffle),
	SpvCapabilityRayQueryKHR:               ext(oish.ESHExtensionRayQuery),
	SpvCapabilityRayQueryProvisionalKHR:    ext(oish.ESHExtensionRayQuery),
	SpvCapabilityRayTracingOpacityMicromapEXT: ext(oish.ESHExtensionRayMicromapOpacity),
	SpvCapabilityRayTracingMotionBlurNV:    ext(oish.ESHExtensionRayMotionBlur),

	// Never allowed: kernel/OpenCL-family, raw addressing, vendor-only or
	// provisional RT surfaces this bridge doesn't target.
	SpvCapabilityKernel:                       reject(),
	SpvCapabilityFloat16Buffer:                reject(),
	SpvCapabilityAddresses:                    reject(),
	SpvCapabilityLinkage:                      reject(),
	SpvCapabilityGroups:                       reject(),
	SpvCapabilityGeometryPointSize:            reject(),
	SpvCapabilityTessellationPointSize:        reject(),
	SpvCapabilityRayTraversalPrimitiveCullingKHR: reject(),
	SpvCapabilityRayTracingProvisionalKHR:     reject(),
}

// classifyCapability resolves cap to a mapping, or InvalidState if unknown
// (spec.md §4.I.2: "Unknown/new capabilities fail with InvalidState").
func classifyCapability(cap SpvCapability) (capabilityMapping, error) {
	m, ok := capabilityTable[cap]
	if !ok {
		return capabilityMapping{}, oxc3.InvalidState(0, "spirvbridge: unknown SPIR-V capability")
	}
	return m, nil
}

// requiredExtensions reduces a capability list to the ESHExtension bitmask
// they require, rejecting any capKindReject capability (spec.md §4.I.2).
func requiredExtensions(caps []SpvCapability) (oish.ESHExtension, error) {
	var required oish.ESHExtension
	for _, c := range caps {
		m, err := classifyCapability(c)
		if err != nil {
			return 0, err
		}
		switch m.kind {
		case capKindReject:
			return 0, oxc3.InvalidState(2, "spirvbridge: SPIR-V contained a capability that isn't supported in oiSH")
		case capKindExtension:
			required |= m.ext
		}
	}
	return required, nil
}

// Demotions implements spec.md §4.I.7: the set of declared-native SPIR-V
// extensions the target does NOT enable, and which the bridge can therefore
// safely strip/demote from the compiled binary.
func Demotions(enabled oish.ESHExtension) oish.ESHExtension {
	return (^enabled) & oish.ESHExtensionSpirvNative
}
