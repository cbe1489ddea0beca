// Package spirvbridge converts a SPIR-V reflection shape (as produced by a
// SPIRV-Cross/SPIRV-Reflect-style frontend) into oiSB buffer layouts and
// oiSH per-entry-point metadata, grounded on
// original_source/src/shader_compiler/compiler_spv.cpp's Compiler_processSPIRV
// family (spec.md §4.I, §6.7).
//
// This package never parses a SPIR-V binary itself: Convert's raw argument
// is only checked for the header shape (magic, length), while the actual
// reflection data arrives pre-extracted as a Module. Binary disassembly and
// the `-O --legalize-hlsl` optimizer pass are out of scope (see Strip).
package spirvbridge

// SpvCapability mirrors the numeric values of SPIR-V's Capability enum
// (SPIR-V spec §3.31); only the subset compiler_spv.cpp's switch inspects is
// named here.
type SpvCapability uint32

const (
	SpvCapabilityMatrix                     SpvCapability = 0
	SpvCapabilityShader                      SpvCapability = 1
	SpvCapabilityGeometry                    SpvCapability = 2
	SpvCapabilityTessellation                SpvCapability = 3
	SpvCapabilityAddresses                   SpvCapability = 4
	SpvCapabilityLinkage                     SpvCapability = 5
	SpvCapabilityKernel                      SpvCapability = 6
	SpvCapabilityFloat16Buffer               SpvCapability = 8
	SpvCapabilityFloat16                     SpvCapability = 9
	SpvCapabilityFloat64                     SpvCapability = 10
	SpvCapabilityInt64                       SpvCapability = 11
	SpvCapabilityInt64Atomics                SpvCapability = 12
	SpvCapabilityGroups                      SpvCapability = 18
	SpvCapabilityInt16                       SpvCapability = 22
	SpvCapabilityTessellationPointSize       SpvCapability = 23
	SpvCapabilityGeometryPointSize           SpvCapability = 24
	SpvCapabilityImageGatherExtended         SpvCapability = 25
	SpvCapabilityStorageImageMultisample     SpvCapability = 27
	SpvCapabilityUniformBufferArrayDynamicIndexing SpvCapability = 28
	SpvCapabilitySampledImageArrayDynamicIndexing  SpvCapability = 29
	SpvCapabilityStorageBufferArrayDynamicIndexing SpvCapability = 30
	SpvCapabilityStorageImageArrayDynamicIndexing  SpvCapability = 31
	SpvCapabilityClipDistance                SpvCapability = 32
	SpvCapabilityCullDistance                SpvCapability = 33
	SpvCapabilityImageCubeArray              SpvCapability = 34
	SpvCapabilitySampleRateShading            SpvCapability = 35
	SpvCapabilityInt8                        SpvCapability = 39
	SpvCapabilityInputAttachment             SpvCapability = 40
	SpvCapabilitySparseResidency             SpvCapability = 41
	SpvCapabilityMinLod                      SpvCapability = 42
	SpvCapabilitySampled1D                   SpvCapability = 43
	SpvCapabilityImage1D                     SpvCapability = 44
	SpvCapabilitySampledCubeArray            SpvCapability = 45
	SpvCapabilitySampledBuffer               SpvCapability = 46
	SpvCapabilityImageBuffer                 SpvCapability = 47
	SpvCapabilityImageMSArray                SpvCapability = 48
	SpvCapabilityStorageImageExtendedFormats SpvCapability = 49
	SpvCapabilityImageQuery                  SpvCapability = 50
	SpvCapabilityDerivativeControl           SpvCapability = 51
	SpvCapabilityInterpolationFunction       SpvCapability = 52
	SpvCapabilityStorageImageReadWithoutFormat  SpvCapability = 55
	SpvCapabilityStorageImageWriteWithoutFormat SpvCapability = 56
	SpvCapabilityMultiViewport               SpvCapability = 57
	SpvCapabilityGroupNonUniform              SpvCapability = 61
	SpvCapabilityGroupNonUniformVote          SpvCapability = 62
	SpvCapabilityGroupNonUniformArithmetic    SpvCapability = 63
	SpvCapabilityGroupNonUniformBallot        SpvCapability = 64
	SpvCapabilityGroupNonUniformShuffle       SpvCapability = 65
	SpvCapabilityGroupNonUniformShuffleRelative SpvCapability = 66
	SpvCapabilityGroupNonUniformClustered     SpvCapability = 67
	SpvCapabilityGroupNonUniformQuad          SpvCapability = 68
	SpvCapabilityShaderNonUniform             SpvCapability = 5301
	SpvCapabilityRuntimeDescriptorArray       SpvCapability = 5302
	SpvCapabilityStorageBuffer16BitAccess     SpvCapability = 4433
	SpvCapabilityUniformAndStorageBuffer16BitAccess SpvCapability = 4434
	SpvCapabilityStoragePushConstant16        SpvCapability = 4435
	SpvCapabilityStorageInputOutput16         SpvCapability = 4436
	SpvCapabilityDeviceGroup                  SpvCapability = 4437
	SpvCapabilityMultiView                    SpvCapability = 4439
	SpvCapabilityVariablePointersStorageBuffer SpvCapability = 4441
	SpvCapabilityVariablePointers              SpvCapability = 4442
	SpvCapabilityStorageBuffer8BitAccess      SpvCapability = 4448
	SpvCapabilityUniformAndStorageBuffer8BitAccess SpvCapability = 4449
	SpvCapabilityStoragePushConstant8         SpvCapability = 4450
	SpvCapabilityDenormPreserve               SpvCapability = 4464
	SpvCapabilityDenormFlushToZero            SpvCapability = 4465
	SpvCapabilitySignedZeroInfNanPreserve     SpvCapability = 4466
	SpvCapabilityRoundingModeRTE              SpvCapability = 4467
	SpvCapabilityRoundingModeRTZ              SpvCapability = 4468
	SpvCapabilityRayQueryProvisionalKHR       SpvCapability = 4471
	SpvCapabilityRayQueryKHR                  SpvCapability = 4472
	SpvCapabilityRayTraversalPrimitiveCullingKHR SpvCapability = 4478
	SpvCapabilityRayTracingKHR                SpvCapability = 4479
	SpvCapabilityVulkanMemoryModel            SpvCapability = 5345
	SpvCapabilityVulkanMemoryModelDeviceScope SpvCapability = 5346
	SpvCapabilityPhysicalStorageBufferAddresses SpvCapability = 5347
	SpvCapabilityRayTracingNV                 SpvCapability = 5340
	SpvCapabilityRayTracingMotionBlurNV       SpvCapability = 5341
	SpvCapabilityRayTracingProvisionalKHR     SpvCapability = 5353
	SpvCapabilityDemoteToHelperInvocation     SpvCapability = 5379
	SpvCapabilityRayTracingOpacityMicromapEXT SpvCapability = 5381
	SpvCapabilityAtomicFloat32AddEXT          SpvCapability = 6033
	SpvCapabilityAtomicFloat64AddEXT          SpvCapability = 6034
	SpvCapabilityAtomicFloat32MinMaxEXT       SpvCapability = 5612
	SpvCapabilityAtomicFloat64MinMaxEXT       SpvCapability = 5613
)

// SpvExecutionModel mirrors SPIR-V's ExecutionModel enum values the bridge
// maps to ESHPipelineStage.
type SpvExecutionModel uint32

const (
	SpvExecutionModelVertex                 SpvExecutionModel = 0
	SpvExecutionModelTessellationControl    SpvExecutionModel = 1
	SpvExecutionModelTessellationEvaluation SpvExecutionModel = 2
	SpvExecutionModelGeometry               SpvExecutionModel = 3
	SpvExecutionModelFragment               SpvExecutionModel = 4
	SpvExecutionModelGLCompute              SpvExecutionModel = 5
	SpvExecutionModelTaskNV                 SpvExecutionModel = 5267
	SpvExecutionModelMeshNV                 SpvExecutionModel = 5268
	SpvExecutionModelRayGenerationKHR       SpvExecutionModel = 5313
	SpvExecutionModelIntersectionKHR        SpvExecutionModel = 5314
	SpvExecutionModelAnyHitKHR              SpvExecutionModel = 5315
	SpvExecutionModelClosestHitKHR          SpvExecutionModel = 5316
	SpvExecutionModelMissKHR                SpvExecutionModel = 5317
	SpvExecutionModelCallableKHR            SpvExecutionModel = 5318
	SpvExecutionModelTaskEXT                SpvExecutionModel = 5364
	SpvExecutionModelMeshEXT                SpvExecutionModel = 5365
)

// SpvStorageClass mirrors the StorageClass values the interface-variable
// scan and RT payload/attribute walk inspect.
type SpvStorageClass uint32

const (
	SpvStorageClassInput             SpvStorageClass = 1
	SpvStorageClassOutput            SpvStorageClass = 3
	SpvStorageClassUniformConstant   SpvStorageClass = 0
	SpvStorageClassUniform           SpvStorageClass = 2
	SpvStorageClassStorageBuffer     SpvStorageClass = 12
	SpvStorageClassIncomingRayPayloadKHR SpvStorageClass = 5342
	SpvStorageClassRayPayloadKHR      SpvStorageClass = 5338
	SpvStorageClassHitAttributeKHR    SpvStorageClass = 5339
	SpvStorageClassCallableDataKHR    SpvStorageClass = 5328
	SpvStorageClassIncomingCallableDataKHR SpvStorageClass = 5329
)

// DescriptorType mirrors SpvReflectDescriptorType, the VkDescriptorType-
// shaped classification of a DescriptorBinding.
type DescriptorType uint32

const (
	DescriptorTypeSampler              DescriptorType = 0
	DescriptorTypeCombinedImageSampler DescriptorType = 1
	DescriptorTypeSampledImage         DescriptorType = 2
	DescriptorTypeStorageImage         DescriptorType = 3
	DescriptorTypeUniformTexelBuffer   DescriptorType = 4
	DescriptorTypeStorageTexelBuffer   DescriptorType = 5
	DescriptorTypeUniformBuffer        DescriptorType = 6
	DescriptorTypeStorageBuffer        DescriptorType = 7
	DescriptorTypeUniformBufferDynamic DescriptorType = 8
	DescriptorTypeStorageBufferDynamic DescriptorType = 9
	DescriptorTypeInputAttachment      DescriptorType = 10
	DescriptorTypeAccelerationStructure DescriptorType = 1000150000
)

// ImageDim mirrors SPIR-V's Dim enum.
type ImageDim uint32

const (
	ImageDim1D       ImageDim = 0
	ImageDim2D       ImageDim = 1
	ImageDim3D       ImageDim = 2
	ImageDimCube     ImageDim = 3
	ImageDimSubpassData ImageDim = 6
)

// SpvImageFormat mirrors SPIR-V's ImageFormat enum; only the values
// Compiler_convertRegisterSPIRV's format table inspects are named.
type SpvImageFormat uint32

const (
	SpvImageFormatUnknown       SpvImageFormat = 0
	SpvImageFormatRgba32f       SpvImageFormat = 1
	SpvImageFormatRgba16f       SpvImageFormat = 2
	SpvImageFormatR32f         SpvImageFormat = 3
	SpvImageFormatRgba8        SpvImageFormat = 4
	SpvImageFormatRgba8Snorm   SpvImageFormat = 5
	SpvImageFormatRg32f        SpvImageFormat = 6
	SpvImageFormatRg16f        SpvImageFormat = 7
	SpvImageFormatR11fG11fB10f SpvImageFormat = 8
	SpvImageFormatR16f         SpvImageFormat = 9
	SpvImageFormatRgba16       SpvImageFormat = 10
	SpvImageFormatRgb10A2      SpvImageFormat = 11
	SpvImageFormatRg16        SpvImageFormat = 12
	SpvImageFormatRg8         SpvImageFormat = 13
	SpvImageFormatR16         SpvImageFormat = 14
	SpvImageFormatR8          SpvImageFormat = 15
	SpvImageFormatRgba16Snorm SpvImageFormat = 16
	SpvImageFormatRg16Snorm   SpvImageFormat = 17
	SpvImageFormatRg8Snorm    SpvImageFormat = 18
	SpvImageFormatR16Snorm    SpvImageFormat = 19
	SpvImageFormatR8Snorm     SpvImageFormat = 20
	SpvImageFormatRgba32i     SpvImageFormat = 21
	SpvImageFormatRgba16i     SpvImageFormat = 22
	SpvImageFormatRgba8i      SpvImageFormat = 23
	SpvImageFormatR32i        SpvImageFormat = 24
	SpvImageFormatRg32i       SpvImageFormat = 25
	SpvImageFormatRg16i       SpvImageFormat = 26
	SpvImageFormatRg8i        SpvImageFormat = 27
	SpvImageFormatR16i        SpvImageFormat = 28
	SpvImageFormatR8i         SpvImageFormat = 29
	SpvImageFormatRgba32ui    SpvImageFormat = 30
	SpvImageFormatRgba16ui    SpvImageFormat = 31
	SpvImageFormatRgba8ui     SpvImageFormat = 32
	SpvImageFormatR32ui       SpvImageFormat = 33
	SpvImageFormatRgb10a2ui   SpvImageFormat = 34
	SpvImageFormatRg32ui      SpvImageFormat = 35
	SpvImageFormatRg16ui      SpvImageFormat = 36
	SpvImageFormatRg8ui       SpvImageFormat = 37
	SpvImageFormatR16ui       SpvImageFormat = 38
	SpvImageFormatR8ui        SpvImageFormat = 39
	SpvImageFormatR64ui       SpvImageFormat = 40
	SpvImageFormatR64i        SpvImageFormat = 41
)

// TypeDescription is a (possibly recursive) reflected SPIR-V type, mirroring
// the SpvReflectTypeDescription fields the bridge inspects (spec.md §6.7).
type TypeDescription struct {
	TypeName string
	Members  []TypeDescription
}

// Member is one field of a reflected struct/block, mirroring
// SpvReflectBlockVariable.
type Member struct {
	Name            string
	Offset          uint32
	Size            uint32
	PaddedSize      uint32
	ArrayDims       []uint32
	ArrayStride     uint32
	MatrixStride    uint32
	IsRowMajor      bool
	IsColumnMajor   bool
	Members         []Member
	TypeDescription TypeDescription
	Numeric         NumericInfo
}

// NumericInfo mirrors the scalar/vector/matrix shape of a reflected numeric
// type (SpvReflectNumericTraits).
type NumericInfo struct {
	ComponentCount uint8 // vector width, 1 for scalars
	ComponentBits  uint8 // 8/16/32/64
	IsFloat        bool
	IsSigned       bool
	MatrixColumns  uint8 // 0 when not a matrix
	MatrixRows     uint8
	MatrixStride   uint32
}

// Block mirrors SpvReflectBlockVariable at the top of a descriptor binding:
// the buffer's declared members, its nominal and padded size (padded_size
// == 0 signals a "$Element"-wrapped single-element buffer per spec.md
// §4.I.6), and its decoration flags.
type Block struct {
	Name              string
	Size              uint32
	PaddedSize        uint32
	Members           []Member
	DecorationFlags   uint32
	Numeric           NumericInfo
	TypeDescription   TypeDescription
}

// ImageInfo mirrors SpvReflectImageTraits.
type ImageInfo struct {
	Dim         ImageDim
	Arrayed     bool
	MS          bool
	Depth       bool
	Sampled     uint32
	ImageFormat SpvImageFormat
}

// ArrayInfo mirrors SpvReflectBindingArrayTraits.
type ArrayInfo struct {
	Dims     []uint32
	DimCount uint32
}

// DescriptorBinding mirrors SpvReflectDescriptorBinding (spec.md §6.7).
type DescriptorBinding struct {
	Name              string
	DescriptorType    DescriptorType
	Set, Binding      uint32
	Count             uint32
	Array             ArrayInfo
	Block             Block
	Image             ImageInfo
	InputAttachmentIndex uint32
	UAVCounterID      uint32
	UAVCounterBinding int32 // -1 when absent
	NonWritable       bool
	TypeDescription   TypeDescription
}

// InterfaceVariable mirrors SpvReflectInterfaceVariable, the reflected shape
// of a Vertex/Pixel-stage in/out variable or an RT payload/attribute
// interface block.
type InterfaceVariable struct {
	Name            string
	StorageClass    SpvStorageClass
	Location        uint32
	Format          SpvImageFormat
	BuiltIn         int32 // -1 when this variable carries no builtin semantic
	TypeDescription TypeDescription
	Members         []Member
	Numeric         NumericInfo
}

// EntryPoint mirrors SpvReflectEntryPoint.
type EntryPoint struct {
	Name               string
	ExecutionModel     SpvExecutionModel
	LocalSizeX         uint32
	LocalSizeY         uint32
	LocalSizeZ         uint32
	InterfaceVariables []InterfaceVariable
	DescriptorSets     []DescriptorSet
}

// DescriptorSet mirrors SpvReflectDescriptorSet.
type DescriptorSet struct {
	Set      uint32
	Bindings []DescriptorBinding
}

// Module is the full reflected SPIR-V shape the bridge consumes
// (spec.md §6.7).
type Module struct {
	Capabilities []SpvCapability
	EntryPoints  []EntryPoint
}
