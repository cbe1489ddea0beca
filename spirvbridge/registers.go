package spirvbridge

import (
	"strings"

	"github.com/oxsomi/oxc3-go"
)

// RegisterKind is the runtime register table's classification of a
// descriptor binding (spec.md §4.I.5).
type RegisterKind uint8

const (
	RegisterKindConstantBuffer RegisterKind = iota
	RegisterKindStructuredBuffer
	RegisterKindStructuredBufferAtomic
	RegisterKindByteAddressBuffer
	RegisterKindStorageBuffer
	RegisterKindStorageBufferAtomic
	RegisterKindSampler
	RegisterKindTexture1D
	RegisterKindTexture2D
	RegisterKindTexture3D
	RegisterKindTextureCube
	RegisterKindTexture1DMS
	RegisterKindTexture2DMS
	RegisterKindAccelerationStructure
	RegisterKindSubpassInput
)

// Register is one entry in the runtime register table Convert builds from
// a Module's descriptor bindings (spec.md §4.I.5).
type Register struct {
	Name        string
	Kind        RegisterKind
	Set, Binding uint32
	IsArray     bool
	IsWrite     bool // UAV-side access (storage image/buffer opened for writing)
	TextureFormat ETextureFormatID
}

// ETextureFormatID is the bridge's resolved storage-image pixel format,
// populated only for RegisterKindTexture* with storage (UAV) access
// (spec.md §4.I.5).
type ETextureFormatID uint16

const (
	TextureFormatUndefined ETextureFormatID = iota
	TextureFormatRGBA32f
	TextureFormatRGBA16f
	TextureFormatR32f
	TextureFormatRGBA8
	TextureFormatRGBA8Snorm
	TextureFormatRG32f
	TextureFormatRG16f
	TextureFormatR16f
	TextureFormatRGBA16
	TextureFormatRGB10A2
	TextureFormatRG16
	TextureFormatRG8
	TextureFormatR16
	TextureFormatR8
	TextureFormatRGBA16Snorm
	TextureFormatRG16Snorm
	TextureFormatRG8Snorm
	TextureFormatR16Snorm
	TextureFormatR8Snorm
	TextureFormatRGBA32i
	TextureFormatRGBA16i
	TextureFormatRGBA8i
	TextureFormatR32i
	TextureFormatRG32i
	TextureFormatRG16i
	TextureFormatRG8i
	TextureFormatR16i
	TextureFormatR8i
	TextureFormatRGBA32ui
	TextureFormatRGBA16ui
	TextureFormatRGBA8ui
	TextureFormatR32ui
	TextureFormatRG32ui
	TextureFormatRG16ui
	TextureFormatRG8ui
	TextureFormatR16ui
	TextureFormatR8ui
)

// storageImageFormats maps the accepted SpvImageFormat values to
// ETextureFormatID (spec.md §4.I.5 "35 accepted formats"). Rgb10a2ui,
// R64ui, R64i and R11fG11fB10f are deliberately absent: the reference
// rejects them outright (compiler_spv.cpp's SpvImageFormat switch default).
var storageImageFormats = map[SpvImageFormat]ETextureFormatID{
	SpvImageFormatRgba32f:    TextureFormatRGBA32f,
	SpvImageFormatRgba16f:    TextureFormatRGBA16f,
	SpvImageFormatR32f:       TextureFormatR32f,
	SpvImageFormatRgba8:      TextureFormatRGBA8,
	SpvImageFormatRgba8Snorm: TextureFormatRGBA8Snorm,
	SpvImageFormatRg32f:      TextureFormatRG32f,
	SpvImageFormatRg16f:      TextureFormatRG16f,
	SpvImageFormatR16f:       TextureFormatR16f,
	SpvImageFormatRgba16:     TextureFormatRGBA16,
	SpvImageFormatRgb10A2:    TextureFormatRGB10A2,
	SpvImageFormatRg16:       TextureFormatRG16,
	SpvImageFormatRg8:        TextureFormatRG8,
	SpvImageFormatR16:        TextureFormatR16,
	SpvImageFormatR8:         TextureFormatR8,
	SpvImageFormatRgba16Snorm: TextureFormatRGBA16Snorm,
	SpvImageFormatRg16Snorm:  TextureFormatRG16Snorm,
	SpvImageFormatRg8Snorm:   TextureFormatRG8Snorm,
	SpvImageFormatR16Snorm:   TextureFormatR16Snorm,
	SpvImageFormatR8Snorm:    TextureFormatR8Snorm,
	SpvImageFormatRgba32i:    TextureFormatRGBA32i,
	SpvImageFormatRgba16i:    TextureFormatRGBA16i,
	SpvImageFormatRgba8i:     TextureFormatRGBA8i,
	SpvImageFormatR32i:       TextureFormatR32i,
	SpvImageFormatRg32i:      TextureFormatRG32i,
	SpvImageFormatRg16i:      TextureFormatRG16i,
	SpvImageFormatRg8i:       TextureFormatRG8i,
	SpvImageFormatR16i:       TextureFormatR16i,
	SpvImageFormatR8i:        TextureFormatR8i,
	SpvImageFormatRgba32ui:   TextureFormatRGBA32ui,
	SpvImageFormatRgba16ui:   TextureFormatRGBA16ui,
	SpvImageFormatRgba8ui:    TextureFormatRGBA8ui,
	SpvImageFormatR32ui:      TextureFormatR32ui,
	SpvImageFormatRg32ui:     TextureFormatRG32ui,
	SpvImageFormatRg16ui:     TextureFormatRG16ui,
	SpvImageFormatRg8ui:      TextureFormatRG8ui,
	SpvImageFormatR16ui:      TextureFormatR16ui,
	SpvImageFormatR8ui:       TextureFormatR8ui,
}

// classifyStorageBufferName inspects a type-name prefix to distinguish the
// HLSL-style StructuredBuffer family, mirroring
// Compiler_convertRegisterSPIRV's prefix chain (spec.md §4.I.5).
func classifyStorageBufferName(typeName string) (kind RegisterKind, isWrite bool) {
	name := strings.TrimPrefix(typeName, "type.")

	isRW := strings.HasPrefix(name, "RW")
	if isRW {
		name = strings.TrimPrefix(name, "RW")
	}

	switch {
	case strings.HasPrefix(name, "ByteAddressBuffer"):
		return RegisterKindByteAddressBuffer, isRW
	case strings.HasPrefix(name, "AppendStructuredBuffer."):
		return RegisterKindStructuredBufferAtomic, true
	case strings.HasPrefix(name, "ConsumeStructuredBuffer."):
		return RegisterKindStructuredBufferAtomic, true
	case strings.HasPrefix(name, "StructuredBuffer."):
		return RegisterKindStructuredBuffer, isRW
	default:
		return RegisterKindStorageBuffer, isRW
	}
}

// ConvertRegister translates one DescriptorBinding into a Register, the Go
// form of Compiler_convertRegisterSPIRV (spec.md §4.I.5). b.NonWritable is
// the presence of the binding's SPIR-V `NonWritable` decoration.
func ConvertRegister(b DescriptorBinding) (Register, error) {
	reg := Register{Name: b.Name, Set: b.Set, Binding: b.Binding, IsArray: b.Count > 1 || b.Array.DimCount > 0}

	switch b.DescriptorType {
	case DescriptorTypeUniformBuffer:
		if reg.IsArray {
			return Register{}, oxc3.Unsupported(0, "spirvbridge: ConstantBuffer arrays are not supported")
		}
		reg.Kind = RegisterKindConstantBuffer

	case DescriptorTypeStorageBuffer:
		kind, isWrite := classifyStorageBufferName(b.TypeDescription.TypeName)
		reg.Kind = kind
		reg.IsWrite = isWrite && !b.NonWritable
		if kind == RegisterKindStorageBuffer && reg.IsWrite {
			reg.Kind = RegisterKindStorageBufferAtomic
		}

	case DescriptorTypeSampler:
		if b.Image != (ImageInfo{}) {
			return Register{}, oxc3.InvalidState(0, "spirvbridge: Sampler binding must not carry image traits")
		}
		reg.Kind = RegisterKindSampler

	case DescriptorTypeSampledImage, DescriptorTypeStorageImage:
		kind, err := classifyImage(b.Image)
		if err != nil {
			return Register{}, err
		}
		reg.Kind = kind
		reg.IsWrite = b.DescriptorType == DescriptorTypeStorageImage
		if reg.IsWrite {
			format, ok := storageImageFormats[b.Image.ImageFormat]
			if !ok {
				return Register{}, oxc3.Unsupported(0, "spirvbridge: storage image format is not supported")
			}
			reg.TextureFormat = format
		}

	case DescriptorTypeAccelerationStructure:
		reg.Kind = RegisterKindAccelerationStructure

	case DescriptorTypeInputAttachment:
		if b.InputAttachmentIndex >= 65536 {
			return Register{}, oxc3.OutOfBounds(0, uint64(b.InputAttachmentIndex), 65536, "spirvbridge: input attachment index out of bounds")
		}
		reg.Kind = RegisterKindSubpassInput

	default:
		return Register{}, oxc3.Unsupported(0, "spirvbridge: descriptor type is not supported (dynamic UBO/SBO, texel buffer, combined image sampler)")
	}

	return reg, nil
}

// ConvertRegisters classifies every descriptor binding across mod's entry
// points into the runtime register table (spec.md §4.I.5). A binding that
// appears in more than one entry point (same set+binding) is emitted once.
func ConvertRegisters(mod *Module) ([]Register, error) {
	type slot struct{ set, binding uint32 }
	seen := map[slot]struct{}{}

	var regs []Register
	for _, ep := range mod.EntryPoints {
		for _, set := range ep.DescriptorSets {
			for _, b := range set.Bindings {
				// ACSBuffer.counter bindings are the hidden UAV counters of
				// Append/Consume buffers; the owning buffer's register
				// already accounts for them.
				if strings.HasPrefix(b.TypeDescription.TypeName, "ACSBuffer.counter") {
					continue
				}
				s := slot{b.Set, b.Binding}
				if _, ok := seen[s]; ok {
					continue
				}
				seen[s] = struct{}{}

				reg, err := ConvertRegister(b)
				if err != nil {
					return nil, err
				}
				regs = append(regs, reg)
			}
		}
	}
	return regs, nil
}

func classifyImage(img ImageInfo) (RegisterKind, error) {
	switch img.Dim {
	case ImageDim1D:
		if img.MS {
			return RegisterKindTexture1DMS, nil
		}
		return RegisterKindTexture1D, nil
	case ImageDim2D:
		if img.MS {
			return RegisterKindTexture2DMS, nil
		}
		return RegisterKindTexture2D, nil
	case ImageDim3D:
		return RegisterKindTexture3D, nil
	case ImageDimCube:
		return RegisterKindTextureCube, nil
	default:
		return 0, oxc3.Unsupported(0, "spirvbridge: image dimension is not supported")
	}
}
