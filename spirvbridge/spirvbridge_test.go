package spirvbridge

import (
	"bytes"
	"testing"

	"github.com/oxsomi/oxc3-go/oish"
)

func validSPIRV(words int) []byte {
	buf := make([]byte, words*4)
	buf[0], buf[1], buf[2], buf[3] = 0x03, 0x02, 0x23, 0x07
	return buf
}

func TestCheckHeaderRejectsBadMagic(t *testing.T) {
	raw := validSPIRV(4)
	raw[0] = 0
	if err := checkHeader(raw); err == nil {
		t.Error("expected error for bad magic")
	}
}

func TestCheckHeaderRejectsShortOrMisaligned(t *testing.T) {
	if err := checkHeader([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for too-short binary")
	}
	if err := checkHeader(append(validSPIRV(4), 0)); err == nil {
		t.Error("expected error for non-multiple-of-4 length")
	}
}

// TestCapabilityRejectionKernel is spec.md §8 scenario S6: Kernel must be
// rejected outright.
func TestCapabilityRejectionKernel(t *testing.T) {
	mod := &Module{Capabilities: []SpvCapability{SpvCapabilityShader, SpvCapabilityKernel}}
	target, err := oish.Create(oish.FlagsNone, 0)
	if err != nil {
		t.Fatalf("oish.Create: %v", err)
	}
	if _, _, _, err := Convert(validSPIRV(10), mod, target); err == nil {
		t.Error("expected InvalidState for Kernel capability")
	}
}

// TestCapabilityRejectionMissingExtension is spec.md §8 scenario S6:
// RayQueryKHR requires the target to declare ESHExtensionRayQuery.
func TestCapabilityRejectionMissingExtension(t *testing.T) {
	mod := &Module{
		Capabilities: []SpvCapability{SpvCapabilityShader, SpvCapabilityRayQueryKHR},
		EntryPoints: []EntryPoint{{
			Name:           "main",
			ExecutionModel: SpvExecutionModelGLCompute,
			LocalSizeX:     8, LocalSizeY: 8, LocalSizeZ: 1,
		}},
	}
	target, err := oish.Create(oish.FlagsNone, 0)
	if err != nil {
		t.Fatalf("oish.Create: %v", err)
	}
	if _, _, _, err := Convert(validSPIRV(10), mod, target); err == nil {
		t.Error("expected InvalidState when target doesn't declare RayQuery")
	}

	target2, err := oish.Create(oish.FlagsNone, oish.ESHExtensionRayQuery)
	if err != nil {
		t.Fatalf("oish.Create: %v", err)
	}
	if _, _, _, err := Convert(validSPIRV(10), mod, target2); err != nil {
		t.Errorf("Convert with declared RayQuery extension: %v", err)
	}
}

func TestUnknownCapabilityFails(t *testing.T) {
	mod := &Module{Capabilities: []SpvCapability{SpvCapability(0xFFFFFF)}}
	target, err := oish.Create(oish.FlagsNone, 0)
	if err != nil {
		t.Fatalf("oish.Create: %v", err)
	}
	if _, _, _, err := Convert(validSPIRV(10), mod, target); err == nil {
		t.Error("expected InvalidState for unknown capability")
	}
}

func TestDemotions(t *testing.T) {
	enabled := oish.ESHExtensionF64 | oish.ESHExtensionRayQuery
	d := Demotions(enabled)
	if d&oish.ESHExtensionF64 != 0 {
		t.Error("F64 should not be demotable, it's enabled")
	}
	if d&oish.ESHExtensionI64 == 0 {
		t.Error("I64 should be demotable, it's not enabled")
	}
}

func TestConvertComputeEntryPoint(t *testing.T) {
	mod := &Module{
		Capabilities: []SpvCapability{SpvCapabilityShader},
		EntryPoints: []EntryPoint{{
			Name:           "main",
			ExecutionModel: SpvExecutionModelGLCompute,
			LocalSizeX:     8, LocalSizeY: 8, LocalSizeZ: 1,
		}},
	}
	target, err := oish.Create(oish.FlagsNone, 0)
	if err != nil {
		t.Fatalf("oish.Create: %v", err)
	}
	_, got, _, err := Convert(validSPIRV(10), mod, target)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Name != "main" {
		t.Fatalf("entries = %+v", got.Entries)
	}
	if got.Entries[0].GroupX != 8 || got.Entries[0].GroupZ != 1 {
		t.Errorf("group sizes = %v", got.Entries[0])
	}
	if !bytes.Equal(got.Binaries[oish.ESHBinaryTypeSPIRV], validSPIRV(10)) {
		t.Error("SPIR-V binary wasn't attached")
	}
}

func TestConvertRaytracingPayloadSize(t *testing.T) {
	mod := &Module{
		Capabilities: []SpvCapability{SpvCapabilityShader, SpvCapabilityRayTracingKHR},
		EntryPoints: []EntryPoint{{
			Name:           "closestHit",
			ExecutionModel: SpvExecutionModelClosestHitKHR,
			InterfaceVariables: []InterfaceVariable{{
				StorageClass: SpvStorageClassIncomingRayPayloadKHR,
				BuiltIn:      -1,
				Members: []Member{
					{Numeric: NumericInfo{ComponentCount: 4, ComponentBits: 32, IsFloat: true}},
					{Numeric: NumericInfo{ComponentCount: 1, ComponentBits: 32, IsFloat: true}},
				},
			}},
		}},
	}
	target, err := oish.Create(oish.FlagsNone, 0)
	if err != nil {
		t.Fatalf("oish.Create: %v", err)
	}
	_, got, _, err := Convert(validSPIRV(10), mod, target)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got.Entries[0].PayloadSize != 20 {
		t.Errorf("PayloadSize = %d, want 20", got.Entries[0].PayloadSize)
	}
}

func TestConvertRaytracingPayloadOutOfBounds(t *testing.T) {
	members := make([]Member, 40)
	for i := range members {
		members[i] = Member{Numeric: NumericInfo{ComponentCount: 4, ComponentBits: 32, IsFloat: true}}
	}
	mod := &Module{
		Capabilities: []SpvCapability{SpvCapabilityShader, SpvCapabilityRayTracingKHR},
		EntryPoints: []EntryPoint{{
			Name:           "closestHit",
			ExecutionModel: SpvExecutionModelClosestHitKHR,
			InterfaceVariables: []InterfaceVariable{{
				StorageClass: SpvStorageClassIncomingRayPayloadKHR,
				BuiltIn:      -1,
				Members:      members,
			}},
		}},
	}
	target, err := oish.Create(oish.FlagsNone, 0)
	if err != nil {
		t.Fatalf("oish.Create: %v", err)
	}
	if _, _, _, err := Convert(validSPIRV(10), mod, target); err == nil {
		t.Error("expected OutOfBounds for payload exceeding 128 bytes")
	}
}

func TestConvertShaderBufferSingleElement(t *testing.T) {
	f, err := ConvertShaderBuffer(Block{
		Size:       4,
		PaddedSize: 0,
		Members: []Member{
			{Name: "value", Numeric: NumericInfo{ComponentCount: 1, ComponentBits: 32, IsFloat: true}},
		},
	}, false)
	if err != nil {
		t.Fatalf("ConvertShaderBuffer: %v", err)
	}
	if len(f.VarNames) != 2 || f.VarNames[0] != "$Element" || f.VarNames[1] != "value" {
		t.Fatalf("expected $Element wrapping value, got %v", f.VarNames)
	}
}

func TestConvertShaderBufferWithNestedStruct(t *testing.T) {
	inner := []Member{
		{Name: "x", Offset: 0, Numeric: NumericInfo{ComponentCount: 1, ComponentBits: 32, IsFloat: true}},
		{Name: "y", Offset: 4, Numeric: NumericInfo{ComponentCount: 1, ComponentBits: 32, IsFloat: true}},
	}
	block := Block{
		Size:       32,
		PaddedSize: 32,
		Members: []Member{
			{
				Name:            "point",
				Offset:          0,
				Size:            8,
				PaddedSize:      16,
				Members:         inner,
				TypeDescription: TypeDescription{TypeName: "Point"},
			},
			{Name: "scale", Offset: 16, Numeric: NumericInfo{ComponentCount: 1, ComponentBits: 32, IsFloat: true}},
		},
	}
	f, err := ConvertShaderBuffer(block, false)
	if err != nil {
		t.Fatalf("ConvertShaderBuffer: %v", err)
	}
	if len(f.Structs) != 1 {
		t.Fatalf("expected one struct to be inserted, got %d", len(f.Structs))
	}
	if len(f.Vars) != 4 {
		t.Fatalf("expected 4 vars (point, its nested x/y, and scale), got %d: %v", len(f.Vars), f.VarNames)
	}
}

func TestConvertRegisterStructuredBufferRW(t *testing.T) {
	b := DescriptorBinding{
		Name:           "outputBuf",
		DescriptorType: DescriptorTypeStorageBuffer,
		TypeDescription: TypeDescription{TypeName: "type.RWStructuredBuffer.Foo"},
	}
	reg, err := ConvertRegister(b)
	if err != nil {
		t.Fatalf("ConvertRegister: %v", err)
	}
	if reg.Kind != RegisterKindStructuredBuffer || !reg.IsWrite {
		t.Errorf("reg = %+v, want writable StructuredBuffer", reg)
	}
}

func TestConvertRegisterByteAddressBuffer(t *testing.T) {
	b := DescriptorBinding{
		DescriptorType:  DescriptorTypeStorageBuffer,
		TypeDescription: TypeDescription{TypeName: "type.ByteAddressBuffer"},
	}
	reg, err := ConvertRegister(b)
	if err != nil {
		t.Fatalf("ConvertRegister: %v", err)
	}
	if reg.Kind != RegisterKindByteAddressBuffer {
		t.Errorf("Kind = %v, want ByteAddressBuffer", reg.Kind)
	}
}

func TestConvertRegisterStorageImageUnsupportedFormat(t *testing.T) {
	b := DescriptorBinding{
		DescriptorType: DescriptorTypeStorageImage,
		Image:          ImageInfo{Dim: ImageDim2D, ImageFormat: SpvImageFormatR64ui},
	}
	if _, err := ConvertRegister(b); err == nil {
		t.Error("expected Unsupported for R64ui storage image format")
	}
}

func TestConvertRegisterAccelerationStructure(t *testing.T) {
	b := DescriptorBinding{DescriptorType: DescriptorTypeAccelerationStructure}
	reg, err := ConvertRegister(b)
	if err != nil {
		t.Fatalf("ConvertRegister: %v", err)
	}
	if reg.Kind != RegisterKindAccelerationStructure {
		t.Errorf("Kind = %v, want AccelerationStructure", reg.Kind)
	}
}

func TestStripAligns(t *testing.T) {
	got, err := Strip([]byte{1, 2, 3}, nil)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if len(got)&3 != 0 {
		t.Errorf("Strip didn't align to 4 bytes: len=%d", len(got))
	}
}

func TestStripRemovesDebugRanges(t *testing.T) {
	raw := validSPIRV(10) // 20-byte header + 5 body words
	for i := spirvHeaderSize; i < len(raw); i++ {
		raw[i] = byte(i)
	}

	// Drop body words 1-2 (bytes 24..32) and word 4 (bytes 36..40).
	got, err := Strip(raw, []DebugRange{{Offset: 24, Length: 8}, {Offset: 36, Length: 4}})
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}

	want := append([]byte{}, raw[:24]...)
	want = append(want, raw[32:36]...)
	if !bytes.Equal(got, want) {
		t.Errorf("Strip = % x, want % x", got, want)
	}
}

func TestStripRejectsBadRanges(t *testing.T) {
	raw := validSPIRV(10)
	cases := []struct {
		name   string
		ranges []DebugRange
	}{
		{"misaligned offset", []DebugRange{{Offset: 22, Length: 4}}},
		{"misaligned length", []DebugRange{{Offset: 24, Length: 3}}},
		{"inside header", []DebugRange{{Offset: 8, Length: 4}}},
		{"past the end", []DebugRange{{Offset: 36, Length: 8}}},
		{"overlapping", []DebugRange{{Offset: 24, Length: 8}, {Offset: 28, Length: 4}}},
	}
	for _, c := range cases {
		if _, err := Strip(raw, c.ranges); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestConvertRegistersDedupesAcrossEntryPoints(t *testing.T) {
	binding := DescriptorBinding{
		Name:            "params",
		DescriptorType:  DescriptorTypeUniformBuffer,
		Set:             0,
		Binding:         2,
		TypeDescription: TypeDescription{TypeName: "type.Params"},
	}
	counter := DescriptorBinding{
		DescriptorType:  DescriptorTypeStorageBuffer,
		Set:             0,
		Binding:         3,
		TypeDescription: TypeDescription{TypeName: "ACSBuffer.counter"},
	}
	mod := &Module{
		EntryPoints: []EntryPoint{
			{DescriptorSets: []DescriptorSet{{Bindings: []DescriptorBinding{binding, counter}}}},
			{DescriptorSets: []DescriptorSet{{Bindings: []DescriptorBinding{binding}}}},
		},
	}
	regs, err := ConvertRegisters(mod)
	if err != nil {
		t.Fatalf("ConvertRegisters: %v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("got %d registers, want 1 (deduped, counter skipped): %+v", len(regs), regs)
	}
	if regs[0].Kind != RegisterKindConstantBuffer || regs[0].Binding != 2 {
		t.Errorf("reg = %+v, want ConstantBuffer at binding 2", regs[0])
	}
}
