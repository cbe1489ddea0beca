package oisb

import (
	"bytes"
	"testing"
)

// TestESBTypePacking is spec.md §8 property 3.
func TestESBTypePacking(t *testing.T) {
	cases := []struct {
		stride ESBStride
		prim   ESBPrimitive
		vec    ESBVector
		mat    ESBMatrix
	}{
		{ESBStrideX32, ESBPrimitiveFloat, ESBVectorN4, ESBMatrixN1},
		{ESBStrideX16, ESBPrimitiveInt, ESBVectorN1, ESBMatrixN4},
		{ESBStrideX64, ESBPrimitiveUInt, ESBVectorN3, ESBMatrixN2},
	}
	for _, c := range cases {
		typ := NewESBType(c.stride, c.prim, c.vec, c.mat)
		if typ.Stride() != c.stride || typ.Primitive() != c.prim || typ.Vector() != c.vec || typ.Matrix() != c.mat {
			t.Errorf("NewESBType(%v,%v,%v,%v) round trip failed: got stride=%v prim=%v vec=%v mat=%v",
				c.stride, c.prim, c.vec, c.mat, typ.Stride(), typ.Primitive(), typ.Vector(), typ.Matrix())
		}
	}
}

// TestScalarLayout is spec.md §8 scenario S2.
func TestScalarLayout(t *testing.T) {
	f, err := Create(FlagsNone, 16)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.AddStruct("Root", SBStruct{Stride: 16, Length: 16}); err != nil {
		t.Fatalf("AddStruct: %v", err)
	}

	f32x4 := NewESBType(ESBStrideX32, ESBPrimitiveFloat, ESBVectorN4, ESBMatrixN1)
	if err := f.AddVariableAsType("position", 0, RootID, f32x4, VarFlagNone, nil); err != nil {
		t.Fatalf("AddVariableAsType: %v", err)
	}

	if len(f.Structs) != 1 || len(f.Vars) != 1 {
		t.Fatalf("got %d structs, %d vars; want 1, 1", len(f.Structs), len(f.Vars))
	}
	if f.Vars[0].Type != 0x27 {
		t.Errorf("vars[0].Type = 0x%X, want 0x27", uint8(f.Vars[0].Type))
	}
	if f.Vars[0].Offset != 0 {
		t.Errorf("vars[0].Offset = %d, want 0", f.Vars[0].Offset)
	}

	buf, err := Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(buf, false)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Structs) != 1 || len(got.Vars) != 1 {
		t.Fatalf("after round trip: got %d structs, %d vars; want 1, 1", len(got.Structs), len(got.Vars))
	}
	if got.Vars[0].Type != 0x27 || got.Vars[0].Offset != 0 {
		t.Errorf("round trip mismatch: type=0x%X offset=%d", uint8(got.Vars[0].Type), got.Vars[0].Offset)
	}
}

// TestAlignmentViolation is spec.md §8 scenario S3.
func TestAlignmentViolation(t *testing.T) {
	f, err := Create(FlagsNone, 16)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f32x3 := NewESBType(ESBStrideX32, ESBPrimitiveFloat, ESBVectorN3, ESBMatrixN1)
	if err := f.AddVariableAsType("v", 8, RootID, f32x3, VarFlagNone, nil); err == nil {
		t.Error("expected InvalidParameter for a variable straddling the 16-byte boundary")
	}
}

func TestSiblingNameUniqueness(t *testing.T) {
	f, err := Create(FlagsNone, 32)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f32 := NewESBType(ESBStrideX32, ESBPrimitiveFloat, ESBVectorN1, ESBMatrixN1)
	if err := f.AddVariableAsType("x", 0, RootID, f32, VarFlagNone, nil); err != nil {
		t.Fatalf("AddVariableAsType: %v", err)
	}
	if err := f.AddVariableAsType("x", 4, RootID, f32, VarFlagNone, nil); err == nil {
		t.Error("expected InvalidState for duplicate sibling name")
	}
	// Same name nested under a different (struct) parent is fine.
	if _, err := f.AddStruct("Inner", SBStruct{Stride: 16, Length: 16}); err != nil {
		t.Fatalf("AddStruct: %v", err)
	}
	if err := f.AddVariableAsStruct("group", 16, RootID, 0, VarFlagNone, nil); err != nil {
		t.Fatalf("AddVariableAsStruct: %v", err)
	}
	groupIdx := uint16(len(f.Vars) - 1)
	if err := f.AddVariableAsType("x", 16, groupIdx, f32, VarFlagNone, nil); err != nil {
		t.Errorf("AddVariableAsType under different parent should succeed: %v", err)
	}
}

func TestTightlyPackedRoundTrip(t *testing.T) {
	f, err := Create(FlagIsTightlyPacked, 12)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f32x3 := NewESBType(ESBStrideX32, ESBPrimitiveFloat, ESBVectorN3, ESBMatrixN1)
	if err := f.AddVariableAsType("v", 0, RootID, f32x3, VarFlagNone, nil); err != nil {
		t.Fatalf("AddVariableAsType: %v", err)
	}

	buf, err := Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(buf, false)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Flags&FlagIsTightlyPacked == 0 {
		t.Error("tightly-packed flag lost in round trip")
	}
}

func TestCombineMergesFlags(t *testing.T) {
	mk := func(flags VarFlag) *File {
		f, _ := Create(FlagsNone, 16)
		f32 := NewESBType(ESBStrideX32, ESBPrimitiveFloat, ESBVectorN1, ESBMatrixN1)
		_ = f.AddVariableAsType("x", 0, RootID, f32, flags, nil)
		return f
	}
	a := mk(VarFlagUsedBySPIRV)
	b := mk(VarFlagUsedByDXIL)

	combined, err := Combine(a, b)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if combined.Vars[0].Flags != VarFlagUsedBySPIRV|VarFlagUsedByDXIL {
		t.Errorf("combined flags = %v, want both bits set", combined.Vars[0].Flags)
	}
}

func TestPrintDoesNotPanic(t *testing.T) {
	f, _ := Create(FlagsNone, 16)
	f32x4 := NewESBType(ESBStrideX32, ESBPrimitiveFloat, ESBVectorN4, ESBMatrixN1)
	_ = f.AddVariableAsType("position", 0, RootID, f32x4, VarFlagNone, nil)

	var buf bytes.Buffer
	Print(&buf, f, 0, RootID, true)
	if buf.Len() == 0 {
		t.Error("expected non-empty output")
	}
}
