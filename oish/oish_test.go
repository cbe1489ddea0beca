package oish

import (
	"bytes"
	"errors"
	"testing"

	"github.com/oxsomi/oxc3-go"
)

func computeEntry(name string) SHEntry {
	return SHEntry{Name: name, Stage: ESHPipelineStageCompute, GroupX: 8, GroupY: 8, GroupZ: 1}
}

func spirvBlob(words int) []byte {
	buf := make([]byte, words*4)
	buf[0], buf[1], buf[2], buf[3] = 0x03, 0x02, 0x23, 0x07
	return buf
}

func errKind(t *testing.T, err error, want oxc3.Kind) {
	t.Helper()
	var e *oxc3.Error
	if !errors.As(err, &e) {
		t.Fatalf("error %v doesn't unwrap to *oxc3.Error", err)
	}
	if e.Kind != want {
		t.Errorf("error kind = %v, want %v", e.Kind, want)
	}
}

// TestComputeWriteLayout is spec.md §8 scenario S1: the serialized header
// bytes of a single-entry compute file.
func TestComputeWriteLayout(t *testing.T) {
	f, err := Create(FlagsNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.AddEntrypoint(computeEntry("main")); err != nil {
		t.Fatalf("AddEntrypoint: %v", err)
	}
	if err := f.AddBinary(ESHBinaryTypeSPIRV, spirvBlob(4)); err != nil {
		t.Fatalf("AddBinary: %v", err)
	}

	buf, err := Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !bytes.HasPrefix(buf, []byte{0x6F, 0x69, 0x53, 0x48}) {
		t.Fatalf("magic = % x, want 'oiSH' LE", buf[:4])
	}
	if buf[4] != version {
		t.Errorf("version byte = %d, want %d", buf[4], version)
	}
	if buf[5] != shFlagHasSPIRV {
		t.Errorf("flags byte = 0x%02X, want HasSPIRV only", buf[5])
	}
	// A 16-byte binary needs a U8 length field, encoded as width selector 0
	// in bits 0-1 of sizeTypes.
	if buf[6]&3 != 0 {
		t.Errorf("sizeTypes SPIRV width = %d, want U8 (0)", buf[6]&3)
	}
	if buf[7] != uint8(ESHPipelineTypeCompute) {
		t.Errorf("pipelineType byte = %d, want Compute (1)", buf[7])
	}

	got, err := Read(buf, false)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0] != f.Entries[0] {
		t.Errorf("entries mismatch after round trip: %+v vs %+v", got.Entries, f.Entries)
	}
	if !bytes.Equal(got.Binaries[ESHBinaryTypeSPIRV], f.Binaries[ESHBinaryTypeSPIRV]) {
		t.Error("SPIRV binary mismatch after round trip")
	}
	if got.ReadLength != uint64(len(buf)) {
		t.Errorf("ReadLength = %d, want %d", got.ReadLength, len(buf))
	}
}

// TestPipelineCoherence is spec.md §8 scenario S5 plus property 5.
func TestPipelineCoherence(t *testing.T) {
	f, err := Create(FlagsNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.AddEntrypoint(SHEntry{Name: "mainVS", Stage: ESHPipelineStageVertex}); err != nil {
		t.Fatalf("AddEntrypoint(vertex): %v", err)
	}

	err = f.AddEntrypoint(SHEntry{Name: "mainPS", Stage: ESHPipelineStagePixel})
	if err == nil {
		t.Fatal("expected second graphics entry to be rejected")
	}
	errKind(t, err, oxc3.KindInvalidOperation)

	// A stage from a different pipeline type is rejected too.
	err = f.AddEntrypoint(computeEntry("cs"))
	if err == nil {
		t.Fatal("expected compute entry in a graphics file to be rejected")
	}
	errKind(t, err, oxc3.KindInvalidOperation)
}

func TestRaytracingAcceptsMultipleEntries(t *testing.T) {
	f, err := Create(FlagsNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	entries := []SHEntry{
		{Name: "raygen", Stage: ESHPipelineStageRaygenExt},
		{Name: "miss", Stage: ESHPipelineStageMissExt},
		{Name: "closest", Stage: ESHPipelineStageClosestHitExt, PayloadSize: 32},
		{Name: "hit", Stage: ESHPipelineStageIntersectionExt, PayloadSize: 16, IntersectionSize: 8},
	}
	for _, e := range entries {
		if err := f.AddEntrypoint(e); err != nil {
			t.Fatalf("AddEntrypoint(%s): %v", e.Name, err)
		}
	}
	if err := f.AddBinary(ESHBinaryTypeSPIRV, spirvBlob(8)); err != nil {
		t.Fatalf("AddBinary: %v", err)
	}

	buf, err := Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(buf, false)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Entries) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(entries))
	}
	for i, e := range entries {
		if got.Entries[i] != e {
			t.Errorf("entry %d = %+v, want %+v", i, got.Entries[i], e)
		}
	}
}

func TestGraphicsIORoundTrip(t *testing.T) {
	f, err := Create(FlagsNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	entry := SHEntry{Name: "mainVS", Stage: ESHPipelineStageVertex}
	entry.Inputs[0] = ESHTypeF32x3
	entry.Inputs[1] = ESHTypeF32x2
	entry.Outputs[0] = ESHTypeF32x4
	if err := f.AddEntrypoint(entry); err != nil {
		t.Fatalf("AddEntrypoint: %v", err)
	}
	if err := f.AddBinary(ESHBinaryTypeDXIL, []byte("dxil payload")); err != nil {
		t.Fatalf("AddBinary: %v", err)
	}

	buf, err := Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(buf, false)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Entries[0] != entry {
		t.Errorf("entry = %+v, want %+v", got.Entries[0], entry)
	}
	if !bytes.Equal(got.Binaries[ESHBinaryTypeDXIL], []byte("dxil payload")) {
		t.Error("DXIL binary mismatch after round trip")
	}
}

func TestGroupSizeBounds(t *testing.T) {
	cases := []struct {
		name    string
		x, y, z uint16
	}{
		{"x too large", 513, 1, 1},
		{"z too large", 1, 1, 65},
		{"product too large", 64, 16, 1},
		{"missing for compute", 0, 0, 0},
	}
	for _, c := range cases {
		f, err := Create(FlagsNone, 0)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		e := SHEntry{Name: "cs", Stage: ESHPipelineStageCompute, GroupX: c.x, GroupY: c.y, GroupZ: c.z}
		if err := f.AddEntrypoint(e); err == nil {
			t.Errorf("%s: expected error for group (%d,%d,%d)", c.name, c.x, c.y, c.z)
		}
	}

	// Groups are forbidden outside compute.
	f, err := Create(FlagsNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.AddEntrypoint(SHEntry{Name: "vs", Stage: ESHPipelineStageVertex, GroupX: 8}); err == nil {
		t.Error("expected error for group size on a vertex entry")
	}
}

func TestPayloadAndIntersectionBounds(t *testing.T) {
	mk := func() *File {
		f, err := Create(FlagsNone, 0)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return f
	}

	if err := mk().AddEntrypoint(SHEntry{Name: "ch", Stage: ESHPipelineStageClosestHitExt}); err == nil {
		t.Error("expected error for missing payloadSize on closest hit")
	}
	if err := mk().AddEntrypoint(SHEntry{Name: "ch", Stage: ESHPipelineStageClosestHitExt, PayloadSize: 129}); err == nil {
		t.Error("expected error for payloadSize > 128")
	}
	if err := mk().AddEntrypoint(SHEntry{Name: "is", Stage: ESHPipelineStageIntersectionExt, PayloadSize: 8}); err == nil {
		t.Error("expected error for missing intersectionSize on intersection")
	}
	if err := mk().AddEntrypoint(SHEntry{Name: "is", Stage: ESHPipelineStageIntersectionExt, PayloadSize: 8, IntersectionSize: 33}); err == nil {
		t.Error("expected error for intersectionSize > 32")
	}
	if err := mk().AddEntrypoint(SHEntry{Name: "rg", Stage: ESHPipelineStageRaygenExt, PayloadSize: 8}); err == nil {
		t.Error("expected error for payloadSize on raygen")
	}
}

func TestAddBinaryInvariants(t *testing.T) {
	f, err := Create(FlagsNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = f.AddBinary(ESHBinaryTypeSPIRV, []byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for SPIRV binary not a multiple of 4 bytes")
	}
	errKind(t, err, oxc3.KindInvalidParameter)

	if err := f.AddBinary(ESHBinaryTypeSPIRV, spirvBlob(4)); err != nil {
		t.Fatalf("AddBinary: %v", err)
	}
	err = f.AddBinary(ESHBinaryTypeSPIRV, spirvBlob(4))
	if err == nil {
		t.Fatal("expected error for double AddBinary of the same type")
	}
	errKind(t, err, oxc3.KindInvalidOperation)
}

func TestWriteRequiresEntriesAndBinary(t *testing.T) {
	f, err := Create(FlagsNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Write(f); err == nil {
		t.Error("expected error writing a file with no entries")
	}

	if err := f.AddEntrypoint(computeEntry("main")); err != nil {
		t.Fatalf("AddEntrypoint: %v", err)
	}
	if _, err := Write(f); err == nil {
		t.Error("expected error writing a file with no binaries")
	}
}

func TestNonASCIIEntryNameSetsUTF8Flag(t *testing.T) {
	f, err := Create(FlagsNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	e := computeEntry("café")
	if err := f.AddEntrypoint(e); err != nil {
		t.Fatalf("AddEntrypoint: %v", err)
	}
	if f.Flags&FlagIsUTF8 == 0 {
		t.Fatal("expected IsUTF8 flag for non-ASCII entry name")
	}
	if err := f.AddBinary(ESHBinaryTypeSPIRV, spirvBlob(4)); err != nil {
		t.Fatalf("AddBinary: %v", err)
	}

	buf, err := Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(buf, false)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Flags&FlagIsUTF8 == 0 {
		t.Error("IsUTF8 flag lost in round trip")
	}
	if got.Entries[0].Name != e.Name {
		t.Errorf("name = %q, want %q", got.Entries[0].Name, e.Name)
	}
}
