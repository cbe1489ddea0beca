package oisb

import "github.com/oxsomi/oxc3-go"

// Combine merges a and b, which must describe identical struct/var/array
// tables in the same order; only ESBVarFlag (used-by-SPIRV/used-by-DXIL)
// may differ between the two, and the result ORs those bits together
// (spec.md §4.F.5). Any other mismatch is KindInvalidState.
func Combine(a, b *File) (*File, error) {
	if a.BufferSize != b.BufferSize {
		return nil, oxc3.InvalidState(0, "oisb.Combine: bufferSize mismatch")
	}
	if a.Flags&FlagIsTightlyPacked != b.Flags&FlagIsTightlyPacked {
		return nil, oxc3.InvalidState(0, "oisb.Combine: packing mode mismatch")
	}
	if len(a.Structs) != len(b.Structs) || len(a.Vars) != len(b.Vars) || len(a.Arrays) != len(b.Arrays) {
		return nil, oxc3.InvalidState(1, "oisb.Combine: table lengths mismatch")
	}

	for i := range a.Structs {
		if a.Structs[i] != b.Structs[i] || a.StructNames[i] != b.StructNames[i] {
			return nil, oxc3.InvalidState(2, "oisb.Combine: struct table entries mismatch")
		}
	}
	for i := range a.Arrays {
		da, db := a.Arrays[i], b.Arrays[i]
		if len(da) != len(db) {
			return nil, oxc3.InvalidState(2, "oisb.Combine: array table entries mismatch")
		}
		for j := range da {
			if da[j] != db[j] {
				return nil, oxc3.InvalidState(2, "oisb.Combine: array table entries mismatch")
			}
		}
	}

	combined := &File{
		Flags:       a.Flags,
		BufferSize:  a.BufferSize,
		StructNames: a.StructNames,
		Structs:     a.Structs,
		Arrays:      a.Arrays,
		VarNames:    a.VarNames,
	}

	for i := range a.Vars {
		va, vb := a.Vars[i], b.Vars[i]
		if va.StructID != vb.StructID || va.ArrayID != vb.ArrayID || va.Offset != vb.Offset ||
			va.Type != vb.Type || va.ParentID != vb.ParentID || a.VarNames[i] != b.VarNames[i] {
			return nil, oxc3.InvalidState(3, "oisb.Combine: var table entries mismatch beyond flags")
		}
		merged := va
		merged.Flags = va.Flags | vb.Flags
		combined.Vars = append(combined.Vars, merged)
	}

	return combined, nil
}
