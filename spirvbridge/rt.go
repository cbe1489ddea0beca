package spirvbridge

import "github.com/oxsomi/oxc3-go"

// MaxRayPayloadSize and MaxHitAttributeSize are the bounds spec.md §4.I.3
// checks an RT entry point's IncomingRayPayloadKHR/HitAttributeKHR
// interface variable against.
const (
	MaxRayPayloadSize   = 128
	MaxHitAttributeSize = 32
)

// calculateStructSize recursively sums a struct-typed interface variable's
// byte size: arrays multiply by their declared stride and dimensions,
// matrices use stride × (rowMajor ? rows : cols), the Go form of
// SpvCalculateStructLength (spec.md §4.I.3). Overflow is checked the same
// way oidl/oisb's table-length summations are.
func calculateStructSize(members []Member) (uint64, error) {
	var total uint64
	for _, m := range members {
		size, err := calculateMemberSize(m)
		if err != nil {
			return 0, err
		}
		newTotal := total + size
		if newTotal < total {
			return 0, oxc3.Overflow(0, newTotal, MaxRayPayloadSize, "spirvbridge: struct size overflowed")
		}
		total = newTotal
	}
	return total, nil
}

func calculateMemberSize(m Member) (uint64, error) {
	var base uint64

	switch {
	case len(m.Members) > 0:
		inner, err := calculateStructSize(m.Members)
		if err != nil {
			return 0, err
		}
		base = inner

	case m.Numeric.MatrixColumns > 1:
		rows := uint64(m.Numeric.MatrixRows)
		if rows == 0 {
			rows = 1
		}
		cols := uint64(m.Numeric.MatrixColumns)
		count := cols
		if m.IsRowMajor {
			count = rows
		}
		stride := uint64(m.MatrixStride)
		if stride == 0 {
			stride = uint64(m.Numeric.ComponentBits/8) * rows
		}
		base = stride * count

	default:
		componentCount := uint64(m.Numeric.ComponentCount)
		if componentCount == 0 {
			componentCount = 1
		}
		base = componentCount * uint64(m.Numeric.ComponentBits) / 8
	}

	for _, dim := range m.ArrayDims {
		stride := uint64(m.ArrayStride)
		if stride == 0 {
			stride = base
		}
		newBase := stride * uint64(dim)
		if dim != 0 && newBase/uint64(dim) != stride {
			return 0, oxc3.Overflow(0, newBase, MaxRayPayloadSize, "spirvbridge: array size overflowed")
		}
		base = newBase
	}

	return base, nil
}

// checkPayloadOrAttribute validates one RT interface variable's recursively
// computed size against the appropriate bound and returns it
// (spec.md §4.I.3).
func checkPayloadOrAttribute(v InterfaceVariable, bound uint64) (uint64, error) {
	size, err := calculateStructSize(v.Members)
	if err != nil {
		return 0, err
	}
	if size == 0 || size > bound {
		return 0, oxc3.OutOfBounds(0, size, bound, "spirvbridge: RT interface variable size out of bounds")
	}
	return size, nil
}
