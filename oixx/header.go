package oixx

import "github.com/oxsomi/oxc3-go"

// EncryptionType selects the oiXX payload cipher (spec.md §3).
type EncryptionType uint8

const (
	EncryptionNone EncryptionType = iota
	EncryptionAES256GCM
	encryptionCount
)

// AESChunkMode is the reserved two-bit chunk-size selector for multi-
// threaded AES (spec.md §4.B). Chunking itself is not implemented; any
// non-zero mode is rejected as Unsupported, matching the current reference
// behavior (spec.md §9 Open Questions).
type AESChunkMode uint8

const (
	AESChunkNone AESChunkMode = iota
	AESChunk10MiB
	AESChunk100MiB
	AESChunk500MiB
)

// CommonFlags decodes the shared low bits of every oiXX format's U16 flags
// field (spec.md §4.D): bit 0 selects SHA-256 over CRC32C, bits 1-2 select
// the AES chunk mode, bits 3-4 select the compressed-size SizeWidth. Each
// format embeds CommonFlags in its own flag type and adds format-specific
// bits above bit 4.
type CommonFlags uint16

const (
	FlagUseSHA256     CommonFlags = 1 << 0
	flagAESChunkShift              = 1
	flagAESChunkMask  CommonFlags = 3 << flagAESChunkShift
	flagSizeShift                 = 3
	flagSizeMask      CommonFlags = 3 << flagSizeShift
)

func (f CommonFlags) UseSHA256() bool {
	return f&FlagUseSHA256 != 0
}

func (f CommonFlags) AESChunkMode() AESChunkMode {
	return AESChunkMode((f & flagAESChunkMask) >> flagAESChunkShift)
}

func (f CommonFlags) CompressedSizeWidth() SizeWidth {
	return SizeWidth((f & flagSizeMask) >> flagSizeShift)
}

func MakeCommonFlags(useSHA256 bool, sizeWidth SizeWidth) CommonFlags {
	var f CommonFlags
	if useSHA256 {
		f |= FlagUseSHA256
	}
	f |= CommonFlags(sizeWidth) << flagSizeShift
	return f
}

// PackType packs a (CompressionType, EncryptionType) pair into the shared
// "type" byte: (compression << 4) | encryption (spec.md §3, §4.D).
func PackType(compression CompressionType, encryption EncryptionType) uint8 {
	return uint8(compression)<<4 | uint8(encryption)
}

func UnpackType(t uint8) (CompressionType, EncryptionType) {
	return CompressionType(t >> 4), EncryptionType(t & 0xF)
}

// ValidateCommon implements the shared portion of the §4.D read-order:
// version check, encryption-type range check and
// encryption-key-presence-matches-encryption-type check. The magic number
// and the flags (RejectAESChunks plus any format-specific bits) are checked
// by each format's Read around this call.
func ValidateCommon(version, expectedVersion uint8, encryption EncryptionType, hasKey bool) error {
	if version != expectedVersion {
		return oxc3.InvalidParameter(0, 1, "oixx.ValidateCommon: version mismatch")
	}
	if encryption >= encryptionCount {
		return oxc3.InvalidEnum(0, uint64(encryption), uint64(encryptionCount-1), "oixx.ValidateCommon: invalid encryption type")
	}
	if hasKey && encryption == EncryptionNone {
		return oxc3.InvalidOperation(3, "oixx.ValidateCommon: encryption key provided but no encryption is used")
	}
	if !hasKey && encryption != EncryptionNone {
		return oxc3.Unauthorized(0, "oixx.ValidateCommon: encryption key is required")
	}
	return nil
}

// RejectAESChunks fails with KindUnsupported if mode requests chunked AES,
// the resolution of the §9 Open Question on chunked AES.
func RejectAESChunks(mode AESChunkMode) error {
	if mode != AESChunkNone {
		return oxc3.Unsupported(0, "oixx: AES chunk mode is not supported")
	}
	return nil
}

// EncodeVersion packs a major.minor version the way every oiXX header does:
// major*10 + minor (spec.md §6.2), e.g. 1.2 -> 12.
func EncodeVersion(major, minor uint8) uint8 {
	return major*10 + minor
}

func DecodeVersion(v uint8) (major, minor uint8) {
	return v / 10, v % 10
}
