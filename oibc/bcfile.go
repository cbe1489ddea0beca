// Package oibc implements the oiBC generic compressed/encrypted blob
// container: four insertion-ordered payload channels (fidiA, fidiB U8;
// gida U16; leon U32) layered on the oiXX container substrate (spec.md
// §4.H), grounded on original_source/inc/formats/oiBC.h's BCSettings/
// BCFile/BCHeader/EBCFlags.
package oibc

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oixx"
)

// Magic is the little-endian 'oiBC' magic number (spec.md §6.1,
// BCHeader_MAGIC 0x4342696F).
const Magic uint32 = 0x4342696F

// version is the current oiBC major.minor, encoded major*10+minor.
// Reference oiBC.h doesn't carry an explicit version constant in the
// excerpted header; this module fixes 1.0, the same baseline oiDL uses
// (spec.md §6.2 lists versions only for oiSB/oiSH/oiDL).
const version uint8 = 10

// Settings configures a File at creation time (BCSettings).
type Settings struct {
	CompressionType oixx.CompressionType
	EncryptionType  oixx.EncryptionType
	UseSHA256       bool

	// EncryptionKey must be exactly 32 bytes when EncryptionType != None.
	EncryptionKey []byte
}

// File is an oiBC file under construction or freshly read. Each channel is
// an independent ordered byte/word sequence; at least one must be non-empty
// to serialize (spec.md §4.H).
type File struct {
	Settings Settings

	FidiA, FidiB []byte
	Gida         []uint16
	Leon         []uint32

	// ReadLength records how many bytes of the source buffer Read consumed
	// (spec.md §3, §6.6).
	ReadLength uint64
}

// Create returns an empty File ready to have its channels populated
// directly and then be passed to Write. Mirrors BCFile_create, which
// (unlike oiDL/oiSH) takes all four channel buffers up front rather than
// through incremental Add* calls, since oiBC has no per-entry validation.
func Create(settings Settings, fidiA, fidiB []byte, gida []uint16, leon []uint32) (*File, error) {
	if settings.EncryptionType != oixx.EncryptionNone && len(settings.EncryptionKey) != oixx.AESKeySize {
		return nil, oxc3.InvalidParameter(0, 0, "oibc.Create: encryptionKey must be 32 bytes when encryption is enabled")
	}
	if settings.EncryptionType == oixx.EncryptionNone && len(settings.EncryptionKey) != 0 {
		return nil, oxc3.InvalidOperation(0, "oibc.Create: encryptionKey provided but no encryption is used")
	}
	if len(fidiA) == 0 && len(fidiB) == 0 && len(gida) == 0 && len(leon) == 0 {
		return nil, oxc3.NullPointer(1, "oibc.Create: at least one of fidiA, fidiB, gida, leon is required")
	}

	f := &File{Settings: settings}
	f.FidiA = append(f.FidiA, fidiA...)
	f.FidiB = append(f.FidiB, fidiB...)
	f.Gida = append(f.Gida, gida...)
	f.Leon = append(f.Leon, leon...)
	return f, nil
}
