// Package oidl implements the oiDL binary format: an indexed, insertion-
// ordered list of opaque blobs or validated ASCII/UTF-8 text entries,
// layered on the oiXX container substrate (spec.md §4.E).
package oidl

import (
	"unicode/utf8"

	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oixx"
)

// Magic is the little-endian 'oiDL' magic number (spec.md §6.1).
const Magic uint32 = 0x4C44696F

// version is the current oiDL major.minor, encoded major*10+minor
// (spec.md §6.2: "oiDL=1.0").
const version uint8 = 10

// DataType selects what kind of entries a File accepts (spec.md §3).
type DataType uint8

const (
	DataTypeData DataType = iota
	DataTypeASCII
	DataTypeUTF8
)

// maxDataSize is the 48-bit total-size budget every oiDL file's entries must
// fit within (spec.md §3 "oiDL file" invariant).
const maxDataSize = (uint64(1) << 48) - 1

// Settings configures a File at creation time.
type Settings struct {
	CompressionType oixx.CompressionType
	EncryptionType  oixx.EncryptionType
	DataType        DataType
	UseSHA256       bool // selects SHA-256 over CRC32C for the integrity flag

	// EncryptionKey must be exactly 32 bytes when EncryptionType != None.
	EncryptionKey []byte
}

// File is an oiDL file under construction or freshly read. Entries is
// insertion-ordered and index-addressable, matching spec.md's "ordered
// sequence of entries".
type File struct {
	Settings Settings
	Entries  [][]byte

	// ReadLength records how many bytes of the source buffer Read consumed,
	// the oiDL "readLength" out-parameter (spec.md §3, §6.6).
	ReadLength uint64
}

// Create returns an empty File ready for AddEntry*/Write.
func Create(settings Settings) (*File, error) {
	if settings.EncryptionType != oixx.EncryptionNone && len(settings.EncryptionKey) != oixx.AESKeySize {
		return nil, oxc3.InvalidParameter(0, 0, "oidl.Create: encryptionKey must be 32 bytes when encryption is enabled")
	}
	if settings.EncryptionType == oixx.EncryptionNone && len(settings.EncryptionKey) != 0 {
		return nil, oxc3.InvalidOperation(0, "oidl.Create: encryptionKey provided but no encryption is used")
	}
	return &File{Settings: settings}, nil
}

// AddEntry appends buf as an opaque Data entry. Requires DataType == Data.
func (f *File) AddEntry(buf []byte) error {
	if f.Settings.DataType != DataTypeData {
		return oxc3.InvalidOperation(0, "oidl.AddEntry: file dataType isn't Data")
	}
	return f.addEntry(buf)
}

// AddEntryASCII validates that text contains only 7-bit ASCII bytes and
// appends it. Requires DataType ∈ {ASCII, UTF8}.
func (f *File) AddEntryASCII(text string) error {
	if f.Settings.DataType != DataTypeASCII && f.Settings.DataType != DataTypeUTF8 {
		return oxc3.InvalidOperation(0, "oidl.AddEntryASCII: file dataType isn't ASCII or UTF8")
	}
	for i := 0; i < len(text); i++ {
		if text[i] > 0x7F {
			return oxc3.InvalidParameter(0, i, "oidl.AddEntryASCII: byte isn't valid ASCII")
		}
	}
	return f.addEntry([]byte(text))
}

// AddEntryUTF8 validates that data is well-formed UTF-8 and appends it.
// Requires DataType == UTF8.
func (f *File) AddEntryUTF8(data []byte) error {
	if f.Settings.DataType != DataTypeUTF8 {
		return oxc3.InvalidOperation(0, "oidl.AddEntryUTF8: file dataType isn't UTF8")
	}
	if !utf8.Valid(data) {
		return oxc3.InvalidParameter(0, 0, "oidl.AddEntryUTF8: data isn't valid UTF-8")
	}
	return f.addEntry(data)
}

func (f *File) addEntry(buf []byte) error {
	total := uint64(0)
	for _, e := range f.Entries {
		total += uint64(len(e))
	}
	newTotal := total + uint64(len(buf))
	if newTotal < total {
		return oxc3.Overflow(0, newTotal, maxDataSize, "oidl.addEntry: total entry size overflowed")
	}
	if newTotal > maxDataSize {
		return oxc3.OutOfBounds(0, newTotal, maxDataSize, "oidl.addEntry: total entry size exceeds 48-bit budget")
	}

	// Copy so the file owns its storage independent of caller mutation,
	// matching the "copy on insertion when the file expects to own it"
	// sharing policy (spec.md §5).
	owned := make([]byte, len(buf))
	copy(owned, buf)
	f.Entries = append(f.Entries, owned)
	return nil
}
