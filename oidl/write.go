package oidl

import (
	"crypto/rand"

	"golang.org/x/xerrors"

	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oixx"
)

// dlHeader is the on-disk oiDL header (spec.md §4.E), laid out field by field
// with no implicit padding, mirroring internal/squashfs's fixed-size header
// structs.
type dlHeader struct {
	Version   uint8
	Flags     uint16
	Type      uint8
	SizeTypes uint8
}

const (
	flagIsASCII         uint16 = 1 << 5
	flagIsUTF8          uint16 = 1 << 6
	flagHasExtendedData uint16 = 1 << 7
)

// packSizeTypes packs four 2-bit SizeWidth selectors into one byte:
// entryCountWidth (bits 0-1), the per-entry length table width (bits 2-3),
// the uncompressed-size width (bits 4-5, meaningful only when compression is
// on) and storedSizeWidth (bits 6-7): the width of the trailing length field
// that makes the final payload/ciphertext region self-delimiting regardless
// of whether this file is embedded inside another container.
func packSizeTypes(entryCountWidth, dataWidth, uncompressedWidth, storedSizeWidth oixx.SizeWidth) uint8 {
	return uint8(entryCountWidth) | uint8(dataWidth)<<2 | uint8(uncompressedWidth)<<4 | uint8(storedSizeWidth)<<6
}

// Write serializes f. When hideMagic is true the leading 'oiDL' magic is
// omitted, the layout used when an oiDL file is embedded inside another
// format's container (spec.md §6.4).
func Write(f *File, hideMagic bool) ([]byte, error) {
	entryCount := uint64(len(f.Entries))

	var maxEntryLen, dataSize uint64
	for _, e := range f.Entries {
		l := uint64(len(e))
		if l > maxEntryLen {
			maxEntryLen = l
		}
		dataSize += l
	}

	payload := make([]byte, 0, dataSize)
	for _, e := range f.Entries {
		payload = append(payload, e...)
	}

	toStore := payload
	if f.Settings.CompressionType != oixx.CompressionNone {
		compressed, err := oixx.Compress(f.Settings.CompressionType, payload)
		if err != nil {
			return nil, err
		}
		toStore = compressed
	}

	entryCountWidth := oixx.RequiredSizeWidth(entryCount)
	dataWidth := oixx.RequiredSizeWidth(maxEntryLen)
	uncompressedWidth := oixx.RequiredSizeWidth(dataSize)
	storedSizeWidth := oixx.RequiredSizeWidth(uint64(len(toStore)))

	var flags uint16
	if f.Settings.UseSHA256 {
		flags |= uint16(oixx.FlagUseSHA256)
	}
	switch f.Settings.DataType {
	case DataTypeASCII:
		flags |= flagIsASCII
	case DataTypeUTF8:
		flags |= flagIsUTF8
	}

	hdr := dlHeader{
		Version:   version,
		Flags:     flags,
		Type:      oixx.PackType(f.Settings.CompressionType, f.Settings.EncryptionType),
		SizeTypes: packSizeTypes(entryCountWidth, dataWidth, uncompressedWidth, storedSizeWidth),
	}

	w := oixx.NewWriter()
	if !hideMagic {
		var magicBuf [4]byte
		oixx.WriteSized(magicBuf[:], oixx.SizeU32, uint64(Magic))
		w.Append(magicBuf[:])
	}

	var hdrBuf [5]byte
	hdrBuf[0] = hdr.Version
	oixx.WriteSized(hdrBuf[1:3], oixx.SizeU16, uint64(hdr.Flags))
	hdrBuf[3] = hdr.Type
	hdrBuf[4] = hdr.SizeTypes
	w.Append(hdrBuf[:])

	oixx.AppendSized(w, entryCountWidth, entryCount)
	for _, e := range f.Entries {
		oixx.AppendSized(w, dataWidth, uint64(len(e)))
	}
	if f.Settings.CompressionType != oixx.CompressionNone {
		oixx.AppendSized(w, uncompressedWidth, dataSize)
	}
	oixx.AppendSized(w, storedSizeWidth, uint64(len(toStore)))

	if f.Settings.EncryptionType == oixx.EncryptionNone {
		w.Append(toStore)
		return w.Bytes(), nil
	}

	var iv [oixx.AESIVSize]byte
	if _, err := rand.Read(iv[:]); err != nil {
		return nil, xerrors.Errorf("oidl.Write: %w", oxc3.InvalidState(0, err.Error()))
	}

	aad := w.Bytes()
	tag, ciphertext, err := oixx.EncryptAESGCM(toStore, f.Settings.EncryptionKey, aad, iv)
	if err != nil {
		return nil, err
	}

	w.Append(iv[:])
	w.Append(tag[:])
	w.Append(ciphertext)
	return w.Bytes(), nil
}
