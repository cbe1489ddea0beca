package oibc

import (
	"crypto/rand"

	"golang.org/x/xerrors"

	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oixx"
)

const (
	bcFlagFidiA uint16 = 1 << 5
	bcFlagFidiB uint16 = 1 << 6
	bcFlagGida  uint16 = 1 << 7
	bcFlagLeon  uint16 = 1 << 8
)

// packBCSizeTypes packs four 2-bit SizeWidth selectors into one byte: the
// uncompressed-size width (bits 0-1, meaningful only when compression is
// on), the fidiA/fidiB length width (bits 2-3), the gida/leon length width
// (bits 4-5) and storedSizeWidth (bits 6-7), the same self-delimiting
// trailing length field oidl.Write adds for sub-file safety.
func packBCSizeTypes(uncompressedWidth, byteLenWidth, wordLenWidth, storedSizeWidth oixx.SizeWidth) uint8 {
	return uint8(uncompressedWidth) | uint8(byteLenWidth)<<2 | uint8(wordLenWidth)<<4 | uint8(storedSizeWidth)<<6
}

// Write serializes f: an optional magic, the fixed BCHeader, the length of
// each present channel in fidiA, fidiB, gida, leon order, the uncompressed
// size (only when compressed), the stored-payload length, then the present
// channels' bytes concatenated in that same order as one region, optionally
// compressed and optionally AES-256-GCM encrypted (spec.md §4.H.3,
// mirroring oiBC.h's BCFile/BCHeader layout).
//
// hideMagic omits the leading 'oiBC' magic, the layout used when an oiBC
// file is embedded inside another format's container.
func Write(f *File, hideMagic bool) ([]byte, error) {
	if len(f.FidiA) == 0 && len(f.FidiB) == 0 && len(f.Gida) == 0 && len(f.Leon) == 0 {
		return nil, oxc3.NullPointer(0, "oibc.Write: at least one channel is required")
	}

	gidaBytes := make([]byte, len(f.Gida)*2)
	for i, v := range f.Gida {
		oixx.WriteSized(gidaBytes[i*2:i*2+2], oixx.SizeU16, uint64(v))
	}
	leonBytes := make([]byte, len(f.Leon)*4)
	for i, v := range f.Leon {
		oixx.WriteSized(leonBytes[i*4:i*4+4], oixx.SizeU32, uint64(v))
	}

	dataSize := uint64(len(f.FidiA) + len(f.FidiB) + len(gidaBytes) + len(leonBytes))
	payload := make([]byte, 0, dataSize)
	payload = append(payload, f.FidiA...)
	payload = append(payload, f.FidiB...)
	payload = append(payload, gidaBytes...)
	payload = append(payload, leonBytes...)

	toStore := payload
	if f.Settings.CompressionType != oixx.CompressionNone {
		compressed, err := oixx.Compress(f.Settings.CompressionType, payload)
		if err != nil {
			return nil, err
		}
		toStore = compressed
	}

	uncompressedWidth := oixx.RequiredSizeWidth(dataSize)
	byteLenWidth := oixx.RequiredSizeWidth(maxU64(uint64(len(f.FidiA)), uint64(len(f.FidiB))))
	wordLenWidth := oixx.RequiredSizeWidth(maxU64(uint64(len(f.Gida)), uint64(len(f.Leon))))
	storedSizeWidth := oixx.RequiredSizeWidth(uint64(len(toStore)))

	var flags uint16
	if f.Settings.UseSHA256 {
		flags |= uint16(oixx.FlagUseSHA256)
	}
	if len(f.FidiA) != 0 {
		flags |= bcFlagFidiA
	}
	if len(f.FidiB) != 0 {
		flags |= bcFlagFidiB
	}
	if len(f.Gida) != 0 {
		flags |= bcFlagGida
	}
	if len(f.Leon) != 0 {
		flags |= bcFlagLeon
	}

	typeByte := oixx.PackType(f.Settings.CompressionType, f.Settings.EncryptionType)
	sizes := packBCSizeTypes(uncompressedWidth, byteLenWidth, wordLenWidth, storedSizeWidth)

	w := oixx.NewWriter()
	if !hideMagic {
		var magicBuf [4]byte
		oixx.WriteSized(magicBuf[:], oixx.SizeU32, uint64(Magic))
		w.Append(magicBuf[:])
	}

	var hdrBuf [5]byte
	hdrBuf[0] = uint8(version)
	oixx.WriteSized(hdrBuf[1:3], oixx.SizeU16, uint64(flags))
	hdrBuf[3] = typeByte
	hdrBuf[4] = sizes
	w.Append(hdrBuf[:])

	if len(f.FidiA) != 0 {
		oixx.AppendSized(w, byteLenWidth, uint64(len(f.FidiA)))
	}
	if len(f.FidiB) != 0 {
		oixx.AppendSized(w, byteLenWidth, uint64(len(f.FidiB)))
	}
	if len(f.Gida) != 0 {
		oixx.AppendSized(w, wordLenWidth, uint64(len(f.Gida)))
	}
	if len(f.Leon) != 0 {
		oixx.AppendSized(w, wordLenWidth, uint64(len(f.Leon)))
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
		return nil, xerrors.Errorf("oibc.Write: %w", oxc3.InvalidState(0, err.Error()))
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

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
