package oibc

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oixx"
)

const bcFlagsChannelMask = bcFlagFidiA | bcFlagFidiB | bcFlagGida | bcFlagLeon

// Read parses buf into a File, the inverse of Write: magic, header, version
// and flag validation, per-present-channel length fields, optional
// decompression size, stored-payload length, optional decryption, then
// channel splitting in fidiA, fidiB, gida, leon order (spec.md §4.H.4).
//
// key is the AES-256 key (32 bytes) when the file is encrypted, or nil
// otherwise. isSubFile means buf embeds this oiBC inside another format's
// container.
func Read(buf []byte, key []byte, isSubFile bool) (*File, error) {
	r := oixx.NewReader(buf)

	if !isSubFile {
		magic, err := r.ConsumeU32LE()
		if err != nil {
			return nil, err
		}
		if magic != Magic {
			return nil, oxc3.InvalidParameter(0, 0, "oibc.Read: bad magic number")
		}
	}

	hdrBytes, err := r.Consume(5)
	if err != nil {
		return nil, err
	}
	hdrVersion := hdrBytes[0]
	flags := uint16(oixx.ReadSized(hdrBytes[1:3], oixx.SizeU16))
	typeByte := hdrBytes[3]
	sizes := hdrBytes[4]

	compressionType, encryptionType := oixx.UnpackType(typeByte)
	if err := oixx.ValidateCommon(hdrVersion, version, encryptionType, len(key) > 0); err != nil {
		return nil, err
	}

	cf := oixx.CommonFlags(flags)
	if err := oixx.RejectAESChunks(cf.AESChunkMode()); err != nil {
		return nil, err
	}

	if flags&bcFlagsChannelMask == 0 {
		return nil, oxc3.InvalidState(0, "oibc.Read: no channel present")
	}

	uncompressedWidth := oixx.SizeWidth(sizes & 3)
	byteLenWidth := oixx.SizeWidth((sizes >> 2) & 3)
	wordLenWidth := oixx.SizeWidth((sizes >> 4) & 3)
	storedSizeWidth := oixx.SizeWidth((sizes >> 6) & 3)

	hasFidiA := flags&bcFlagFidiA != 0
	hasFidiB := flags&bcFlagFidiB != 0
	hasGida := flags&bcFlagGida != 0
	hasLeon := flags&bcFlagLeon != 0

	var fidiALen, fidiBLen, gidaLen, leonLen uint64
	if hasFidiA {
		if fidiALen, err = oixx.ConsumeSized(r, byteLenWidth); err != nil {
			return nil, err
		}
	}
	if hasFidiB {
		if fidiBLen, err = oixx.ConsumeSized(r, byteLenWidth); err != nil {
			return nil, err
		}
	}
	if hasGida {
		if gidaLen, err = oixx.ConsumeSized(r, wordLenWidth); err != nil {
			return nil, err
		}
	}
	if hasLeon {
		if leonLen, err = oixx.ConsumeSized(r, wordLenWidth); err != nil {
			return nil, err
		}
	}

	dataSize := fidiALen + fidiBLen + gidaLen*2 + leonLen*4

	uncompressedSize := dataSize
	if compressionType != oixx.CompressionNone {
		uncompressedSize, err = oixx.ConsumeSized(r, uncompressedWidth)
		if err != nil {
			return nil, err
		}
	}

	storedSize, err := oixx.ConsumeSized(r, storedSizeWidth)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if encryptionType != oixx.EncryptionNone {
		ivBytes, err := r.Consume(oixx.AESIVSize)
		if err != nil {
			return nil, err
		}
		var iv [oixx.AESIVSize]byte
		copy(iv[:], ivBytes)

		tagBytes, err := r.Consume(oixx.AESTagSize)
		if err != nil {
			return nil, err
		}
		var tag [oixx.AESTagSize]byte
		copy(tag[:], tagBytes)

		// AAD is every byte written before the IV (spec.md §6.3).
		aad := buf[:len(buf)-r.Len()-oixx.AESIVSize-oixx.AESTagSize]

		ciphertext, err := r.Consume(int(storedSize))
		if err != nil {
			return nil, err
		}

		plain, err := oixx.DecryptAESGCM(ciphertext, key, aad, iv, tag)
		if err != nil {
			return nil, err
		}
		payload = plain
	} else {
		stored, err := r.Consume(int(storedSize))
		if err != nil {
			return nil, err
		}
		payload = stored
	}

	if compressionType != oixx.CompressionNone {
		decompressed, err := oixx.Decompress(compressionType, payload, int(uncompressedSize))
		if err != nil {
			return nil, err
		}
		payload = decompressed
	}

	if uint64(len(payload)) != dataSize {
		return nil, oxc3.InvalidState(0, "oibc.Read: decoded payload size doesn't match channel length table")
	}

	if !isSubFile && r.Len() != 0 {
		return nil, oxc3.InvalidState(1, "oibc.Read: trailing bytes after file content")
	}

	f := &File{
		Settings: Settings{
			CompressionType: compressionType,
			EncryptionType:  encryptionType,
			UseSHA256:       cf.UseSHA256(),
			EncryptionKey:   key,
		},
		ReadLength: uint64(r.Offset()),
	}

	off := uint64(0)
	if hasFidiA {
		f.FidiA = append(f.FidiA, payload[off:off+fidiALen]...)
		off += fidiALen
	}
	if hasFidiB {
		f.FidiB = append(f.FidiB, payload[off:off+fidiBLen]...)
		off += fidiBLen
	}
	if hasGida {
		f.Gida = make([]uint16, gidaLen)
		for i := range f.Gida {
			f.Gida[i] = uint16(oixx.ReadSized(payload[off:off+2], oixx.SizeU16))
			off += 2
		}
	}
	if hasLeon {
		f.Leon = make([]uint32, leonLen)
		for i := range f.Leon {
			f.Leon[i] = uint32(oixx.ReadSized(payload[off:off+4], oixx.SizeU32))
			off += 4
		}
	}

	return f, nil
}
