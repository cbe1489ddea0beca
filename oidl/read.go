package oidl

import (
	"github.com/oxsomi/oxc3-go"
	"github.com/oxsomi/oxc3-go/oixx"
)

// Read parses buf into a File, following the validated read order of
// spec.md §4.E / original_source's oiDL/read.c: magic, header, version and
// flag validation, entry count, length table, optional decompression size,
// stored-payload length, optional decryption, then per-entry dispatch by
// DataType.
//
// key is the AES-256 key (32 bytes) when the file is encrypted, or nil
// otherwise. isSubFile means buf embeds this oiDL inside another format's
// container: the leading magic is omitted and trailing bytes beyond the
// parsed length are tolerated rather than rejected (spec.md §6.4, §6.6).
func Read(buf []byte, key []byte, isSubFile bool) (*File, error) {
	r := oixx.NewReader(buf)

	if !isSubFile {
		magic, err := r.ConsumeU32LE()
		if err != nil {
			return nil, err
		}
		if magic != Magic {
			return nil, oxc3.InvalidParameter(0, 0, "oidl.Read: bad magic number")
		}
	}

	hdrBytes, err := r.Consume(5)
	if err != nil {
		return nil, err
	}
	var hdr dlHeader
	hdr.Version = hdrBytes[0]
	hdr.Flags = uint16(oixx.ReadSized(hdrBytes[1:3], oixx.SizeU16))
	hdr.Type = hdrBytes[3]
	hdr.SizeTypes = hdrBytes[4]

	compressionType, encryptionType := oixx.UnpackType(hdr.Type)
	if err := oixx.ValidateCommon(hdr.Version, version, encryptionType, len(key) > 0); err != nil {
		return nil, err
	}

	cf := oixx.CommonFlags(hdr.Flags)
	if err := oixx.RejectAESChunks(cf.AESChunkMode()); err != nil {
		return nil, err
	}

	if hdr.Flags&flagHasExtendedData != 0 {
		// Per-entry and header-level extended data is a reserved forward-
		// compatibility channel this implementation never writes; a file
		// that declares it is outside what we can interpret.
		return nil, oxc3.Unsupported(0, "oidl.Read: extended data is not supported")
	}

	entryCountWidth := oixx.SizeWidth(hdr.SizeTypes & 3)
	dataWidth := oixx.SizeWidth((hdr.SizeTypes >> 2) & 3)
	uncompressedWidth := oixx.SizeWidth((hdr.SizeTypes >> 4) & 3)
	storedSizeWidth := oixx.SizeWidth((hdr.SizeTypes >> 6) & 3)

	dataType := DataTypeData
	switch {
	case hdr.Flags&flagIsUTF8 != 0:
		dataType = DataTypeUTF8
	case hdr.Flags&flagIsASCII != 0:
		dataType = DataTypeASCII
	}

	entryCount, err := oixx.ConsumeSized(r, entryCountWidth)
	if err != nil {
		return nil, err
	}

	entryLens := make([]uint64, entryCount)
	var dataSize uint64
	for i := range entryLens {
		l, err := oixx.ConsumeSized(r, dataWidth)
		if err != nil {
			return nil, err
		}
		entryLens[i] = l
		newSize := dataSize + l
		if newSize < dataSize {
			return nil, oxc3.Overflow(0, newSize, maxDataSize, "oidl.Read: entry length table overflowed")
		}
		dataSize = newSize
	}
	if dataSize > maxDataSize {
		return nil, oxc3.OutOfBounds(0, dataSize, maxDataSize, "oidl.Read: total entry size exceeds 48-bit budget")
	}

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
		return nil, oxc3.InvalidState(0, "oidl.Read: decoded payload size doesn't match entry length table")
	}

	if !isSubFile && r.Len() != 0 {
		return nil, oxc3.InvalidState(1, "oidl.Read: trailing bytes after file content")
	}

	f := &File{
		Settings: Settings{
			CompressionType: compressionType,
			EncryptionType:  encryptionType,
			DataType:        dataType,
			UseSHA256:       cf.UseSHA256(),
			EncryptionKey:   key,
		},
		ReadLength: uint64(r.Offset()),
	}

	off := uint64(0)
	for _, l := range entryLens {
		entry := payload[off : off+l]
		owned := make([]byte, l)
		copy(owned, entry)
		f.Entries = append(f.Entries, owned)
		off += l
	}

	return f, nil
}
