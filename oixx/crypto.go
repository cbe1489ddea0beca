package oixx

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"hash/crc32"

	"golang.org/x/xerrors"

	"github.com/oxsomi/oxc3-go"
)

// castagnoliTable is built the same way trustelem-go-diskfs's
// filesystem/ext4/crc32c.go builds its CRC32C table.
var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the Castagnoli CRC32 checksum of data (spec.md §4.B).
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoliTable)
}

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

const (
	AESKeySize = 32 // AES-256
	AESIVSize  = 12
	AESTagSize = 16
)

// EncryptAESGCM encrypts plaintext under key (must be 32 bytes) using the
// caller-supplied 12-byte iv. aad is authenticated but not encrypted
// (spec.md §6.3: "AAD = all bytes from file start up to the IV").
func EncryptAESGCM(plaintext, key, aad []byte, iv [AESIVSize]byte) (tag [AESTagSize]byte, ciphertext []byte, err error) {
	if len(key) != AESKeySize {
		return tag, nil, oxc3.InvalidParameter(1, 0, "oixx.EncryptAESGCM: key must be 32 bytes")
	}

	block, ierr := aes.NewCipher(key)
	if ierr != nil {
		return tag, nil, xerrors.Errorf("oixx.EncryptAESGCM: %w", oxc3.InvalidState(0, ierr.Error()))
	}

	gcm, ierr := cipher.NewGCMWithTagSize(block, AESTagSize)
	if ierr != nil {
		return tag, nil, xerrors.Errorf("oixx.EncryptAESGCM: %w", oxc3.InvalidState(1, ierr.Error()))
	}

	sealed := gcm.Seal(nil, iv[:], plaintext, aad)
	ciphertext = sealed[:len(sealed)-AESTagSize]
	copy(tag[:], sealed[len(sealed)-AESTagSize:])
	return tag, ciphertext, nil
}

// DecryptAESGCM decrypts ciphertext under key, verifying tag against aad and
// iv. A tag mismatch surfaces as KindUnauthorized (spec.md §4.B, §8
// "AES round-trip").
func DecryptAESGCM(ciphertext, key, aad []byte, iv [AESIVSize]byte, tag [AESTagSize]byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, oxc3.InvalidParameter(1, 0, "oixx.DecryptAESGCM: key must be 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, xerrors.Errorf("oixx.DecryptAESGCM: %w", oxc3.InvalidState(0, err.Error()))
	}

	gcm, err := cipher.NewGCMWithTagSize(block, AESTagSize)
	if err != nil {
		return nil, xerrors.Errorf("oixx.DecryptAESGCM: %w", oxc3.InvalidState(1, err.Error()))
	}

	sealed := make([]byte, 0, len(ciphertext)+AESTagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag[:]...)

	plaintext, err := gcm.Open(nil, iv[:], sealed, aad)
	if err != nil {
		return nil, oxc3.Unauthorized(0, "oixx.DecryptAESGCM: tag mismatch")
	}
	return plaintext, nil
}
