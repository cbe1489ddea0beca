package oixx

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestRequiredSizeWidthRoundTrip checks spec.md §8 property 2: the required
// width is the smallest one for which write-then-read recovers v.
func TestRequiredSizeWidthRoundTrip(t *testing.T) {
	values := []uint64{0, 1, math.MaxUint8, math.MaxUint8 + 1, math.MaxUint16, math.MaxUint16 + 1, math.MaxUint32, math.MaxUint32 + 1, math.MaxUint64}
	for _, v := range values {
		w := RequiredSizeWidth(v)
		buf := make([]byte, 8)
		n := WriteSized(buf, w, v)
		got := ReadSized(buf[:n], w)
		if got != v {
			t.Errorf("RequiredSizeWidth(%d) = %v, round trip got %d", v, w, got)
		}
	}
}

func TestRequiredSizeWidthIsSmallest(t *testing.T) {
	cases := []struct {
		v    uint64
		want SizeWidth
	}{
		{0, SizeU8},
		{math.MaxUint8, SizeU8},
		{math.MaxUint8 + 1, SizeU16},
		{math.MaxUint16, SizeU16},
		{math.MaxUint16 + 1, SizeU32},
		{math.MaxUint32, SizeU32},
		{math.MaxUint32 + 1, SizeU64},
	}
	for _, c := range cases {
		if got := RequiredSizeWidth(c.v); got != c.want {
			t.Errorf("RequiredSizeWidth(%d) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestConsumeSizedOutOfBounds(t *testing.T) {
	r := NewReader([]byte{1})
	if _, err := ConsumeSized(r, SizeU32); err == nil {
		t.Fatal("expected OutOfBounds error")
	}
}

func TestWriterAppendAndReserve(t *testing.T) {
	w := NewWriter()
	w.Append([]byte("abc"))
	off := w.Reserve(4)
	w.Append([]byte("xyz"))
	w.WriteAt(off, []byte{1, 2, 3, 4})

	want := append([]byte("abc"), 1, 2, 3, 4)
	want = append(want, []byte("xyz")...)

	if diff := cmp.Diff(want, w.Bytes()); diff != "" {
		t.Errorf("Writer.Bytes() mismatch (-want +got):\n%s", diff)
	}
}

// TestAESRoundTrip is spec.md §8 property 6.
func TestAESRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, AESKeySize)
	aad := []byte("header bytes")
	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	var iv [AESIVSize]byte
	copy(iv[:], []byte("abcdefghijkl"))

	tag, ciphertext, err := EncryptAESGCM(plaintext, key, aad, iv)
	if err != nil {
		t.Fatalf("EncryptAESGCM: %v", err)
	}

	got, err := DecryptAESGCM(ciphertext, key, aad, iv, tag)
	if err != nil {
		t.Fatalf("DecryptAESGCM: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch: got %q want %q", got, plaintext)
	}

	// Flipping a single ciphertext bit must fail as Unauthorized.
	corrupt := bytes.Clone(ciphertext)
	corrupt[0] ^= 1
	if _, err := DecryptAESGCM(corrupt, key, aad, iv, tag); err == nil {
		t.Error("expected Unauthorized error for corrupted ciphertext")
	}

	// Flipping a single tag bit must fail as Unauthorized.
	corruptTag := tag
	corruptTag[0] ^= 1
	if _, err := DecryptAESGCM(ciphertext, key, aad, iv, corruptTag); err == nil {
		t.Error("expected Unauthorized error for corrupted tag")
	}
}

func TestBrotliRoundTrip(t *testing.T) {
	for _, level := range []int{1, 11} {
		src := bytes.Repeat([]byte("hello oiXX world "), 100)
		compressed, err := CompressBrotli(level, src)
		if err != nil {
			t.Fatalf("CompressBrotli(%d): %v", level, err)
		}
		got, err := DecompressBrotli(compressed, len(src))
		if err != nil {
			t.Fatalf("DecompressBrotli(%d): %v", level, err)
		}
		if !bytes.Equal(got, src) {
			t.Errorf("level %d: round trip mismatch", level)
		}
	}
}

func TestRejectAESChunks(t *testing.T) {
	if err := RejectAESChunks(AESChunkNone); err != nil {
		t.Errorf("AESChunkNone should be accepted, got %v", err)
	}
	if err := RejectAESChunks(AESChunk10MiB); err == nil {
		t.Error("expected Unsupported error for non-zero chunk mode")
	}
}

func TestVersionEncoding(t *testing.T) {
	v := EncodeVersion(1, 2)
	if v != 12 {
		t.Fatalf("EncodeVersion(1,2) = %d, want 12", v)
	}
	major, minor := DecodeVersion(v)
	if major != 1 || minor != 2 {
		t.Fatalf("DecodeVersion(12) = %d.%d, want 1.2", major, minor)
	}
}
