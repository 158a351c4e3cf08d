package gzipcodec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kpvault/kpvault/internal/kperr"
)

func TestRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility ")
	data = bytes.Repeat(data, 20)

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestDecompressMalformed(t *testing.T) {
	_, err := Decompress([]byte("not gzip data at all"))
	if !errors.Is(err, kperr.ErrDecompressFailure) {
		t.Fatalf("expected ErrDecompressFailure, got %v", err)
	}
}
