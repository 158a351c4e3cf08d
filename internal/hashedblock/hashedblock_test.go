package hashedblock

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kpvault/kpvault/internal/kperr"
)

func TestWriteReadRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 1<<16) // bigger than one block isn't required but exercises chunking path at small scale

	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteAll(data); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	r := NewReader(&buf, true)
	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes want %d bytes", len(got), len(data))
	}
	if r.IsCorrupted() {
		t.Fatalf("expected uncorrupted stream")
	}
}

func TestEmptyPayloadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteAll(nil); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	got, err := NewReader(&buf, true).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty payload, got %d bytes", len(got))
	}
}

func TestTamperStrictFails(t *testing.T) {
	data := []byte("some plaintext payload bytes")
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteAll(data); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	tampered := buf.Bytes()
	tampered[4+32+4] ^= 0xFF // flip a payload byte

	_, err := NewReader(bytes.NewReader(tampered), true).ReadAll()
	if !errors.Is(err, kperr.ErrIntegrityFailure) {
		t.Fatalf("expected ErrIntegrityFailure, got %v", err)
	}
}

func TestTamperPermissiveContinues(t *testing.T) {
	data := []byte("some plaintext payload bytes")
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteAll(data); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	tampered := buf.Bytes()
	tampered[4+32+4] ^= 0xFF

	r := NewReader(bytes.NewReader(tampered), false)
	if _, err := r.ReadAll(); err != nil {
		t.Fatalf("permissive ReadAll should not fail: %v", err)
	}
	if !r.IsCorrupted() {
		t.Fatalf("expected IsCorrupted true")
	}
}
