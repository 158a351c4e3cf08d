package kdbxheader

import (
	"bytes"
	"testing"
)

func sampleHeader() *Header {
	h := NewAESHeader(0x00030001)
	for i := range h.MasterSeed {
		h.MasterSeed[i] = byte(i)
	}
	for i := range h.TransformSeed {
		h.TransformSeed[i] = byte(255 - i)
	}
	h.Rounds = 6000
	for i := range h.IV {
		h.IV[i] = byte(i * 2)
	}
	for i := range h.ProtectionKey {
		h.ProtectionKey[i] = byte(i + 1)
	}
	for i := range h.StartBytes {
		h.StartBytes[i] = byte(i * 3)
	}
	h.StreamTag = StreamSalsa20
	h.Compression = CompressionNone
	return h
}

func TestWriteReadRoundTrip(t *testing.T) {
	want := sampleHeader()
	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Version != want.Version || got.Rounds != want.Rounds || got.StreamTag != want.StreamTag || got.Compression != want.Compression {
		t.Fatalf("scalar field mismatch: got %+v want %+v", got, want)
	}
	if got.MasterSeed != want.MasterSeed || got.TransformSeed != want.TransformSeed || got.IV != want.IV ||
		got.ProtectionKey != want.ProtectionKey || got.StartBytes != want.StartBytes {
		t.Fatalf("byte-array field mismatch")
	}
}

func TestHeaderHashEqualsSHA256OfRaw(t *testing.T) {
	h := sampleHeader()
	var buf bytes.Buffer
	if err := Write(&buf, h); err != nil {
		t.Fatalf("Write: %v", err)
	}
	parsed, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if parsed.HeaderHash() != h.HeaderHash() {
		t.Fatalf("header hash mismatch between write-time and read-time computation")
	}
}

func TestRejectsBadMagic(t *testing.T) {
	h := sampleHeader()
	var buf bytes.Buffer
	if err := Write(&buf, h); err != nil {
		t.Fatalf("Write: %v", err)
	}
	corrupt := buf.Bytes()
	corrupt[0] ^= 0xFF
	if _, err := Read(bytes.NewReader(corrupt)); err == nil {
		t.Fatalf("expected error for corrupted magic")
	}
}

func TestRejectsRC4StreamTag(t *testing.T) {
	h := sampleHeader()
	h.StreamTag = StreamRC4
	var buf bytes.Buffer
	if err := Write(&buf, h); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := Read(bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatalf("expected error for RC4 stream tag")
	}
}
