package credential

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"
)

func TestCompositeHash(t *testing.T) {
	h1 := sha256.Sum256([]byte("a"))
	h2 := sha256.Sum256([]byte("b"))

	var c Composite
	c.Add(h1)
	c.Add(h2)

	want := sha256.Sum256(append(append([]byte{}, h1[:]...), h2[:]...))
	got := c.Hash()
	if got != want {
		t.Fatalf("composite hash mismatch: got %x want %x", got, want)
	}
}

func TestParseKeyFileBinary(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	got, err := ParseKeyFile(data)
	if err != nil {
		t.Fatalf("ParseKeyFile: %v", err)
	}
	if !bytes.Equal(got[:], data) {
		t.Fatalf("binary key file mismatch")
	}
}

func TestParseKeyFileHex(t *testing.T) {
	var want [32]byte
	for i := 0; i < 16; i++ {
		want[i] = 0x00
	}
	for i := 16; i < 32; i++ {
		want[i] = 0xFF
	}
	hexStr := ""
	for i := 0; i < 16; i++ {
		hexStr += "00"
	}
	for i := 0; i < 16; i++ {
		hexStr += "FF"
	}
	got, err := ParseKeyFile([]byte(hexStr))
	if err != nil {
		t.Fatalf("ParseKeyFile: %v", err)
	}
	if got != want {
		t.Fatalf("hex key file mismatch: got %x want %x", got, want)
	}
}

func TestParseKeyFileXML(t *testing.T) {
	var want [32]byte
	for i := range want {
		want[i] = byte(i * 3)
	}
	b64 := base64.StdEncoding.EncodeToString(want[:])
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<KeyFile>
  <Key>
    <Data>%s</Data>
  </Key>
</KeyFile>`, b64)

	got, err := ParseKeyFile([]byte(doc))
	if err != nil {
		t.Fatalf("ParseKeyFile: %v", err)
	}
	if got != want {
		t.Fatalf("xml key file mismatch: got %x want %x", got, want)
	}
}

func TestParseKeyFileRejectsGarbage(t *testing.T) {
	if _, err := ParseKeyFile([]byte("not a valid key file at all")); err == nil {
		t.Fatalf("expected error for unrecognized key file")
	}
}
