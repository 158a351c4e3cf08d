package kpvault

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/kpvault/kpvault/internal/blockcipher"
	"github.com/kpvault/kpvault/internal/hashedblock"
	"github.com/kpvault/kpvault/internal/kdbxheader"
	"github.com/kpvault/kpvault/internal/kperr"
	"github.com/kpvault/kpvault/internal/keystream"
	"github.com/kpvault/kpvault/internal/keytransform"
)

// buildKdbxFixture assembles a full kdbx v3 file (AES cipher, SALSA20
// per-field protection, no compression) the way a real KeePass 2.x export
// would lay the bytes out: header TLV, then AES-CBC(start-bytes ||
// hashed-blocks(XML)). It mirrors spec.md §8 scenario 1: one group "Root"
// holding one entry with Title="a", UserName="b", Password="c".
func buildKdbxFixture(t *testing.T, password string, rounds uint64) (blob []byte, entryUUID string) {
	t.Helper()

	h := kdbxheader.NewAESHeader(0x00030001)
	h.Compression = kdbxheader.CompressionNone
	h.StreamTag = kdbxheader.StreamSalsa20
	h.Rounds = rounds
	for i := range h.MasterSeed {
		h.MasterSeed[i] = byte(i + 1)
	}
	for i := range h.TransformSeed {
		h.TransformSeed[i] = byte(i + 2)
	}
	for i := range h.IV {
		h.IV[i] = byte(i + 3)
	}
	for i := range h.ProtectionKey {
		h.ProtectionKey[i] = byte(i + 4)
	}
	for i := range h.StartBytes {
		h.StartBytes[i] = byte(i + 5)
	}

	var headerBuf bytes.Buffer
	if err := kdbxheader.Write(&headerBuf, h); err != nil {
		t.Fatalf("kdbxheader.Write: %v", err)
	}

	ksKey := sha256.Sum256(h.ProtectionKey[:])
	ks := keystream.New(ksKey)
	passwordCiphertext := ks.XOR([]byte("c"))
	passwordB64 := base64.StdEncoding.EncodeToString(passwordCiphertext)

	entryUUID = base64.StdEncoding.EncodeToString([]byte("entry-uuid-16By"))
	groupUUID := base64.StdEncoding.EncodeToString([]byte("group-uuid-16By"))
	xmlDoc := `<KeePassFile>
  <Meta>
    <DatabaseName>Scenario DB</DatabaseName>
  </Meta>
  <Root>
    <Group>
      <UUID>` + groupUUID + `</UUID>
      <Name>Root</Name>
      <Entry>
        <UUID>` + entryUUID + `</UUID>
        <String><Key>Title</Key><Value>a</Value></String>
        <String><Key>UserName</Key><Value>b</Value></String>
        <String><Key>Password</Key><Value Protected="True">` + passwordB64 + `</Value></String>
      </Entry>
    </Group>
  </Root>
</KeePassFile>`

	var hashedBuf bytes.Buffer
	if err := hashedblock.NewWriter(&hashedBuf).WriteAll([]byte(xmlDoc)); err != nil {
		t.Fatalf("hashedblock WriteAll: %v", err)
	}

	body := append(append([]byte{}, h.StartBytes[:]...), hashedBuf.Bytes()...)

	cred := NewPasswordCredential(password)
	composite, err := cred.Hash()
	if err != nil {
		t.Fatalf("credential hash: %v", err)
	}
	aesKey, err := keytransform.Derive(composite, h.MasterSeed, h.TransformSeed, rounds)
	if err != nil {
		t.Fatalf("keytransform.Derive: %v", err)
	}

	ciphertext, err := blockcipher.EncryptCBC(aesKey[:], h.IV[:], body, blockcipher.PaddingPKCS7)
	if err != nil {
		t.Fatalf("EncryptCBC: %v", err)
	}

	blob = append(append([]byte{}, headerBuf.Bytes()...), ciphertext...)
	return blob, entryUUID
}

// TestOpenPrimaryEndToEnd reproduces spec.md §8 scenario 1: a kdbx v3 file
// encrypted with password "abcdefg", AES + SALSA20, round count 6000,
// containing one group "Root" holding one entry opens successfully and
// exposes the entry's decrypted password.
func TestOpenPrimaryEndToEnd(t *testing.T) {
	blob, entryUUID := buildKdbxFixture(t, "abcdefg", 6000)

	db, err := OpenPrimary(blob, NewPasswordCredential("abcdefg"))
	if err != nil {
		t.Fatalf("OpenPrimary: %v", err)
	}
	if db.Name != "Scenario DB" {
		t.Fatalf("Name = %q", db.Name)
	}
	if db.Root.Name != "Root" || len(db.Root.Entries) != 1 {
		t.Fatalf("unexpected tree: %+v", db.Root)
	}
	entry := db.Root.Entries[0]
	if entry.Strings["Title"].Text != "a" || entry.Strings["UserName"].Text != "b" {
		t.Fatalf("unexpected string fields: %+v", entry.Strings)
	}

	pw, ok := db.GetPassword(entryUUID)
	if !ok || pw != "c" {
		t.Fatalf("GetPassword = %q, %v; want \"c\", true", pw, ok)
	}
}

// TestOpenPrimaryWrongPassword reproduces spec.md §8 scenario 2: the same
// file decrypted under a one-character-off password fails with BadCredential.
func TestOpenPrimaryWrongPassword(t *testing.T) {
	blob, _ := buildKdbxFixture(t, "abcdefg", 6000)

	_, err := OpenPrimary(blob, NewPasswordCredential("abcdefh"))
	if !errors.Is(err, kperr.ErrBadCredential) {
		t.Fatalf("expected ErrBadCredential, got %v", err)
	}
}

// TestEncryptKdbxRoundTrip reproduces spec.md §8 scenario 5.
func TestEncryptKdbxRoundTrip(t *testing.T) {
	cred := NewPasswordCredential("k")
	blob, err := EncryptKdbx([]byte("hello"), cred, 128)
	if err != nil {
		t.Fatalf("EncryptKdbx: %v", err)
	}
	decrypted, err := DecryptKdbx(blob, cred)
	if err != nil {
		t.Fatalf("DecryptKdbx: %v", err)
	}
	if string(decrypted.Payload) != "hello" {
		t.Fatalf("payload = %q, want %q", decrypted.Payload, "hello")
	}
}

// TestKeyFileBinaryForm reproduces spec.md §8 scenario 3: a 32-byte binary
// key file combined with a password contributes its own bytes verbatim as
// the second composite-key member.
func TestKeyFileBinaryForm(t *testing.T) {
	keyFileBytes := make([]byte, 32)
	for i := range keyFileBytes {
		keyFileBytes[i] = byte(i)
	}

	cred := NewCompositeCredential("pwd", keyFileBytes)
	got, err := cred.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	passwordHash := sha256.Sum256([]byte("pwd"))
	want := sha256.Sum256(append(append([]byte{}, passwordHash[:]...), keyFileBytes...))
	if got != want {
		t.Fatalf("composite hash mismatch")
	}
}

// TestCachePasswordFromPassword exercises the §6 convenience helper.
func TestCachePasswordFromPassword(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"ab":      "ab",
		"abc":     "abc",
		"abcd":    "ab",
		"abcdefg": "abc",
	}
	for in, want := range cases {
		if got := CachePasswordFromPassword(in); got != want {
			t.Fatalf("CachePasswordFromPassword(%q) = %q, want %q", in, got, want)
		}
	}
}
