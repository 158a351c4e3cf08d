package dbmodel

import (
	"encoding/base64"
	"testing"

	"github.com/kpvault/kpvault/internal/keystream"
)

func sampleXML(t *testing.T, ks *keystream.Cipher) string {
	t.Helper()
	passwordCipher := ks.XOR([]byte("c"))
	b64 := base64.StdEncoding.EncodeToString(passwordCipher)
	return `<KeePassFile>
  <Meta>
    <HeaderHash>deadbeef</HeaderHash>
    <DatabaseName>Test DB</DatabaseName>
  </Meta>
  <Root>
    <Group>
      <UUID>Z3JvdXAtdXVpZA==</UUID>
      <Name>Root</Name>
      <Entry>
        <UUID>ZW50cnktdXVpZA==</UUID>
        <String><Key>Title</Key><Value>a</Value></String>
        <String><Key>UserName</Key><Value>b</Value></String>
        <String><Key>Password</Key><Value Protected="True">` + b64 + `</Value></String>
      </Entry>
    </Group>
  </Root>
</KeePassFile>`
}

func TestParseAndGetPassword(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}
	doc := sampleXML(t, keystream.New(key))

	db, err := Parse([]byte(doc), keystream.New(key), true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if db.Name != "Test DB" {
		t.Fatalf("Name = %q", db.Name)
	}
	if len(db.Root.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(db.Root.Entries))
	}
	entry := db.Root.Entries[0]
	if entry.Strings["Title"].Text != "a" || entry.Strings["UserName"].Text != "b" {
		t.Fatalf("unexpected string fields: %+v", entry.Strings)
	}

	pw, ok := db.GetPassword("ZW50cnktdXVpZA==")
	if !ok || pw != "c" {
		t.Fatalf("GetPassword = %q, %v", pw, ok)
	}
}

func TestProjectLoadRoundTripDropsPassword(t *testing.T) {
	var key [32]byte
	doc := sampleXML(t, keystream.New(key))
	db, err := Parse([]byte(doc), keystream.New(key), true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	projection := db.Project(DefaultFilter())
	loaded, err := LoadProjection(projection, ProjectionVersion)
	if err != nil {
		t.Fatalf("LoadProjection: %v", err)
	}

	if loaded.Name != db.Name {
		t.Fatalf("name mismatch after round trip")
	}
	entry := loaded.Root.Entries[0]
	if entry.Password != "" {
		t.Fatalf("expected password absent, got %q", entry.Password)
	}
	if entry.Strings["Title"].Text != "a" || entry.Strings["UserName"].Text != "b" {
		t.Fatalf("expected Title/UserName preserved, got %+v", entry.Strings)
	}
}

func TestLoadProjectionVersion0Flattened(t *testing.T) {
	m := map[string]any{
		"name": "legacy",
		"root": map[string]any{
			"uuid": "g",
			"name": "Root",
			"entries": []any{
				map[string]any{
					"uuid":     "e",
					"Title":    "T",
					"UserName": "U",
					"URL":      "http://example.com",
				},
			},
		},
	}
	db, err := LoadProjection(m, 0)
	if err != nil {
		t.Fatalf("LoadProjection: %v", err)
	}
	entry := db.Root.Entries[0]
	if entry.Strings["Title"].Text != "T" || entry.Strings["URL"].Text != "http://example.com" {
		t.Fatalf("version 0 flatten not reconstructed: %+v", entry.Strings)
	}
}

func TestLoadProjectionEmptyIsError(t *testing.T) {
	if _, err := LoadProjection(map[string]any{}, 1); err == nil {
		t.Fatalf("expected EmptyDatabase error")
	}
}
