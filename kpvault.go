// Package kpvault reads KeePass 2.x kdbx v3 password databases, encrypts
// and decrypts bare kdbx v3 containers, and wraps projections of the decoded tree in a secondary kdbx container
// ("cache envelope") for cheap re-reads without the password's full key
// transform.
package kpvault

import (
	"bytes"
	"io"

	"github.com/kpvault/kpvault/internal/cacheenvelope"
	"github.com/kpvault/kpvault/internal/dbmodel"
	"github.com/kpvault/kpvault/internal/kdbxcontainer"
	"github.com/kpvault/kpvault/internal/kdbxheader"
)

// DecryptKdbx parses and decrypts a kdbx v3 container, returning its raw
// (still-XML, for the primary database) decompressed payload alongside the
// header metadata needed to decrypt Protected XML values.
func DecryptKdbx(data []byte, cred Credential) (*kdbxcontainer.DecryptedPayload, error) {
	h, err := cred.Hash()
	if err != nil {
		return nil, err
	}
	return kdbxcontainer.Decrypt(bytes.NewReader(data), h)
}

// EncryptKdbx encrypts plaintext into a fresh kdbx v3 container under cred,
// using rounds key-transform iterations and no per-field stream protection.
// The container's own compression flag is always NONE; the encryptor never
// emits GZIP-compressed output.
func EncryptKdbx(plaintext []byte, cred Credential, rounds uint64) ([]byte, error) {
	h, err := cred.Hash()
	if err != nil {
		return nil, err
	}
	return kdbxcontainer.Encrypt(rounds, plaintext, h)
}

// OpenPrimary decrypts a kdbx v3 primary database file and parses its XML
// payload into a Database tree.
func OpenPrimary(data []byte, cred Credential) (*dbmodel.Database, error) {
	decrypted, err := DecryptKdbx(data, cred)
	if err != nil {
		return nil, err
	}
	// Only a header advertising no per-field stream cipher excuses a
	// Protected node with no keystream to decode against; any other
	// mismatch is a real parse failure, not a legitimate fallback.
	protectedStrict := decrypted.Header.StreamTag != kdbxheader.StreamNone
	return dbmodel.Parse(decrypted.Payload, decrypted.Keystream, protectedStrict)
}

// CacheSerialize projects db through filter (DefaultFilter() if nil) and
// encrypts it as a cache envelope under cred. dbFileDigestHex and
// keyFileDigestHex identify, as lowercase hex SHA-1 digests, the primary
// database file and optional key file this cache is derived from; the
// wire-level cache_serialize operation leaves sourcing those digests to the
// caller, since this package has no file-identity concept of its own.
func CacheSerialize(db *dbmodel.Database, cred Credential, filter *dbmodel.Filter, dbFileDigestHex string, keyFileDigestHex *string) ([]byte, error) {
	h, err := cred.Hash()
	if err != nil {
		return nil, err
	}
	f := dbmodel.DefaultFilter()
	if filter != nil {
		f = *filter
	}
	return cacheenvelope.ToKdbx(db, h, f, dbFileDigestHex, keyFileDigestHex)
}

// CacheDeserialize decrypts a cache envelope and reconstructs the Database
// it projects, alongside the envelope's own metadata.
func CacheDeserialize(r io.Reader, cred Credential) (*cacheenvelope.Envelope, *dbmodel.Database, error) {
	h, err := cred.Hash()
	if err != nil {
		return nil, nil, err
	}
	return cacheenvelope.FromKdbx(r, h)
}
