// Package cacheenvelope implements the cache envelope: a secondary kdbx
// container whose payload is a JSON projection of a managed Database, used
// to skip the expensive key transform on subsequent list-style queries.
package cacheenvelope

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/kpvault/kpvault/internal/dbmodel"
	"github.com/kpvault/kpvault/internal/kdbxcontainer"
	"github.com/kpvault/kpvault/internal/kperr"
)

const (
	TypeNone = 1
	TypeKDBX = 2
)

// ReferenceRounds is the fixed round count used to encrypt cache envelopes.
const ReferenceRounds = 128

// Envelope is the JSON document carried as a cache envelope's payload.
type Envelope struct {
	Version    int            `json:"version"`
	Type       int            `json:"type"`
	DBFile     string         `json:"dbfile"`
	KeyFile    *string        `json:"keyfile"`
	HeaderHash string         `json:"headerhash"`
	DB         map[string]any `json:"db"`
}

// ToKdbx builds a cache envelope from db, projecting it through filter,
// and encrypts it under credential. dbFileDigestHex/keyFileDigestHex are
// the lowercased hex SHA-1 digests the collaborator layer uses to locate
// the primary database and key-file blobs; keyFileDigestHex is nil when no
// key file was used.
func ToKdbx(db *dbmodel.Database, credential [32]byte, filter dbmodel.Filter, dbFileDigestHex string, keyFileDigestHex *string) ([]byte, error) {
	eh, err := kdbxcontainer.NewEncryptHeader(ReferenceRounds, credential)
	if err != nil {
		return nil, err
	}
	headerHash := eh.HeaderHash()

	env := Envelope{
		Version:    dbmodel.ProjectionVersion,
		Type:       TypeKDBX,
		DBFile:     dbFileDigestHex,
		KeyFile:    keyFileDigestHex,
		HeaderHash: base64.StdEncoding.EncodeToString(headerHash[:]),
		DB:         db.Project(filter),
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, kperr.Wrap(kperr.ErrPrepareFailure, "cacheenvelope.ToKdbx", err)
	}
	return eh.Finalize(payload)
}

// FromKdbx decrypts a cache envelope and reconstructs its projected
// Database. It verifies the embedded headerhash against the outer
// container's own header hash before trusting the payload.
func FromKdbx(r io.Reader, credential [32]byte) (*Envelope, *dbmodel.Database, error) {
	decrypted, err := kdbxcontainer.Decrypt(r, credential)
	if err != nil {
		return nil, nil, err
	}

	var env Envelope
	if err := json.Unmarshal(decrypted.Payload, &env); err != nil {
		return nil, nil, kperr.Wrap(kperr.ErrParseFailure, "cacheenvelope.FromKdbx", err)
	}

	claimedHash, err := base64.StdEncoding.DecodeString(env.HeaderHash)
	if err != nil || !bytes.Equal(claimedHash, decrypted.HeaderHash[:]) {
		return nil, nil, kperr.Wrap(kperr.ErrIntegrityFailure, "cacheenvelope.FromKdbx", nil)
	}

	var db *dbmodel.Database
	if env.DB != nil {
		db, err = dbmodel.LoadProjection(env.DB, env.Version)
		if err != nil {
			return nil, nil, err
		}
	}
	return &env, db, nil
}
