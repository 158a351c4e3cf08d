package kdbxcontainer

import (
	"bytes"
	"crypto/rand"

	"github.com/kpvault/kpvault/internal/blockcipher"
	"github.com/kpvault/kpvault/internal/hashedblock"
	"github.com/kpvault/kpvault/internal/kdbxheader"
	"github.com/kpvault/kpvault/internal/kpcrypto"
	"github.com/kpvault/kpvault/internal/kperr"
	"github.com/kpvault/kpvault/internal/keytransform"
)

const fileVersion = 0x00030001

// EncryptHeader bundles a freshly-built header together with the AES key
// derived from it, before any plaintext has been chosen. Callers that need
// the header hash in advance of the payload (the cache envelope, which
// embeds its own container's header hash inside the JSON it then encrypts)
// build this first, read HeaderHash(), then call Finalize.
type EncryptHeader struct {
	header *kdbxheader.Header
	aesKey *kpcrypto.KeyMaterial
}

// HeaderHash exposes the header's digest, stable before Finalize is called.
func (h *EncryptHeader) HeaderHash() [32]byte {
	return h.header.HeaderHash()
}

// Close zeros the derived AES key still held by h. Idempotent; Finalize
// calls this itself once it has made its one CBC call.
func (h *EncryptHeader) Close() {
	if h.aesKey != nil {
		h.aesKey.Close()
	}
}

// NewEncryptHeader builds a fresh kdbx v3 header (random master/transform
// seeds, IV, per-field-protection key, start-bytes; compression NONE,
// per-field stream NONE, the given round count) and derives its AES key.
func NewEncryptHeader(rounds uint64, composite [32]byte) (*EncryptHeader, error) {
	h := kdbxheader.NewAESHeader(fileVersion)
	if _, err := rand.Read(h.MasterSeed[:]); err != nil {
		return nil, kperr.Wrap(kperr.ErrPrepareFailure, "kdbxcontainer.NewEncryptHeader", err)
	}
	if _, err := rand.Read(h.TransformSeed[:]); err != nil {
		return nil, kperr.Wrap(kperr.ErrPrepareFailure, "kdbxcontainer.NewEncryptHeader", err)
	}
	if _, err := rand.Read(h.IV[:]); err != nil {
		return nil, kperr.Wrap(kperr.ErrPrepareFailure, "kdbxcontainer.NewEncryptHeader", err)
	}
	if _, err := rand.Read(h.ProtectionKey[:]); err != nil {
		return nil, kperr.Wrap(kperr.ErrPrepareFailure, "kdbxcontainer.NewEncryptHeader", err)
	}
	if _, err := rand.Read(h.StartBytes[:]); err != nil {
		return nil, kperr.Wrap(kperr.ErrPrepareFailure, "kdbxcontainer.NewEncryptHeader", err)
	}
	h.Compression = kdbxheader.CompressionNone
	h.StreamTag = kdbxheader.StreamNone
	h.Rounds = rounds

	// Writing now fixes the header's exact bytes (and thus its hash); the
	// header is never re-serialized with different field values afterward.
	var discard bytes.Buffer
	if err := kdbxheader.Write(&discard, h); err != nil {
		return nil, err
	}

	key, err := keytransform.Derive(composite, h.MasterSeed, h.TransformSeed, rounds)
	if err != nil {
		return nil, err
	}
	km := kpcrypto.NewKeyMaterial(key[:])
	kpcrypto.SecureZero(key[:])
	return &EncryptHeader{header: h, aesKey: km}, nil
}

// Finalize emits header bytes || AES-CBC(start-bytes || HashedBlocks(plaintext)).
func (h *EncryptHeader) Finalize(plaintext []byte) ([]byte, error) {
	var blocksBuf bytes.Buffer
	if err := hashedblock.NewWriter(&blocksBuf).WriteAll(plaintext); err != nil {
		return nil, err
	}

	body := make([]byte, 0, 32+blocksBuf.Len())
	body = append(body, h.header.StartBytes[:]...)
	body = append(body, blocksBuf.Bytes()...)

	ciphertext, err := blockcipher.EncryptCBC(h.aesKey.Bytes(), h.header.IV[:], body, blockcipher.PaddingPKCS7)
	h.Close()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(h.header.Raw())+len(ciphertext))
	out = append(out, h.header.Raw()...)
	out = append(out, ciphertext...)
	return out, nil
}

// Encrypt builds a fresh kdbx v3 container around plaintext in one shot:
// compression NONE and per-field stream NONE, as this library's container
// always emits for encryption (primary-database kdbx files are never
// re-encrypted by this library — only the cache envelope is).
func Encrypt(rounds uint64, plaintext []byte, composite [32]byte) ([]byte, error) {
	h, err := NewEncryptHeader(rounds, composite)
	if err != nil {
		return nil, err
	}
	return h.Finalize(plaintext)
}
