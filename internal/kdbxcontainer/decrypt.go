package kdbxcontainer

import (
	"bytes"
	"io"

	"github.com/kpvault/kpvault/internal/blockcipher"
	"github.com/kpvault/kpvault/internal/gzipcodec"
	"github.com/kpvault/kpvault/internal/hashedblock"
	"github.com/kpvault/kpvault/internal/kdbxheader"
	"github.com/kpvault/kpvault/internal/kpcrypto"
	"github.com/kpvault/kpvault/internal/kperr"
	"github.com/kpvault/kpvault/internal/keytransform"
	"github.com/kpvault/kpvault/internal/kplog"
)

type decryptState struct {
	header    *kdbxheader.Header
	composite [32]byte
	aesKey    *kpcrypto.KeyMaterial
	plain     []byte
}

// Close zeros any derived key material still held by st. Idempotent; safe
// to call unconditionally once decryptPayload has already consumed the key.
func (st *decryptState) Close() {
	if st.aesKey != nil {
		st.aesKey.Close()
	}
}

// Decrypt parses and decrypts a kdbx v3 container from r under composite,
// the caller's 32-byte composite credential hash (see the credential
// package).
func Decrypt(r io.Reader, composite [32]byte) (*DecryptedPayload, error) {
	st := &decryptState{composite: composite}
	defer st.Close()

	if err := decryptReadHeader(st, r); err != nil {
		kplog.Debug("kdbx header read failed", kplog.Err(err))
		return nil, err
	}
	kplog.Debug("kdbx header read", kplog.Int("version", int(st.header.Version)), kplog.Int("rounds", int(st.header.Rounds)))

	if err := decryptDeriveKey(st); err != nil {
		kplog.Debug("kdbx key derivation failed", kplog.Err(err))
		return nil, err
	}
	if err := decryptPayload(st, r); err != nil {
		kplog.Debug("kdbx payload decryption failed", kplog.Err(err))
		return nil, err
	}
	payload, err := decryptFinalize(st)
	if err == nil {
		kplog.Debug("kdbx container decrypted", kplog.Int("payload_bytes", len(payload.Payload)))
	}
	return payload, err
}

func decryptReadHeader(st *decryptState, r io.Reader) error {
	h, err := kdbxheader.Read(r)
	if err != nil {
		return err
	}
	st.header = h
	return nil
}

func decryptDeriveKey(st *decryptState) error {
	key, err := keytransform.Derive(st.composite, st.header.MasterSeed, st.header.TransformSeed, st.header.Rounds)
	if err != nil {
		return err
	}
	st.aesKey = kpcrypto.NewKeyMaterial(key[:])
	kpcrypto.SecureZero(key[:])
	return nil
}

func decryptPayload(st *decryptState, r io.Reader) error {
	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return kperr.Wrap(kperr.ErrIOFailure, "kdbxcontainer.decryptPayload", err)
	}

	plain, err := blockcipher.DecryptCBC(st.aesKey.Bytes(), st.header.IV[:], ciphertext, blockcipher.PaddingPKCS7)
	st.Close()
	if err != nil {
		return kperr.Wrap(kperr.ErrBadCredential, "kdbxcontainer.decryptPayload", err)
	}
	if len(plain) < 32 || !bytes.Equal(plain[:32], st.header.StartBytes[:]) {
		return kperr.Wrap(kperr.ErrBadCredential, "kdbxcontainer.decryptPayload", nil)
	}

	hbReader := hashedblock.NewReader(bytes.NewReader(plain[32:]), true)
	body, err := hbReader.ReadAll()
	if err != nil {
		return err
	}

	if st.header.Compression == kdbxheader.CompressionGzip {
		body, err = gzipcodec.Decompress(body)
		if err != nil {
			return err
		}
	}

	st.plain = body
	return nil
}

func decryptFinalize(st *decryptState) (*DecryptedPayload, error) {
	return &DecryptedPayload{
		Payload:    st.plain,
		HeaderHash: st.header.HeaderHash(),
		Header:     st.header,
		Keystream:  fieldProtectionKeystream(st.header),
	}, nil
}
