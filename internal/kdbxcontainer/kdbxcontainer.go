// Package kdbxcontainer implements the kdbx v3 container: header parsing,
// key derivation, CBC decryption/encryption with a start-bytes canary, and
// the hashed-block/gzip payload framing. Decrypt and Encrypt are each
// split into small phase functions in the style of a linear pipeline, one
// phase per step of the container's algorithm.
package kdbxcontainer

import (
	"crypto/sha256"

	"github.com/kpvault/kpvault/internal/kdbxheader"
	"github.com/kpvault/kpvault/internal/keystream"
)

// DecryptedPayload is the result of a successful Decrypt.
type DecryptedPayload struct {
	Payload    []byte
	HeaderHash [32]byte
	Header     *kdbxheader.Header
	// Keystream is non-nil when the header's per-field stream tag is
	// SALSA20; callers decrypting Protected XML values consume it in
	// document order.
	Keystream *keystream.Cipher
}

func fieldProtectionKeystream(h *kdbxheader.Header) *keystream.Cipher {
	if h.StreamTag != kdbxheader.StreamSalsa20 {
		return nil
	}
	seed := sha256.Sum256(h.ProtectionKey[:])
	return keystream.New(seed)
}
