// Package keytransform implements the kdbx key-transform step: grinding the
// composite credential hash through R rounds of AES-ECB under the header's
// transform seed, then combining with the master seed to produce the
// AES-256 key used for the container's CBC payload.
package keytransform

import (
	"crypto/sha256"

	"github.com/kpvault/kpvault/internal/blockcipher"
	"github.com/kpvault/kpvault/internal/kpcrypto"
	"github.com/kpvault/kpvault/internal/kperr"
)

// Derive computes the final AES-256 key:
//
//	t := composite                         // 32 bytes, 2 AES blocks
//	repeat rounds times: t := AES-ECB-encrypt(key=transformSeed, block=t)
//	finalKey := SHA-256(t)
//	aesKey   := SHA-256(masterSeed || finalKey)
//
// rounds is a 64-bit count; Go's uint64 holds it natively, so there is no
// limb decomposition to perform — any way of splitting the round count
// into smaller loops would visit the same sequence of ECB applications and
// produce the identical t, since each round only depends on the previous
// round's output.
func Derive(composite, masterSeed, transformSeed [32]byte, rounds uint64) ([32]byte, error) {
	lane1, err := blockcipher.EncryptECBRounds(transformSeed[:], composite[:16], rounds)
	if err != nil {
		return [32]byte{}, kperr.Wrap(kperr.ErrPrepareFailure, "keytransform.Derive", err)
	}
	lane2, err := blockcipher.EncryptECBRounds(transformSeed[:], composite[16:], rounds)
	if err != nil {
		return [32]byte{}, kperr.Wrap(kperr.ErrPrepareFailure, "keytransform.Derive", err)
	}

	t := make([]byte, 0, 32)
	t = append(t, lane1...)
	t = append(t, lane2...)
	finalKey := sha256.Sum256(t)

	combined := make([]byte, 0, 64)
	combined = append(combined, masterSeed[:]...)
	combined = append(combined, finalKey[:]...)
	key := sha256.Sum256(combined)

	kpcrypto.SecureZeroMultiple(lane1, lane2, t, combined, finalKey[:])
	return key, nil
}
