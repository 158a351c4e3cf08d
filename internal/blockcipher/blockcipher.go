// Package blockcipher implements the AES-256 ECB/CBC primitives used by the
// kdbx container: CBC encrypt/decrypt with optional PKCS#7 padding, a single
// ECB block encryption, and the N-round ECB "grind" used by key transform.
package blockcipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"

	"github.com/kpvault/kpvault/internal/kperr"
)

// BlockSize is the AES block size in bytes.
const BlockSize = aes.BlockSize // 16

// Padding selects whether Pad/Unpad is applied around a CBC operation.
type Padding int

const (
	PaddingNone Padding = iota
	PaddingPKCS7
)

// Pad appends PKCS#7 padding: k copies of byte k, where k = 16 - (len % 16),
// a full block of 0x10 when data is already block-aligned.
func Pad(data []byte) []byte {
	padLen := BlockSize - len(data)%BlockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	out := make([]byte, 0, len(data)+padLen)
	out = append(out, data...)
	return append(out, padding...)
}

// Unpad removes and validates PKCS#7 padding. It fails if the declared pad
// length is zero, exceeds the block size, the buffer is shorter than the
// pad length, or any padding byte doesn't match.
func Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "blockcipher.Unpad", nil)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > BlockSize || padLen > len(data) {
		return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "blockcipher.Unpad", nil)
	}
	tail := data[len(data)-padLen:]
	for _, b := range tail {
		if int(b) != padLen {
			return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "blockcipher.Unpad", nil)
		}
	}
	return data[:len(data)-padLen], nil
}

// EncryptCBC encrypts plaintext with AES-256-CBC under key32/iv16, optionally
// applying PKCS#7 padding first.
func EncryptCBC(key, iv, plaintext []byte, padding Padding) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kperr.Wrap(kperr.ErrUnsupportedCipher, "blockcipher.EncryptCBC", err)
	}
	data := plaintext
	if padding == PaddingPKCS7 {
		data = Pad(plaintext)
	}
	if len(data)%BlockSize != 0 {
		return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "blockcipher.EncryptCBC", nil)
	}
	out := make([]byte, len(data))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(out, data)
	return out, nil
}

// DecryptCBC decrypts ciphertext with AES-256-CBC under key32/iv16, optionally
// removing PKCS#7 padding afterward.
func DecryptCBC(key, iv, ciphertext []byte, padding Padding) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kperr.Wrap(kperr.ErrUnsupportedCipher, "blockcipher.DecryptCBC", err)
	}
	if len(ciphertext)%BlockSize != 0 || len(ciphertext) == 0 {
		return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "blockcipher.DecryptCBC", nil)
	}
	out := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(out, ciphertext)
	if padding == PaddingPKCS7 {
		return Unpad(out)
	}
	return out, nil
}

// EncryptECB encrypts a single 16-byte block under key32 with no chaining.
func EncryptECB(key, block16 []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kperr.Wrap(kperr.ErrUnsupportedCipher, "blockcipher.EncryptECB", err)
	}
	if len(block16) != BlockSize {
		return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "blockcipher.EncryptECB", nil)
	}
	out := make([]byte, BlockSize)
	block.Encrypt(out, block16)
	return out, nil
}

// EncryptECBRounds repeatedly ECB-encrypts block16 (interpreted as 16
// consecutive bytes, i.e. one AES block) n_rounds times under key32, each
// round's output feeding the next. Used by key transform to grind a single
// 16-byte lane; key transform itself handles the 32-byte value as two lanes.
func EncryptECBRounds(key, block16 []byte, rounds uint64) ([]byte, error) {
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, kperr.Wrap(kperr.ErrUnsupportedCipher, "blockcipher.EncryptECBRounds", err)
	}
	if len(block16) != BlockSize {
		return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "blockcipher.EncryptECBRounds", nil)
	}
	cur := make([]byte, BlockSize)
	copy(cur, block16)
	next := make([]byte, BlockSize)
	for i := uint64(0); i < rounds; i++ {
		aesBlock.Encrypt(next, cur)
		cur, next = next, cur
	}
	return cur, nil
}
