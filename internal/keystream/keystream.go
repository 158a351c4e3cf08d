// Package keystream implements the per-field Salsa20 keystream used to
// recover KeePass "Protected" XML string values. The stream is seeded from
// a 32-byte key (SHA-256 of the header's per-field-protection key) and a
// fixed 8-byte IV; it is monotonic and consumed in document order by the
// protected-XML reader.
package keystream

import (
	"encoding/binary"

	"golang.org/x/crypto/salsa20/salsa"
)

// fixedIV is the hard-coded 8-byte nonce KeePass uses to seed the per-field
// Salsa20 stream; every database uses the same constant here, relying on
// the per-field-protection key (which IS random per database) for security.
var fixedIV = [8]byte{0xE8, 0x30, 0x09, 0x4B, 0x97, 0x20, 0x5D, 0x2A}

// Cipher produces a monotonic Salsa20 keystream. It has no seek; each call
// to NextBytes continues exactly where the previous call left off,
// regardless of how the caller partitions the total byte count.
type Cipher struct {
	key     [32]byte
	counter uint64
	block   [64]byte
	offset  int
}

// New seeds a keystream from a 32-byte key.
func New(key [32]byte) *Cipher {
	return &Cipher{key: key}
}

// NextBytes returns the next n bytes of the keystream.
func (c *Cipher) NextBytes(n int) []byte {
	out := make([]byte, n)
	produced := 0
	for produced < n {
		if c.offset == 0 {
			var in [16]byte
			copy(in[:8], fixedIV[:])
			binary.LittleEndian.PutUint64(in[8:], c.counter)
			var zero [64]byte
			salsa.XORKeyStream(c.block[:], zero[:], &in, &c.key)
			c.counter++
		}
		avail := 64 - c.offset
		take := avail
		if remain := n - produced; take > remain {
			take = remain
		}
		copy(out[produced:produced+take], c.block[c.offset:c.offset+take])
		produced += take
		c.offset += take
		if c.offset == 64 {
			c.offset = 0
		}
	}
	return out
}

// XOR XORs src against the next len(src) keystream bytes and returns the result.
func (c *Cipher) XOR(src []byte) []byte {
	ks := c.NextBytes(len(src))
	out := make([]byte, len(src))
	for i := range src {
		out[i] = src[i] ^ ks[i]
	}
	return out
}
