// Package credential implements the composite-key hash aggregate (C5) and
// key-file recognition (C6) that feed the kdbx key transform.
package credential

import "crypto/sha256"

// Composite is an ordered sequence of 32-byte member hashes. Its Hash is
// SHA-256 of every member concatenated in add order.
type Composite struct {
	members [][32]byte
}

// Add appends a raw 32-byte hash as the next composite-key member.
func (c *Composite) Add(hash [32]byte) {
	c.members = append(c.members, hash)
}

// Hash returns SHA-256(h1 || h2 || ... || hN).
func (c *Composite) Hash() [32]byte {
	h := sha256.New()
	for _, m := range c.members {
		h.Write(m[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// PasswordHash is SHA-256 of the UTF-8 password bytes.
func PasswordHash(password string) [32]byte {
	return sha256.Sum256([]byte(password))
}
