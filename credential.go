package kpvault

import (
	"unicode/utf8"

	"github.com/kpvault/kpvault/internal/credential"
)

// CredentialKind is the sealed set of ways a composite key can be built.
type CredentialKind int

const (
	KindPassword CredentialKind = iota
	KindFile
	KindComposite
)

// Credential names how to derive the composite hash fed to the key
// transform: from a password alone, a key file alone, or both combined in
// that order.
type Credential struct {
	Kind         CredentialKind
	Password     string
	KeyFileBytes []byte
}

// NewPasswordCredential builds a password-only credential.
func NewPasswordCredential(password string) Credential {
	return Credential{Kind: KindPassword, Password: password}
}

// NewFileCredential builds a key-file-only credential.
func NewFileCredential(keyFileBytes []byte) Credential {
	return Credential{Kind: KindFile, KeyFileBytes: keyFileBytes}
}

// NewCompositeCredential builds a password-and-key-file credential.
func NewCompositeCredential(password string, keyFileBytes []byte) Credential {
	return Credential{Kind: KindComposite, Password: password, KeyFileBytes: keyFileBytes}
}

// Hash computes the 32-byte composite credential hash.
func (c Credential) Hash() ([32]byte, error) {
	var comp credential.Composite
	switch c.Kind {
	case KindPassword:
		comp.Add(credential.PasswordHash(c.Password))
	case KindFile:
		kh, err := credential.ParseKeyFile(c.KeyFileBytes)
		if err != nil {
			return [32]byte{}, err
		}
		comp.Add(kh)
	case KindComposite:
		comp.Add(credential.PasswordHash(c.Password))
		kh, err := credential.ParseKeyFile(c.KeyFileBytes)
		if err != nil {
			return [32]byte{}, err
		}
		comp.Add(kh)
	}
	return comp.Hash(), nil
}

// CachePasswordFromPassword derives a convenience cache-envelope password
// from a primary database password: its first len/2 characters, or the
// full string if shorter than 4.
func CachePasswordFromPassword(password string) string {
	count := utf8.RuneCountInString(password)
	if count < 4 {
		return password
	}
	seen := 0
	for i := range password {
		if seen == count/2 {
			return password[:i]
		}
		seen++
	}
	return password
}
