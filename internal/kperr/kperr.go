// Package kperr provides the typed error kinds used throughout kpvault.
// Callers use errors.Is / errors.As against the sentinels below.
package kperr

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per error kind in the format's failure taxonomy.
var (
	ErrHeaderInvalid            = errors.New("kdbx header invalid")
	ErrUnsupportedCipher        = errors.New("unsupported block cipher")
	ErrUnsupportedStreamCipher  = errors.New("unsupported protected-value stream cipher")
	ErrBadCredential            = errors.New("bad credential")
	ErrIntegrityFailure         = errors.New("integrity check failure")
	ErrDecompressFailure        = errors.New("gzip decompression failure")
	ErrParseFailure             = errors.New("parse failure")
	ErrKeyFileInvalid           = errors.New("key file invalid")
	ErrEmptyDatabase            = errors.New("database has no groups")
	ErrPrepareFailure           = errors.New("preparation failure")
	ErrIOFailure                = errors.New("i/o failure")
)

// Error wraps a sentinel with operation context, giving Error() a useful
// message while keeping errors.Is/As working via Unwrap.
type Error struct {
	Kind error  // one of the sentinels above
	Op   string // component/step name, e.g. "kdbxheader.Read"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Wrap builds an *Error tying a sentinel kind to the operation that hit it
// and the underlying cause (which may be nil for a standalone failure).
func Wrap(kind error, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err is, or wraps, target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target any) bool { return errors.As(err, target) }
