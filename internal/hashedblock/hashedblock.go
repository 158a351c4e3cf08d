// Package hashedblock implements the hashed-block framing used inside a
// kdbx container's encrypted payload: a sequence of (index, SHA-256 digest,
// length, payload) records terminated by a zero-length record, each block
// individually authenticated.
package hashedblock

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/kpvault/kpvault/internal/kperr"
	"github.com/kpvault/kpvault/internal/kplog"
)

// BlockSize is the fixed payload size the writer chunks data into.
const BlockSize = 1 << 20

// Reader consumes a hashed-block stream.
type Reader struct {
	src       io.Reader
	strict    bool
	corrupted bool
}

// NewReader wraps src. In strict mode (the default), the first digest or
// index mismatch aborts the read; in permissive mode it is recorded via
// IsCorrupted and reading continues, for diagnostic use only.
func NewReader(src io.Reader, strict bool) *Reader {
	return &Reader{src: src, strict: strict}
}

// IsCorrupted reports whether any block failed its integrity check.
// Meaningful after ReadAll returns, including after a permissive-mode read
// that did not return an error.
func (r *Reader) IsCorrupted() bool {
	return r.corrupted
}

// ReadAll reads every record up to and including the zero-length
// terminator and returns the concatenated payload bytes.
func (r *Reader) ReadAll() ([]byte, error) {
	var out bytes.Buffer
	var expectedIndex uint32

	for {
		var idxBuf [4]byte
		if _, err := io.ReadFull(r.src, idxBuf[:]); err != nil {
			return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "hashedblock.ReadAll", err)
		}
		index := binary.LittleEndian.Uint32(idxBuf[:])

		var digest [32]byte
		if _, err := io.ReadFull(r.src, digest[:]); err != nil {
			return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "hashedblock.ReadAll", err)
		}

		var lenBuf [4]byte
		if _, err := io.ReadFull(r.src, lenBuf[:]); err != nil {
			return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "hashedblock.ReadAll", err)
		}
		length := binary.LittleEndian.Uint32(lenBuf[:])
		if length == 0 {
			break
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(r.src, payload); err != nil {
			return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "hashedblock.ReadAll", err)
		}

		sum := sha256.Sum256(payload) // digest into the live hash every record, never skipped
		mismatch := index != expectedIndex || !bytes.Equal(sum[:], digest[:])
		if mismatch {
			r.corrupted = true
			if r.strict {
				return nil, kperr.Wrap(kperr.ErrIntegrityFailure, "hashedblock.ReadAll", nil)
			}
			kplog.Warn("hashed block failed integrity check, continuing in permissive mode",
				kplog.Int("index", int(index)), kplog.Int("expected_index", int(expectedIndex)))
		}

		out.Write(payload)
		expectedIndex++
	}

	return out.Bytes(), nil
}

// Writer emits a hashed-block stream in fixed BlockSize chunks.
type Writer struct {
	dst io.Writer
}

// NewWriter wraps dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst}
}

// WriteAll chunks data into BlockSize records and appends the terminator.
func (w *Writer) WriteAll(data []byte) error {
	var index uint32
	for offset := 0; offset < len(data); offset += BlockSize {
		end := offset + BlockSize
		if end > len(data) {
			end = len(data)
		}
		if err := w.writeRecord(index, data[offset:end]); err != nil {
			return err
		}
		index++
	}
	return w.writeRecord(index, nil)
}

func (w *Writer) writeRecord(index uint32, payload []byte) error {
	var idxBuf [4]byte
	binary.LittleEndian.PutUint32(idxBuf[:], index)
	if _, err := w.dst.Write(idxBuf[:]); err != nil {
		return kperr.Wrap(kperr.ErrIOFailure, "hashedblock.writeRecord", err)
	}

	var digest [32]byte
	if len(payload) > 0 {
		digest = sha256.Sum256(payload)
	}
	if _, err := w.dst.Write(digest[:]); err != nil {
		return kperr.Wrap(kperr.ErrIOFailure, "hashedblock.writeRecord", err)
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.dst.Write(lenBuf[:]); err != nil {
		return kperr.Wrap(kperr.ErrIOFailure, "hashedblock.writeRecord", err)
	}

	if len(payload) > 0 {
		if _, err := w.dst.Write(payload); err != nil {
			return kperr.Wrap(kperr.ErrIOFailure, "hashedblock.writeRecord", err)
		}
	}
	return nil
}
