// Package kdbxheader implements the bit-exact kdbx v3 header: fixed magic,
// a little-endian version word, and a sequence of TLV records terminated
// by an ID-0 record. The header's own digest is SHA-256 of every byte from
// the first magic byte through the final byte of the terminator.
package kdbxheader

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/kpvault/kpvault/internal/kperr"
)

var magic1 = [4]byte{0x03, 0xD9, 0xA2, 0x9A}
var magic2 = [4]byte{0x67, 0xFB, 0x4B, 0xB5}

// aesCipherOID is the well-known KeePass AES/Rijndael cipher UUID
// (31C1F2E6-BF71-4350-BE58-05216AFC5AFF), the only cipher sentinel this
// reader accepts.
var aesCipherOID = [16]byte{
	0x31, 0xC1, 0xF2, 0xE6, 0xBF, 0x71, 0x43, 0x50,
	0xBE, 0x58, 0x05, 0x21, 0x6A, 0xFC, 0x5A, 0xFF,
}

const (
	CompressionNone = 0
	CompressionGzip = 1
)

const (
	StreamNone   = 0
	StreamRC4    = 1
	StreamSalsa20 = 2
)

const (
	idEnd              = 0
	idComment          = 1
	idCipherID         = 2
	idCompression      = 3
	idMasterSeed       = 4
	idTransformSeed    = 5
	idRounds           = 6
	idEncryptionIV     = 7
	idProtectionKey    = 8
	idStartBytes       = 9
	idStreamStartCheck = idStartBytes // legacy alias, same field
	idStreamTag        = 10
)

// Header holds the parsed (or to-be-serialized) fields of a kdbx v3 header.
type Header struct {
	Version        uint32
	CipherOID      [16]byte
	Compression    uint32
	MasterSeed     [32]byte
	TransformSeed  [32]byte
	Rounds         uint64
	IV             [16]byte
	ProtectionKey  [32]byte
	StartBytes     [32]byte
	StreamTag      uint32

	raw []byte // exact bytes consumed/produced; basis of HeaderHash
}

// HeaderHash returns SHA-256 of the header's own exact byte representation.
func (h *Header) HeaderHash() [32]byte {
	return sha256.Sum256(h.raw)
}

// Raw returns the exact header bytes, for embedding before the payload.
func (h *Header) Raw() []byte {
	return h.raw
}

// Check validates that the header is structurally complete: every
// mandatory field was present (Read has already rejected any field whose
// byte length is wrong for its ID), the version's major component is
// supported, the cipher is the AES sentinel,
// and the stream tag is a value this reader knows how to handle.
func (h *Header) Check(present map[byte]bool) error {
	if major := h.Version >> 16; major > 3 {
		return kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Check", nil)
	}
	required := []byte{idCipherID, idCompression, idMasterSeed, idTransformSeed, idRounds, idEncryptionIV, idProtectionKey, idStartBytes, idStreamTag}
	for _, id := range required {
		if !present[id] {
			return kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Check", nil)
		}
	}
	if h.CipherOID != aesCipherOID {
		return kperr.Wrap(kperr.ErrUnsupportedCipher, "kdbxheader.Check", nil)
	}
	if h.Compression != CompressionNone && h.Compression != CompressionGzip {
		return kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Check", nil)
	}
	if h.StreamTag == StreamRC4 {
		return kperr.Wrap(kperr.ErrUnsupportedStreamCipher, "kdbxheader.Check", nil)
	}
	if h.StreamTag != StreamNone && h.StreamTag != StreamSalsa20 {
		return kperr.Wrap(kperr.ErrUnsupportedStreamCipher, "kdbxheader.Check", nil)
	}
	return nil
}

// Read parses a header from r, validating structure via Check.
func Read(r io.Reader) (*Header, error) {
	var buf bytes.Buffer
	tee := io.TeeReader(r, &buf)

	var m1, m2 [4]byte
	if _, err := io.ReadFull(tee, m1[:]); err != nil {
		return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", err)
	}
	if m1 != magic1 {
		return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
	}
	if _, err := io.ReadFull(tee, m2[:]); err != nil {
		return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", err)
	}
	if m2 != magic2 {
		return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
	}

	var verBuf [4]byte
	if _, err := io.ReadFull(tee, verBuf[:]); err != nil {
		return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", err)
	}
	h := &Header{Version: binary.LittleEndian.Uint32(verBuf[:])}

	present := map[byte]bool{}
	for {
		var idBuf [1]byte
		if _, err := io.ReadFull(tee, idBuf[:]); err != nil {
			return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", err)
		}
		id := idBuf[0]

		var lenBuf [2]byte
		if _, err := io.ReadFull(tee, lenBuf[:]); err != nil {
			return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", err)
		}
		length := binary.LittleEndian.Uint16(lenBuf[:])

		value := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(tee, value); err != nil {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", err)
			}
		}

		if id == idEnd {
			break
		}
		present[id] = true

		switch id {
		case idCipherID:
			if len(value) != 16 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			copy(h.CipherOID[:], value)
		case idCompression:
			if len(value) != 4 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			h.Compression = binary.LittleEndian.Uint32(value)
		case idMasterSeed:
			if len(value) != 32 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			copy(h.MasterSeed[:], value)
		case idTransformSeed:
			if len(value) != 32 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			copy(h.TransformSeed[:], value)
		case idRounds:
			if len(value) != 8 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			h.Rounds = binary.LittleEndian.Uint64(value)
		case idEncryptionIV:
			if len(value) != 16 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			copy(h.IV[:], value)
		case idProtectionKey:
			if len(value) != 32 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			copy(h.ProtectionKey[:], value)
		case idStartBytes:
			if len(value) != 32 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			copy(h.StartBytes[:], value)
		case idStreamTag:
			if len(value) != 4 {
				return nil, kperr.Wrap(kperr.ErrHeaderInvalid, "kdbxheader.Read", nil)
			}
			h.StreamTag = binary.LittleEndian.Uint32(value)
		case idComment:
			// ignored
		}
	}

	h.raw = buf.Bytes()
	if err := h.Check(present); err != nil {
		return nil, err
	}
	return h, nil
}

// Write serializes h to w in TLV form, terminated by an ID-0 zero-length
// record, and records the exact bytes produced as h.Raw()/h.HeaderHash().
func Write(w io.Writer, h *Header) error {
	var buf bytes.Buffer
	buf.Write(magic1[:])
	buf.Write(magic2[:])

	var verBuf [4]byte
	binary.LittleEndian.PutUint32(verBuf[:], h.Version)
	buf.Write(verBuf[:])

	writeRecord(&buf, idCipherID, h.CipherOID[:])
	var compBuf [4]byte
	binary.LittleEndian.PutUint32(compBuf[:], h.Compression)
	writeRecord(&buf, idCompression, compBuf[:])
	writeRecord(&buf, idMasterSeed, h.MasterSeed[:])
	writeRecord(&buf, idTransformSeed, h.TransformSeed[:])
	var roundsBuf [8]byte
	binary.LittleEndian.PutUint64(roundsBuf[:], h.Rounds)
	writeRecord(&buf, idRounds, roundsBuf[:])
	writeRecord(&buf, idEncryptionIV, h.IV[:])
	writeRecord(&buf, idProtectionKey, h.ProtectionKey[:])
	writeRecord(&buf, idStartBytes, h.StartBytes[:])
	var streamBuf [4]byte
	binary.LittleEndian.PutUint32(streamBuf[:], h.StreamTag)
	writeRecord(&buf, idStreamTag, streamBuf[:])
	writeRecord(&buf, idEnd, nil)

	h.raw = buf.Bytes()
	if _, err := w.Write(h.raw); err != nil {
		return kperr.Wrap(kperr.ErrIOFailure, "kdbxheader.Write", err)
	}
	return nil
}

func writeRecord(buf *bytes.Buffer, id byte, value []byte) {
	buf.WriteByte(id)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(value)))
	buf.Write(lenBuf[:])
	buf.Write(value)
}

// NewAESHeader returns a Header prefilled with the AES cipher sentinel and
// the given version, ready to have random fields populated before Write.
func NewAESHeader(version uint32) *Header {
	return &Header{Version: version, CipherOID: aesCipherOID}
}
