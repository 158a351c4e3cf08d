// Package gzipcodec decompresses the optional GZIP-compressed payload a
// kdbx v3 container may carry, validating via the standard library's own
// RFC 1952 checks (magic, method, CRC32, ISIZE).
package gzipcodec

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/kpvault/kpvault/internal/kperr"
)

// Decompress gunzips the full buffer in memory. It never panics; any
// malformed-input condition surfaces as kperr.ErrDecompressFailure.
func Decompress(data []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, kperr.Wrap(kperr.ErrDecompressFailure, "gzipcodec.Decompress", nil)
		}
	}()

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, kperr.Wrap(kperr.ErrDecompressFailure, "gzipcodec.Decompress", err)
	}
	defer zr.Close()

	decoded, err := io.ReadAll(zr)
	if err != nil {
		return nil, kperr.Wrap(kperr.ErrDecompressFailure, "gzipcodec.Decompress", err)
	}
	return decoded, nil
}

// Compress gzips data. The container encrypt path never calls this itself
// (it always emits uncompressed payloads); it exists as a round-trip aid
// for this package's own decompression tests.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, kperr.Wrap(kperr.ErrIOFailure, "gzipcodec.Compress", err)
	}
	if err := zw.Close(); err != nil {
		return nil, kperr.Wrap(kperr.ErrIOFailure, "gzipcodec.Compress", err)
	}
	return buf.Bytes(), nil
}
