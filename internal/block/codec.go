// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/driftkv/lsm/internal/base"
	"github.com/zeebo/xxh3"
)

// Checksum64 returns the xxh3 64-bit checksum of payload, the hash used
// for every block's integrity check.
func Checksum64(payload []byte) uint64 {
	return xxh3.Hash(payload)
}

// WriteTo compresses payload under ct, computes its checksum, and writes
// [Header][compressed payload] to w. It returns the total number of bytes
// written, for offset bookkeeping by the caller.
func WriteTo(w io.Writer, payload []byte, ct CompressionType, previousBlockOffset uint64) (int64, error) {
	compressed, err := Compress(ct, payload)
	if err != nil {
		return 0, err
	}
	h := Header{
		Checksum:            Checksum64(payload),
		CompressedLen:       uint32(len(compressed)),
		UncompressedLen:     uint32(len(payload)),
		PreviousBlockOffset: previousBlockOffset,
	}
	hdr := make([]byte, HeaderSize)
	h.Encode(hdr)
	n1, err := w.Write(hdr)
	if err != nil {
		return 0, base.WithKind(errors.Wrap(err, "write block header"), base.KindIO)
	}
	n2, err := w.Write(compressed)
	if err != nil {
		return 0, base.WithKind(errors.Wrap(err, "write block payload"), base.KindIO)
	}
	return int64(n1 + n2), nil
}

// Decoded is a block read back from disk: its header and decompressed
// payload, verified against the stored checksum.
type Decoded struct {
	Header  Header
	Payload []byte
}

// ReadFrom reads one [Header][payload] block from r, decompressing and
// verifying it against ct.
func ReadFrom(r io.Reader, ct CompressionType) (Decoded, error) {
	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return Decoded{}, base.WithKind(errors.Wrap(err, "read block header"), base.KindIO)
	}
	h := DecodeHeader(hdr)
	compressed := make([]byte, h.CompressedLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return Decoded{}, base.WithKind(errors.Wrap(err, "read block payload"), base.KindIO)
	}
	return decode(h, compressed, ct)
}

// ReadAt decodes one block whose [Header][payload] bytes begin at offset
// within src (a full file or segment image already in memory, or backed
// by a ReaderAt via ReadAtFile).
func ReadAt(src []byte, offset uint64, ct CompressionType) (Decoded, error) {
	if offset+HeaderSize > uint64(len(src)) {
		return Decoded{}, base.NewKind(base.KindIO, "block header at offset %d exceeds buffer of length %d", offset, len(src))
	}
	h := DecodeHeader(src[offset : offset+HeaderSize])
	start := offset + HeaderSize
	end := start + uint64(h.CompressedLen)
	if end > uint64(len(src)) {
		return Decoded{}, base.NewKind(base.KindIO, "block payload at offset %d exceeds buffer of length %d", start, len(src))
	}
	return decode(h, src[start:end], ct)
}

// ReadAtFile decodes one block beginning at offset within f, a
// positional-read file handle, mirroring the original's pread-based
// recovery path.
func ReadAtFile(f io.ReaderAt, offset int64, ct CompressionType) (Decoded, error) {
	hdr := make([]byte, HeaderSize)
	if _, err := f.ReadAt(hdr, offset); err != nil {
		return Decoded{}, base.WithKind(errors.Wrap(err, "pread block header"), base.KindIO)
	}
	h := DecodeHeader(hdr)
	compressed := make([]byte, h.CompressedLen)
	if _, err := f.ReadAt(compressed, offset+HeaderSize); err != nil {
		return Decoded{}, base.WithKind(errors.Wrap(err, "pread block payload"), base.KindIO)
	}
	return decode(h, compressed, ct)
}

func decode(h Header, compressed []byte, ct CompressionType) (Decoded, error) {
	payload, err := Decompress(ct, compressed, h.UncompressedLen)
	if err != nil {
		return Decoded{}, err
	}
	if Checksum64(payload) != h.Checksum {
		return Decoded{}, base.NewKind(base.KindChecksum, "block checksum mismatch: got %d want %d", Checksum64(payload), h.Checksum)
	}
	return Decoded{Header: h, Payload: payload}, nil
}
