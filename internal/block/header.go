// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package block implements the on-disk block codec shared by data blocks,
// index blocks, and the top-level index: a fixed header (checksum,
// lengths, previous-block offset) in front of an optionally-compressed
// payload, plus a restart-interval key encoder/decoder reused by every
// layer that stores sorted key-prefixed entries.
package block

import "encoding/binary"

// HeaderSize is the fixed, unversioned prologue written before every
// block's (possibly compressed) payload.
const HeaderSize = 8 + 4 + 4 + 8

// Header is the fixed-size prologue stored immediately before a block's
// payload on disk.
type Header struct {
	// Checksum is the xxh3_64 checksum of the uncompressed payload.
	Checksum uint64
	// CompressedLen is the length in bytes of the payload as stored on
	// disk (after compression, if any).
	CompressedLen uint32
	// UncompressedLen is the length in bytes of the payload once
	// decompressed.
	UncompressedLen uint32
	// PreviousBlockOffset lets a reader walk a chain of blocks backwards
	// without consulting an index, mirroring the teacher's block-level
	// bookkeeping.
	PreviousBlockOffset uint64
}

// Encode writes h into buf, which must be at least HeaderSize bytes.
func (h Header) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], h.Checksum)
	binary.LittleEndian.PutUint32(buf[8:12], h.CompressedLen)
	binary.LittleEndian.PutUint32(buf[12:16], h.UncompressedLen)
	binary.LittleEndian.PutUint64(buf[16:24], h.PreviousBlockOffset)
}

// DecodeHeader reads a Header from the front of buf, which must be at
// least HeaderSize bytes.
func DecodeHeader(buf []byte) Header {
	return Header{
		Checksum:            binary.LittleEndian.Uint64(buf[0:8]),
		CompressedLen:       binary.LittleEndian.Uint32(buf[8:12]),
		UncompressedLen:     binary.LittleEndian.Uint32(buf[12:16]),
		PreviousBlockOffset: binary.LittleEndian.Uint64(buf[16:24]),
	}
}
