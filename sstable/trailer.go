// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/indexblock"
)

// magic identifies a file as a segment produced by this package.
var magic = [3]byte{'L', 'S', 'M'}

// formatVersion is the only trailer version this build understands.
const formatVersion uint16 = 1

// trailerSize is fixed so the trailer can always be located by seeking
// from EOF: magic(3) + version(2) + 4 handles * (offset u64 + size u64).
const trailerSize = 3 + 2 + 4*16

// trailer is the fixed-layout footer at the end of every segment file.
type trailer struct {
	version        uint16
	tli            indexblock.Handle
	partitionedIdx indexblock.Handle // always absent (zero) in this implementation
	filter         indexblock.Handle // zero means "no filter"
	metadata       indexblock.Handle
}

func encodeHandleFixed(buf []byte, h indexblock.Handle) {
	binary.LittleEndian.PutUint64(buf[0:8], h.Offset)
	binary.LittleEndian.PutUint64(buf[8:16], h.Size)
}

func decodeHandleFixed(buf []byte) indexblock.Handle {
	return indexblock.Handle{
		Offset: binary.LittleEndian.Uint64(buf[0:8]),
		Size:   binary.LittleEndian.Uint64(buf[8:16]),
	}
}

func (t trailer) encode() []byte {
	buf := make([]byte, trailerSize)
	copy(buf[0:3], magic[:])
	binary.BigEndian.PutUint16(buf[3:5], t.version)
	encodeHandleFixed(buf[5:21], t.tli)
	encodeHandleFixed(buf[21:37], t.partitionedIdx)
	encodeHandleFixed(buf[37:53], t.filter)
	encodeHandleFixed(buf[53:69], t.metadata)
	return buf
}

func decodeTrailer(buf []byte) (trailer, error) {
	if len(buf) != trailerSize {
		return trailer{}, base.NewKind(base.KindCorrupt, "trailer buffer of %d bytes, want %d", len(buf), trailerSize)
	}
	if buf[0] != magic[0] || buf[1] != magic[1] || buf[2] != magic[2] {
		return trailer{}, base.NewKind(base.KindInvalidMagic, "bad segment magic bytes %v", buf[0:3])
	}
	version := binary.BigEndian.Uint16(buf[3:5])
	if version != formatVersion {
		return trailer{}, base.NewKind(base.KindUnsupportedVersion, "segment format version %d unsupported", version)
	}
	return trailer{
		version:        version,
		tli:            decodeHandleFixed(buf[5:21]),
		partitionedIdx: decodeHandleFixed(buf[21:37]),
		filter:         decodeHandleFixed(buf[37:53]),
		metadata:       decodeHandleFixed(buf[53:69]),
	}, nil
}

func handleAbsent(h indexblock.Handle) bool { return h.Offset == 0 && h.Size == 0 }
