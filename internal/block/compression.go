// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/driftkv/lsm/internal/base"
	"github.com/klauspost/compress/flate"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the payload compressor recorded in segment
// metadata (not per block): None, Lz4, or Miniz at a deflate level 0-10.
type CompressionType struct {
	Kind  CompressionKind
	Level uint8 // only meaningful for KindMiniz
}

// CompressionKind is the tag byte identifying which compressor produced a
// block's on-disk payload.
type CompressionKind uint8

const (
	KindNone CompressionKind = iota
	KindLz4
	KindMiniz
)

// None is the zero-value, uncompressed CompressionType.
var None = CompressionType{Kind: KindNone}

// Lz4 selects LZ4 block compression.
var Lz4 = CompressionType{Kind: KindLz4}

// Miniz selects deflate compression at the given level (0-10, where 10 is
// mapped onto flate's best-compression level 9 since deflate only defines
// levels 0-9).
func Miniz(level uint8) (CompressionType, error) {
	if level > 10 {
		return CompressionType{}, base.NewKind(base.KindInvalidTag, "miniz level %d out of range [0,10]", level)
	}
	return CompressionType{Kind: KindMiniz, Level: level}, nil
}

// EncodeTag serializes ct as the two-byte [tag, level] pair used in the
// segment metadata's `#compression#data` entry.
func (ct CompressionType) EncodeTag() [2]byte {
	switch ct.Kind {
	case KindNone:
		return [2]byte{0, 0}
	case KindLz4:
		return [2]byte{1, 0}
	case KindMiniz:
		return [2]byte{2, ct.Level}
	default:
		return [2]byte{0, 0}
	}
}

// DecodeCompressionTag parses the two-byte tag written by EncodeTag.
func DecodeCompressionTag(tag [2]byte) (CompressionType, error) {
	switch tag[0] {
	case 0:
		return None, nil
	case 1:
		return Lz4, nil
	case 2:
		if tag[1] > 10 {
			return CompressionType{}, base.NewKind(base.KindInvalidTag, "miniz level %d out of range [0,10]", tag[1])
		}
		return CompressionType{Kind: KindMiniz, Level: tag[1]}, nil
	default:
		return CompressionType{}, base.NewKind(base.KindInvalidTag, "unknown compression tag %d", tag[0])
	}
}

// Compress returns the on-disk payload for src under ct.
func Compress(ct CompressionType, src []byte) ([]byte, error) {
	switch ct.Kind {
	case KindNone:
		return src, nil
	case KindLz4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, base.WithKind(errors.Wrap(err, "lz4 compress"), base.KindIO)
		}
		if err := w.Close(); err != nil {
			return nil, base.WithKind(errors.Wrap(err, "lz4 compress close"), base.KindIO)
		}
		return buf.Bytes(), nil
	case KindMiniz:
		var buf bytes.Buffer
		level := minizFlateLevel(ct.Level)
		w, err := flate.NewWriter(&buf, level)
		if err != nil {
			return nil, base.WithKind(errors.Wrap(err, "miniz compress init"), base.KindIO)
		}
		if _, err := w.Write(src); err != nil {
			return nil, base.WithKind(errors.Wrap(err, "miniz compress"), base.KindIO)
		}
		if err := w.Close(); err != nil {
			return nil, base.WithKind(errors.Wrap(err, "miniz compress close"), base.KindIO)
		}
		return buf.Bytes(), nil
	default:
		return nil, base.NewKind(base.KindInvalidTag, "unknown compression kind %d", ct.Kind)
	}
}

// Decompress inflates src (compressed under ct) into a buffer of exactly
// uncompressedLen bytes, returning a Decompress-kind error on any failure.
func Decompress(ct CompressionType, src []byte, uncompressedLen uint32) ([]byte, error) {
	switch ct.Kind {
	case KindNone:
		if uint32(len(src)) != uncompressedLen {
			return nil, base.NewKind(base.KindDecompress, "uncompressed length mismatch: got %d want %d", len(src), uncompressedLen)
		}
		return src, nil
	case KindLz4:
		r := lz4.NewReader(bytes.NewReader(src))
		out := make([]byte, uncompressedLen)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, base.WithKind(errors.Wrap(err, "lz4 decompress"), base.KindDecompress)
		}
		return out, nil
	case KindMiniz:
		r := flate.NewReader(bytes.NewReader(src))
		defer r.Close()
		out := make([]byte, uncompressedLen)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, base.WithKind(errors.Wrap(err, "miniz decompress"), base.KindDecompress)
		}
		return out, nil
	default:
		return nil, base.NewKind(base.KindInvalidTag, "unknown compression kind %d", ct.Kind)
	}
}

// minizFlateLevel maps the original engine's 0-10 miniz level onto
// flate's 0-9 range (flate has no distinct level 10; it collapses into
// BestCompression).
func minizFlateLevel(level uint8) int {
	if level >= 10 {
		return flate.BestCompression
	}
	return int(level)
}
