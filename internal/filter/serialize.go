// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package filter

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
	"github.com/driftkv/lsm/internal/base"
)

// filterHeaderSize is the fixed prologue written before a filter's packed
// bit array: kind(u8), m(u64), k(u64), numBlocks(u64).
const filterHeaderSize = 1 + 8 + 8 + 8

// Encode serializes f as a filter block payload: a small fixed header
// followed by the packed bit array.
func (f *Filter) Encode() []byte {
	out := make([]byte, filterHeaderSize)
	out[0] = byte(f.kind)
	binary.LittleEndian.PutUint64(out[1:9], f.m)
	binary.LittleEndian.PutUint64(out[9:17], f.k)
	binary.LittleEndian.PutUint64(out[17:25], f.numBlocks)
	bits, _ := f.bits.MarshalBinary()
	return append(out, bits...)
}

// Decode parses a filter block payload produced by Encode.
func Decode(payload []byte) (*Filter, error) {
	if len(payload) < filterHeaderSize {
		return nil, base.NewKind(base.KindCorrupt, "filter payload of %d bytes too short for header", len(payload))
	}
	kind := filterKind(payload[0])
	if kind != kindStandard && kind != kindBlocked {
		return nil, base.NewKind(base.KindInvalidTag, "unknown filter kind tag %d", payload[0])
	}
	m := binary.LittleEndian.Uint64(payload[1:9])
	k := binary.LittleEndian.Uint64(payload[9:17])
	numBlocks := binary.LittleEndian.Uint64(payload[17:25])
	bits := new(bitset.BitSet)
	if err := bits.UnmarshalBinary(payload[filterHeaderSize:]); err != nil {
		return nil, base.WithKind(err, base.KindCorrupt)
	}
	return &Filter{bits: bits, m: m, k: k, numBlocks: numBlocks, kind: kind}, nil
}
