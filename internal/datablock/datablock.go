// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package datablock implements the data block: a restart-interval-coded
// run of sorted InternalValue entries, specialized on top of
// internal/block's shared key codec.
package datablock

import (
	"bytes"
	"encoding/binary"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/block"
)

// Writer accumulates sorted InternalValue entries into one data block
// payload.
type Writer struct {
	rw *block.RestartWriter
}

// NewWriter creates a data block writer using the given restart interval.
func NewWriter(restartInterval int) *Writer {
	return &Writer{rw: block.NewRestartWriter(restartInterval)}
}

// Add appends one entry. Entries must be added in ascending
// (key, seqno-descending) order.
func (w *Writer) Add(v base.InternalValue) {
	payload := encodeTail(v)
	w.rw.Add(v.Key, payload)
}

// Len returns the number of entries added so far.
func (w *Writer) Len() int { return w.rw.Len() }

// EstimatedSize returns the current entries buffer size, for callers
// deciding when to flush the block.
func (w *Writer) EstimatedSize() int { return w.rw.EstimatedSize() }

// Finish returns the completed block payload, ready to be passed to
// block.WriteTo. The writer must not be reused afterwards.
func (w *Writer) Finish() []byte { return w.rw.Finish() }

func encodeTail(v base.InternalValue) []byte {
	var tmp [binary.MaxVarintLen64]byte
	out := make([]byte, 0, 1+binary.MaxVarintLen64+binary.MaxVarintLen64+len(v.Value))
	out = append(out, byte(v.Type))
	n := binary.PutUvarint(tmp[:], uint64(v.SeqNo))
	out = append(out, tmp[:n]...)
	n = binary.PutUvarint(tmp[:], uint64(len(v.Value)))
	out = append(out, tmp[:n]...)
	out = append(out, v.Value...)
	return out
}

func decodeTail(key, tail []byte) (base.InternalValue, error) {
	if len(tail) < 1 {
		return base.InternalValue{}, base.NewKind(base.KindCorrupt, "data block entry tail too short")
	}
	typ := base.ValueType(tail[0])
	rest := tail[1:]
	seq, n1 := binary.Uvarint(rest)
	if n1 <= 0 {
		return base.InternalValue{}, base.NewKind(base.KindCorrupt, "data block entry seqno varint invalid")
	}
	rest = rest[n1:]
	vlen, n2 := binary.Uvarint(rest)
	if n2 <= 0 {
		return base.InternalValue{}, base.NewKind(base.KindCorrupt, "data block entry value-length varint invalid")
	}
	rest = rest[n2:]
	if uint64(len(rest)) < vlen {
		return base.InternalValue{}, base.NewKind(base.KindCorrupt, "data block entry value truncated")
	}
	return base.InternalValue{
		Key:   key,
		SeqNo: base.SeqNo(seq),
		Type:  typ,
		Value: rest[:vlen],
	}, nil
}

// Block provides read access to a decoded data block payload.
type Block struct {
	rr *block.RestartReader
}

// NewBlock parses payload (already decompressed and checksum-verified)
// into a readable Block.
func NewBlock(payload []byte) (*Block, error) {
	rr, err := block.NewRestartReader(payload)
	if err != nil {
		return nil, err
	}
	return &Block{rr: rr}, nil
}

// PointRead returns the first entry whose user key equals key and, if
// seqno is non-nil, whose sequence number is strictly less than *seqno
// (the snapshot read rule). If the first matching entry is a tombstone it
// is still returned; the caller treats tombstones as absence.
func (b *Block) PointRead(key []byte, seqno *base.SeqNo) (base.InternalValue, bool, error) {
	// Start at the last interval whose head sorts strictly before key, so
	// newer versions of key at the end of that interval are not skipped
	// when an older version of key heads the next interval.
	idx := b.rr.SeekRestart(key, func(head, needle []byte) int {
		if bytes.Compare(head, needle) < 0 {
			return -1
		}
		return 1
	})
	var found base.InternalValue
	var ok bool
	var decodeErr error
	b.rr.Iterate(idx, bytes.Compare, func(e block.Entry) bool {
		c := bytes.Compare(e.Key, key)
		if c < 0 {
			return true
		}
		if c > 0 {
			return false
		}
		v, err := decodeTail(e.Key, e.Payload)
		if err != nil {
			decodeErr = err
			return false
		}
		if seqno != nil && v.SeqNo >= *seqno {
			return true
		}
		found = v
		ok = true
		return false
	})
	if decodeErr != nil {
		return base.InternalValue{}, false, decodeErr
	}
	return found, ok, nil
}

// All decodes every entry in the block, in order; used by full scans and
// tests.
func (b *Block) All() ([]base.InternalValue, error) {
	entries := b.rr.All()
	out := make([]base.InternalValue, 0, len(entries))
	for _, e := range entries {
		v, err := decodeTail(e.Key, e.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ItemCount returns the number of entries in the block.
func (b *Block) ItemCount() int { return b.rr.ItemCount() }
