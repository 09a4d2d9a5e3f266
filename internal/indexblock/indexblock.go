// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package indexblock implements the index block and, by reuse of the
// same type, the top-level index: a restart-interval-coded run of
// KeyedBlockHandle entries sorted by end_key.
package indexblock

import (
	"bytes"
	"encoding/binary"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/block"
)

// Handle locates a block within the segment's blocks region.
type Handle struct {
	Offset uint64
	Size   uint64
}

// KeyedBlockHandle is one entry of an index block: the handle to a block,
// keyed by that block's last (largest) key.
type KeyedBlockHandle struct {
	EndKey base.UserKey
	Handle Handle
}

func encodeHandle(h Handle) []byte {
	var tmp [binary.MaxVarintLen64]byte
	out := make([]byte, 0, 2*binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp[:], h.Offset)
	out = append(out, tmp[:n]...)
	n = binary.PutUvarint(tmp[:], h.Size)
	out = append(out, tmp[:n]...)
	return out
}

func decodeHandle(buf []byte) (Handle, error) {
	offset, n1 := binary.Uvarint(buf)
	if n1 <= 0 {
		return Handle{}, base.NewKind(base.KindCorrupt, "index entry offset varint invalid")
	}
	size, n2 := binary.Uvarint(buf[n1:])
	if n2 <= 0 {
		return Handle{}, base.NewKind(base.KindCorrupt, "index entry size varint invalid")
	}
	return Handle{Offset: offset, Size: size}, nil
}

// Writer accumulates KeyedBlockHandle entries, sorted by end_key, into
// one index block payload.
type Writer struct {
	rw *block.RestartWriter
}

// NewWriter creates an index block writer using the given restart
// interval.
func NewWriter(restartInterval int) *Writer {
	return &Writer{rw: block.NewRestartWriter(restartInterval)}
}

// Add appends one entry. Entries must be added in ascending end_key
// order.
func (w *Writer) Add(h KeyedBlockHandle) {
	w.rw.Add(h.EndKey, encodeHandle(h.Handle))
}

// Len returns the number of entries added so far.
func (w *Writer) Len() int { return w.rw.Len() }

// EstimatedSize returns the current entries buffer size.
func (w *Writer) EstimatedSize() int { return w.rw.EstimatedSize() }

// Finish returns the completed block payload.
func (w *Writer) Finish() []byte { return w.rw.Finish() }

// Block provides read access to a decoded index block (or top-level
// index) payload.
type Block struct {
	rr *block.RestartReader
}

// NewBlock parses payload into a readable Block.
func NewBlock(payload []byte) (*Block, error) {
	rr, err := block.NewRestartReader(payload)
	if err != nil {
		return nil, err
	}
	return &Block{rr: rr}, nil
}

// ItemCount returns the number of entries in the block.
func (b *Block) ItemCount() int { return b.rr.ItemCount() }

// All decodes every entry, in ascending end_key order.
func (b *Block) All() ([]KeyedBlockHandle, error) {
	entries := b.rr.All()
	out := make([]KeyedBlockHandle, 0, len(entries))
	for _, e := range entries {
		h, err := decodeHandle(e.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, KeyedBlockHandle{EndKey: e.Key, Handle: h})
	}
	return out, nil
}

// GetLowestPossibleBlock returns the smallest handle whose end_key >=
// needle. If needle sorts after every end_key in the block, ok is false.
func (b *Block) GetLowestPossibleBlock(needle []byte) (KeyedBlockHandle, bool, error) {
	// Start at the last interval whose head sorts strictly before needle,
	// so earlier handles with an end_key equal to needle are not skipped.
	idx := b.rr.SeekRestart(needle, func(head, n []byte) int {
		if bytes.Compare(head, n) < 0 {
			return -1
		}
		return 1
	})
	var found KeyedBlockHandle
	var ok bool
	var decodeErr error
	b.rr.Iterate(idx, bytes.Compare, func(e block.Entry) bool {
		if bytes.Compare(e.Key, needle) < 0 {
			return true
		}
		h, err := decodeHandle(e.Payload)
		if err != nil {
			decodeErr = err
			return false
		}
		found = KeyedBlockHandle{EndKey: e.Key, Handle: h}
		ok = true
		return false
	})
	if decodeErr != nil {
		return KeyedBlockHandle{}, false, decodeErr
	}
	return found, ok, nil
}

// GetHighestPossibleBlock returns the largest handle whose end_key >=
// needle and whose predecessor's end_key < needle — i.e. the same handle
// GetLowestPossibleBlock would return, since end_keys are ascending and a
// handle whose predecessor sorts below needle is the first one at or
// above it; exposed separately because reverse
// iteration starts its walk from this handle rather than forward from
// the first interval.
func (b *Block) GetHighestPossibleBlock(needle []byte) (KeyedBlockHandle, bool, error) {
	return b.GetLowestPossibleBlock(needle)
}
