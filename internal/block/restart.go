// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"encoding/binary"

	"github.com/driftkv/lsm/internal/base"
)

// DefaultRestartInterval is the number of entries between full-key
// "restart points" in a data or index block.
const DefaultRestartInterval = 16

// trailerSize is the fixed-layout footer appended after the binary index:
// item_count(u32) restart_interval(u8) binary_index_step_size(u8)
// binary_index_offset(u32) binary_index_len(u32). A hash-index length
// slot is always zero in this implementation (no hash index is built),
// so it is omitted rather than written as a perpetual zero.
const trailerSize = 4 + 1 + 1 + 4 + 4

// RestartWriter accumulates sorted (key, payload) entries into a block
// payload using shared-prefix compression within each restart interval,
// followed by a binary-searchable index of interval heads.
//
// RestartWriter is used identically by data blocks (payload = encoded
// InternalValue tail) and index blocks (payload = encoded BlockHandle),
// which is why the payload itself is opaque here.
type RestartWriter struct {
	interval int
	buf      []byte
	restarts []uint32 // byte offsets into buf of each interval head
	lastKey  []byte
	count    int
}

// NewRestartWriter creates a writer using the given restart interval (the
// number of entries, including the head, per interval).
func NewRestartWriter(interval int) *RestartWriter {
	if interval <= 0 {
		interval = DefaultRestartInterval
	}
	return &RestartWriter{interval: interval}
}

// Add appends one (key, payload) entry. The first entry of each interval
// stores its full key; every later entry is prefix-compressed against the
// key of the entry immediately before it, not against the interval's
// first key.
func (w *RestartWriter) Add(key, payload []byte) {
	isRestart := w.count%w.interval == 0
	var shared int
	if !isRestart {
		shared = sharedPrefixLen(w.lastKey, key)
	}
	if isRestart {
		w.restarts = append(w.restarts, uint32(len(w.buf)))
	}
	unshared := key[shared:]

	var tmp [binary.MaxVarintLen64]byte
	w.buf = appendVarint(w.buf, tmp[:], uint64(shared))
	w.buf = appendVarint(w.buf, tmp[:], uint64(len(unshared)))
	w.buf = appendVarint(w.buf, tmp[:], uint64(len(payload)))
	w.buf = append(w.buf, unshared...)
	w.buf = append(w.buf, payload...)

	w.lastKey = append(w.lastKey[:0], key...)
	w.count++
}

// Len returns the number of entries added so far.
func (w *RestartWriter) Len() int { return w.count }

// EstimatedSize returns the current entries buffer size, not including
// the as-yet-unwritten binary index and trailer; used by callers deciding
// when to flush a block.
func (w *RestartWriter) EstimatedSize() int { return len(w.buf) }

// Finish appends the binary index and trailer to the entries buffer and
// returns the complete block payload. The writer must not be reused
// afterwards.
func (w *RestartWriter) Finish() []byte {
	indexOffset := uint32(len(w.buf))
	stepSize := indexStepSize(len(w.buf))
	for _, off := range w.restarts {
		if stepSize == 2 {
			w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(off))
		} else {
			w.buf = binary.LittleEndian.AppendUint32(w.buf, off)
		}
	}
	indexLen := uint32(len(w.buf)) - indexOffset

	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(w.count))
	w.buf = append(w.buf, byte(w.interval))
	w.buf = append(w.buf, stepSize)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, indexOffset)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, indexLen)
	return w.buf
}

// indexStepSize returns the binary index entry width: 2 bytes for blocks
// that fit in a uint16 offset space, 4 bytes otherwise.
func indexStepSize(blockLen int) byte {
	if blockLen <= 65535 {
		return 2
	}
	return 4
}

func sharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func appendVarint(buf, scratch []byte, v uint64) []byte {
	n := binary.PutUvarint(scratch, v)
	return append(buf, scratch[:n]...)
}

// Entry is one decoded (key, payload) pair from a RestartReader.
type Entry struct {
	Key     []byte
	Payload []byte
}

// RestartReader provides binary-search lookup and linear iteration over a
// block payload produced by RestartWriter.
type RestartReader struct {
	payload      []byte
	itemCount    uint32
	interval     uint8
	stepSize     uint8
	indexOffset  uint32
	indexLen     uint32
}

// NewRestartReader parses the trailer of payload and returns a reader over
// it. It does not copy payload.
func NewRestartReader(payload []byte) (*RestartReader, error) {
	if len(payload) < trailerSize {
		return nil, base.NewKind(base.KindCorrupt, "block payload of %d bytes too short for trailer", len(payload))
	}
	t := payload[len(payload)-trailerSize:]
	itemCount := binary.LittleEndian.Uint32(t[0:4])
	interval := t[4]
	stepSize := t[5]
	indexOffset := binary.LittleEndian.Uint32(t[6:10])
	indexLen := binary.LittleEndian.Uint32(t[10:14])
	if stepSize != 2 && stepSize != 4 {
		return nil, base.NewKind(base.KindCorrupt, "invalid binary index step size %d", stepSize)
	}
	return &RestartReader{
		payload:     payload,
		itemCount:   itemCount,
		interval:    interval,
		stepSize:    stepSize,
		indexOffset: indexOffset,
		indexLen:    indexLen,
	}, nil
}

// NumRestarts returns the number of restart points (interval heads) in
// the block.
func (r *RestartReader) NumRestarts() int {
	if r.stepSize == 0 {
		return 0
	}
	return int(r.indexLen) / int(r.stepSize)
}

// restartOffset returns the byte offset into the entries region of the
// i'th restart point.
func (r *RestartReader) restartOffset(i int) uint32 {
	off := r.indexOffset + uint32(i)*uint32(r.stepSize)
	if r.stepSize == 2 {
		return uint32(binary.LittleEndian.Uint16(r.payload[off : off+2]))
	}
	return binary.LittleEndian.Uint32(r.payload[off : off+4])
}

// decodeAt decodes a single entry beginning at byte offset off, given the
// base key it is relative to (nil/empty for a restart point). It returns
// the entry, the offset immediately following it, and the base key to use
// for the next entry in the same interval.
func (r *RestartReader) decodeAt(off uint32, baseKey []byte) (Entry, uint32, []byte) {
	buf := r.payload
	shared, n1 := binary.Uvarint(buf[off:])
	unsharedLen, n2 := binary.Uvarint(buf[off+uint32(n1):])
	payloadLen, n3 := binary.Uvarint(buf[off+uint32(n1+n2):])
	head := off + uint32(n1+n2+n3)
	unshared := buf[head : head+uint32(unsharedLen)]
	payloadStart := head + uint32(unsharedLen)
	payload := buf[payloadStart : payloadStart+uint32(payloadLen)]

	key := make([]byte, 0, int(shared)+len(unshared))
	if shared > 0 {
		key = append(key, baseKey[:shared]...)
	}
	key = append(key, unshared...)

	next := payloadStart + uint32(payloadLen)
	return Entry{Key: key, Payload: payload}, next, key
}

// SeekRestart binary-searches the restart index for the last interval
// whose head key is <= needle, returning its index (0 if needle sorts
// before every restart, i.e. the first interval is always the fallback).
func (r *RestartReader) SeekRestart(needle []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, r.NumRestarts()-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		entry, _, _ := r.decodeAt(r.restartOffset(mid), nil)
		if cmp(entry.Key, needle) <= 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// Iterate walks every entry in the block from the given restart interval
// index onward, calling fn for each until fn returns false or entries run
// out.
func (r *RestartReader) Iterate(fromRestart int, cmp func(a, b []byte) int, fn func(Entry) bool) {
	if fromRestart < 0 {
		fromRestart = 0
	}
	if r.NumRestarts() == 0 {
		return
	}
	off := r.restartOffset(fromRestart)
	var baseKey []byte
	entriesEnd := r.indexOffset
	for off < entriesEnd {
		entry, next, newBase := r.decodeAt(off, baseKey)
		if !fn(entry) {
			return
		}
		baseKey = newBase
		off = next
	}
	_ = cmp
}

// All decodes every entry in the block in order, for small blocks and
// tests where streaming iteration isn't necessary.
func (r *RestartReader) All() []Entry {
	entries := make([]Entry, 0, r.itemCount)
	r.Iterate(0, nil, func(e Entry) bool {
		// copy since decodeAt's key is already a fresh slice but payload
		// aliases the reader's backing array
		payload := make([]byte, len(e.Payload))
		copy(payload, e.Payload)
		entries = append(entries, Entry{Key: e.Key, Payload: payload})
		return true
	})
	return entries
}

// ItemCount returns the number of entries recorded in the trailer.
func (r *RestartReader) ItemCount() int { return int(r.itemCount) }
