// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "bytes"

// UserKey is the caller-supplied key, with no internal metadata attached.
type UserKey []byte

// SeqNo orders writes to the same user key; higher sequence numbers are
// newer. SeqNo is monotonically assigned by the caller that feeds sorted
// InternalValue streams to the segment writer.
type SeqNo uint64

// ValueType tags what an InternalValue represents.
type ValueType uint8

const (
	// TypeValue is a live, user-visible value.
	TypeValue ValueType = iota
	// TypeTombstone marks a point deletion of the user key at this
	// sequence number.
	TypeTombstone
	// TypeRangeTombstone is reserved for a future range-deletion marker.
	// No writer in this module ever emits it and no reader expects to
	// find one; it exists so the trailer format has a stable tag for it.
	TypeRangeTombstone
)

func (t ValueType) String() string {
	switch t {
	case TypeValue:
		return "value"
	case TypeTombstone:
		return "tombstone"
	case TypeRangeTombstone:
		return "range_tombstone"
	default:
		return "unknown"
	}
}

// IsTombstone reports whether t represents a deletion marker of any kind.
func (t ValueType) IsTombstone() bool {
	return t == TypeTombstone || t == TypeRangeTombstone
}

// InternalValue is one entry in the sorted stream a caller hands to the
// segment writer: a user key, the sequence number and type it was written
// with, and (for TypeValue) its payload.
type InternalValue struct {
	Key   UserKey
	SeqNo SeqNo
	Type  ValueType
	Value []byte
}

// InternalKeyCompare orders two (key, seqno) pairs the way every block and
// index in this engine expects entries sorted: user key ascending, then
// sequence number descending, so that for equal user keys the newest
// write sorts first and a forward scan naturally returns the live value.
func InternalKeyCompare(aKey UserKey, aSeq SeqNo, bKey UserKey, bSeq SeqNo) int {
	if c := bytes.Compare(aKey, bKey); c != 0 {
		return c
	}
	switch {
	case aSeq > bSeq:
		return -1
	case aSeq < bSeq:
		return 1
	default:
		return 0
	}
}

// KeyRange is an inclusive [Min, Max] bound over user keys, used by
// segment metadata and by the compaction strategies to find overlapping
// segments in an adjacent level.
type KeyRange struct {
	Min UserKey
	Max UserKey
}

// Overlaps reports whether r and other share at least one key.
func (r KeyRange) Overlaps(other KeyRange) bool {
	return bytes.Compare(r.Min, other.Max) <= 0 && bytes.Compare(other.Min, r.Max) <= 0
}

// Contains reports whether key falls within r.
func (r KeyRange) Contains(key UserKey) bool {
	return bytes.Compare(key, r.Min) >= 0 && bytes.Compare(key, r.Max) <= 0
}

// Extend grows r (if necessary) so it also covers other, returning the
// combined range. Either side may be the zero KeyRange, in which case the
// other side is returned unchanged.
func (r KeyRange) Extend(other KeyRange) KeyRange {
	if r.Min == nil && r.Max == nil {
		return other
	}
	if other.Min == nil && other.Max == nil {
		return r
	}
	out := r
	if bytes.Compare(other.Min, out.Min) < 0 {
		out.Min = other.Min
	}
	if bytes.Compare(other.Max, out.Max) > 0 {
		out.Max = other.Max
	}
	return out
}
