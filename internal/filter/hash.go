// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package filter implements approximate membership query filters: a
// standard Bloom filter and a cache-line-blocked Bloom filter, both
// keyed by a 128-bit xxh3 composite hash with a double-hashing probe
// sequence, built via a mutable Builder and queried via an immutable
// Filter.
package filter

import "github.com/zeebo/xxh3"

// CompositeHash is the (h1, h2) pair derived from a key's 128-bit xxh3
// hash, shared by both filter variants' double-hashing probe sequence.
type CompositeHash struct {
	H1 uint64
	H2 uint64
}

// Hash computes the composite hash of key.
func Hash(key []byte) CompositeHash {
	h := xxh3.Hash128(key)
	return CompositeHash{H1: h.Hi, H2: h.Lo}
}
