// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package filter

import "github.com/bits-and-blooms/bitset"

// cacheLineBytes is the size of one block in a blocked Bloom filter: one
// cache line, so a lookup touches at most one cache line instead of up to
// k scattered ones.
const cacheLineBytes = 64

// bitsPerBlock is the number of bits addressable within one cache-line
// block.
const bitsPerBlock = cacheLineBytes * 8

// BlockedBuilder accumulates key hashes into a cache-line-blocked Bloom
// filter.
type BlockedBuilder struct {
	bits      *bitset.BitSet
	m         uint64
	k         uint64
	numBlocks uint64
}

// NewBlockedBuilder sizes a blocked Bloom filter for n keys at the given
// target false-positive rate, rounding the bit array up to a whole number
// of cache-line blocks.
func NewBlockedBuilder(n uint64, fpr float64) *BlockedBuilder {
	m := calculateM(n, fpr)
	if m == 0 {
		m = bitsPerBlock
	}
	numBlocks := (m + bitsPerBlock - 1) / bitsPerBlock
	if numBlocks == 0 {
		numBlocks = 1
	}
	m = numBlocks * bitsPerBlock
	k := calculateK(m, n)
	return &BlockedBuilder{bits: bitset.New(uint(m)), m: m, k: k, numBlocks: numBlocks}
}

// SetHash marks h's probe sequence as present, confined to a single
// cache-line block selected by h1.
func (b *BlockedBuilder) SetHash(h CompositeHash) {
	blockIdx := h.H1 % b.numBlocks
	blockBase := blockIdx * bitsPerBlock
	h1, h2 := h.H1, h.H2
	for i := uint64(1); i <= b.k; i++ {
		b.bits.Set(uint(blockBase + h1%bitsPerBlock))
		h1 += h2
		h2 *= i
	}
}

// Build freezes the builder into an immutable Filter.
func (b *BlockedBuilder) Build() *Filter {
	return &Filter{bits: b.bits.Clone(), m: b.m, k: b.k, numBlocks: b.numBlocks, kind: kindBlocked}
}

func (f *Filter) containsHashBlocked(h CompositeHash) bool {
	blockIdx := h.H1 % f.numBlocks
	blockBase := blockIdx * bitsPerBlock
	h1, h2 := h.H1, h.H2
	for i := uint64(1); i <= f.k; i++ {
		if !f.bits.Test(uint(blockBase + h1%bitsPerBlock)) {
			return false
		}
		h1 += h2
		h2 *= i
	}
	return true
}
