// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package filter

import (
	"math"

	"github.com/bits-and-blooms/bitset"
)

// calculateM returns the number of bits needed for n keys at the target
// false-positive rate fpr, rounded up to a whole byte:
// m = ceil(-(n*ln(fpr)) / ln(2)^2 / 8) * 8.
func calculateM(n uint64, fpr float64) uint64 {
	if fpr < 1e-6 {
		fpr = 1e-6
	}
	bitsPerKey := -math.Log(fpr) / (math.Ln2 * math.Ln2)
	bytes := math.Ceil(float64(n) * bitsPerKey / 8)
	return uint64(bytes) * 8
}

// calculateK returns the number of probes: k = max(1, floor((m/n)*ln2)).
func calculateK(m, n uint64) uint64 {
	if n == 0 {
		return 1
	}
	k := math.Floor(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		return 1
	}
	return uint64(k)
}

// StandardBuilder accumulates key hashes into a standard Bloom filter.
type StandardBuilder struct {
	bits *bitset.BitSet
	m    uint64
	k    uint64
}

// NewStandardBuilder sizes a standard Bloom filter for n keys at the
// given target false-positive rate.
func NewStandardBuilder(n uint64, fpr float64) *StandardBuilder {
	m := calculateM(n, fpr)
	if m == 0 {
		m = 8
	}
	k := calculateK(m, n)
	return &StandardBuilder{bits: bitset.New(uint(m)), m: m, k: k}
}

// SetHash marks h's probe sequence as present.
func (b *StandardBuilder) SetHash(h CompositeHash) {
	h1, h2 := h.H1, h.H2
	for i := uint64(1); i <= b.k; i++ {
		b.bits.Set(uint(h1 % b.m))
		h1 += h2
		h2 *= i
	}
}

// Build freezes the builder into an immutable Filter.
func (b *StandardBuilder) Build() *Filter {
	return &Filter{bits: b.bits.Clone(), m: b.m, k: b.k, kind: kindStandard}
}

type filterKind int

const (
	kindStandard filterKind = iota
	kindBlocked
)

// Filter is an immutable, queryable Bloom filter, produced by either
// StandardBuilder.Build or BlockedBuilder.Build.
type Filter struct {
	bits       *bitset.BitSet
	m          uint64
	k          uint64
	numBlocks  uint64
	kind       filterKind
}

// ContainsHash reports whether h's probe sequence is entirely set. A
// false return is a definitive negative; a true return may be a false
// positive but never a false negative.
func (f *Filter) ContainsHash(h CompositeHash) bool {
	if f.kind == kindBlocked {
		return f.containsHashBlocked(h)
	}
	h1, h2 := h.H1, h.H2
	for i := uint64(1); i <= f.k; i++ {
		if !f.bits.Test(uint(h1 % f.m)) {
			return false
		}
		h1 += h2
		h2 *= i
	}
	return true
}

// Bytes returns the filter's packed bit array alone, without the header
// that Encode puts in front of it for the segment's filter block.
func (f *Filter) Bytes() []byte {
	b, _ := f.bits.MarshalBinary()
	return b
}
