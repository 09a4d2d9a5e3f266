// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateMMatchesKnownValues(t *testing.T) {
	require.EqualValues(t, 9592, calculateM(1000, 0.01))
	require.EqualValues(t, 4800, calculateM(1000, 0.1))
	require.EqualValues(t, 4792536, calculateM(1_000_000, 0.1))
}

func TestStandardFilterNoFalseNegatives(t *testing.T) {
	n := uint64(2000)
	b := NewStandardBuilder(n, 0.01)
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%d", i))
		b.SetHash(Hash(keys[i]))
	}
	f := b.Build()
	for _, k := range keys {
		require.True(t, f.ContainsHash(Hash(k)))
	}
}

func TestBlockedFilterNoFalseNegatives(t *testing.T) {
	n := uint64(2000)
	b := NewBlockedBuilder(n, 0.01)
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("blocked-key-%d", i))
		b.SetHash(Hash(keys[i]))
	}
	f := b.Build()
	for _, k := range keys {
		require.True(t, f.ContainsHash(Hash(k)))
	}
}

func TestStandardFilterFalsePositiveRateIsBounded(t *testing.T) {
	n := uint64(5000)
	b := NewStandardBuilder(n, 0.01)
	for i := uint64(0); i < n; i++ {
		b.SetHash(Hash([]byte(fmt.Sprintf("present-%d", i))))
	}
	f := b.Build()

	falsePositives := 0
	trials := 20000
	for i := 0; i < trials; i++ {
		k := []byte(fmt.Sprintf("absent-%d", i))
		if f.ContainsHash(Hash(k)) {
			falsePositives++
		}
	}
	rate := float64(falsePositives) / float64(trials)
	require.Less(t, rate, 0.05)
}

func TestFilterEncodeDecodeRoundTrip(t *testing.T) {
	b := NewBlockedBuilder(100, 0.01)
	key := []byte("round-trip-key")
	b.SetHash(Hash(key))
	f := b.Build()

	decoded, err := Decode(f.Encode())
	require.NoError(t, err)
	require.True(t, decoded.ContainsHash(Hash(key)))
}
