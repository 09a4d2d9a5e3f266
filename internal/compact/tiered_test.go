// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compact

import (
	"testing"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/manifest"
	"github.com/stretchr/testify/require"
)

func tieredSeg(id manifest.SegmentID, createdAt int64, size uint64) manifest.Segment {
	return manifest.Segment{ID: id, CreatedAt: createdAt, FileSize: size}
}

func TestTieredLmaxAbsorption(t *testing.T) {
	const mib = 1024 * 1024

	m := manifest.New(7)
	for i := manifest.SegmentID(1); i <= 4; i++ {
		m.Add(0, tieredSeg(i, int64(i), 8*mib))
	}

	strategy := DefaultTieredStrategy(2)
	strategy.BaseSize = 8 * mib

	choice := strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, Merge, choice.Kind)
	require.Equal(t, 1, choice.DestLevel)
	require.Equal(t, []manifest.SegmentID{1, 2}, choice.SegmentIDs)
	require.Equal(t, ^uint64(0), choice.TargetSize)

	m2 := manifest.New(7)
	m2.Add(1, tieredSeg(2, 1, 16*mib))
	m2.Add(1, tieredSeg(3, 2, 16*mib))

	choice = strategy.Choose(m2.ResolvedView(), m2.BusyLevels())
	require.Equal(t, Merge, choice.Kind)
	require.Equal(t, 2, choice.DestLevel)
	require.Equal(t, []manifest.SegmentID{2, 3}, choice.SegmentIDs)
}

func TestTieredFallsBackToMaintenance(t *testing.T) {
	m := manifest.New(7)
	for id := manifest.SegmentID(0); id < l0SegmentCap+2; id++ {
		m.Add(0, manifest.Segment{ID: id, SeqNoMin: base.SeqNo(id), FileSize: 1})
	}

	strategy := DefaultTieredStrategy(4)
	choice := strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, Merge, choice.Kind)
	require.Equal(t, 0, choice.DestLevel)
	require.Equal(t, []manifest.SegmentID{0, 1, 2}, choice.SegmentIDs)
}
