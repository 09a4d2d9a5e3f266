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

func levelSeg(id manifest.SegmentID, min, max string, size uint64) manifest.Segment {
	return manifest.Segment{
		ID:       id,
		KeyRange: base.KeyRange{Min: base.UserKey(min), Max: base.UserKey(max)},
		FileSize: size,
	}
}

func TestLeveledL0Trigger(t *testing.T) {
	const mib = 1024 * 1024
	m := manifest.New(2)
	for i := manifest.SegmentID(1); i <= 4; i++ {
		m.Add(0, levelSeg(i, "a", "z", 128*mib))
	}

	strategy := &LeveledStrategy{L0Threshold: 4, TargetSize: 128 * mib, LevelRatio: 8}

	choice := strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, Merge, choice.Kind)
	require.Equal(t, 1, choice.DestLevel)
	require.Equal(t, []manifest.SegmentID{1, 2, 3, 4}, choice.SegmentIDs)
	require.EqualValues(t, 128*mib, choice.TargetSize)

	m.HideSegments([]manifest.SegmentID{4})
	choice = strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, DoNothing, choice.Kind)
}

func TestLeveledMoveVsMerge(t *testing.T) {
	const mib = 1024 * 1024
	m := manifest.New(3)
	m.Add(1, levelSeg(1, "a", "g", 64*mib))
	m.Add(1, levelSeg(2, "h", "t", 64*mib))
	m.Add(1, levelSeg(3, "h", "t", 64*mib))
	m.Add(2, levelSeg(4, "k", "l", 64*mib))

	strategy := DefaultLeveledStrategy(2)

	choice := strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, Move, choice.Kind)
	require.Equal(t, 2, choice.DestLevel)
	require.Equal(t, []manifest.SegmentID{1}, choice.SegmentIDs)

	m.ReplaceLevel(2, []manifest.Segment{levelSeg(4, "f", "l", 64*mib)})
	choice = strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, Merge, choice.Kind)
	require.Equal(t, 2, choice.DestLevel)
	require.Equal(t, []manifest.SegmentID{1, 4}, choice.SegmentIDs)
}
