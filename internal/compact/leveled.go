// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compact

import (
	"sort"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/manifest"
)

// LeveledStrategy implements leveled compaction (LCS): each level
// n >= 1 can hold up to LevelRatio^n * TargetSize bytes before the
// strategy merges part of it into the overlapping segments of level n+1.
type LeveledStrategy struct {
	// L0Threshold triggers an L0-into-L1 merge once |L0| reaches it.
	L0Threshold int
	// TargetSize caps each compaction output's size.
	TargetSize uint64
	// LevelRatio is the per-level size multiplier and the maximum
	// number of segments pulled from a single source level per choice.
	LevelRatio int
}

// DefaultLeveledStrategy returns the strategy's documented defaults.
func DefaultLeveledStrategy(levelRatio int) *LeveledStrategy {
	return &LeveledStrategy{
		L0Threshold: 4,
		TargetSize:  64 * 1024 * 1024,
		LevelRatio:  levelRatio,
	}
}

func (s *LeveledStrategy) Name() string { return "leveled" }

func desiredLevelSizeLeveled(levelIdx, ratio int, targetSize uint64) uint64 {
	return pow(ratio, levelIdx) * targetSize
}

func pow(base, exp int) uint64 {
	r := uint64(1)
	for i := 0; i < exp; i++ {
		r *= uint64(base)
	}
	return r
}

func aggregateKeyRange(segs []manifest.Segment) base.KeyRange {
	kr := segs[0].KeyRange
	for _, s := range segs[1:] {
		kr = kr.Extend(s.KeyRange)
	}
	return kr
}

// overlappingSegmentIDs returns the ids of every segment in level whose
// key range overlaps kr.
func overlappingSegmentIDs(level manifest.Level, kr base.KeyRange) []manifest.SegmentID {
	var ids []manifest.SegmentID
	for _, s := range level.Segments {
		if s.KeyRange.Overlaps(kr) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func segmentIDs(segs []manifest.Segment) []manifest.SegmentID {
	ids := make([]manifest.SegmentID, len(segs))
	for i, s := range segs {
		ids[i] = s.ID
	}
	return ids
}

// Choose scans levels from the deepest non-L0/non-Lmax level upward,
// looking for the first level whose size overshoots its desired size;
// failing that, falls back to the L0-trigger check.
func (s *LeveledStrategy) Choose(levels []manifest.Level, busy map[int]bool) Choice {
	for currIdx := len(levels) - 2; currIdx >= 1; currIdx-- {
		nextIdx := currIdx + 1
		level := levels[currIdx]
		if len(level.Segments) == 0 {
			continue
		}
		if busy[currIdx] || busy[nextIdx] {
			continue
		}

		desired := desiredLevelSizeLeveled(currIdx, s.LevelRatio, s.TargetSize)
		currBytes := level.TotalSize()
		if currBytes <= desired {
			continue
		}
		overshoot := currBytes - desired

		sorted := append([]manifest.Segment(nil), level.Segments...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return string(sorted[i].KeyRange.Min) < string(sorted[j].KeyRange.Min)
		})

		var picked []manifest.Segment
		for i := 0; i < len(sorted) && i < s.LevelRatio; i++ {
			if overshoot == 0 {
				break
			}
			seg := sorted[i]
			if seg.FileSize >= overshoot {
				overshoot = 0
			} else {
				overshoot -= seg.FileSize
			}
			picked = append(picked, seg)
		}
		if len(picked) == 0 {
			continue
		}

		nextLevel := levels[nextIdx]
		kr := aggregateKeyRange(picked)
		overlapping := overlappingSegmentIDs(nextLevel, kr)

		ids := segmentIDs(picked)
		ids = append(ids, overlapping...)

		pickedIsRun := manifest.Level{Segments: picked}.IsDisjoint()
		if len(overlapping) == 0 && pickedIsRun {
			base.Log().Debugw("leveled compaction chose move", "from", currIdx, "to", nextIdx, "segments", ids)
			return Choice{Kind: Move, SegmentIDs: ids, DestLevel: nextIdx, TargetSize: s.TargetSize}
		}
		base.Log().Debugw("leveled compaction chose merge", "from", currIdx, "to", nextIdx, "segments", ids)
		return Choice{Kind: Merge, SegmentIDs: ids, DestLevel: nextIdx, TargetSize: s.TargetSize}
	}

	return s.chooseL0(levels, busy)
}

func (s *LeveledStrategy) chooseL0(levels []manifest.Level, busy map[int]bool) Choice {
	if len(levels) == 0 {
		return Choice{Kind: DoNothing}
	}
	l0 := levels[0]
	if len(l0.Segments) < s.L0Threshold || busy[0] || busy[1] {
		return Choice{Kind: DoNothing}
	}
	if len(levels) < 2 {
		return Choice{Kind: DoNothing}
	}

	sorted := append([]manifest.Segment(nil), l0.Segments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return string(sorted[i].KeyRange.Min) < string(sorted[j].KeyRange.Min)
	})

	kr := aggregateKeyRange(sorted)
	overlapping := overlappingSegmentIDs(levels[1], kr)

	ids := segmentIDs(sorted)
	ids = append(ids, overlapping...)

	base.Log().Debugw("leveled compaction chose L0 merge", "segments", ids)
	return Choice{Kind: Merge, SegmentIDs: ids, DestLevel: 1, TargetSize: s.TargetSize}
}
