// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compact

import (
	"sort"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/manifest"
)

// TieredStrategy implements size-tiered compaction (STCS): once
// a level's total size reaches its desired size, a batch of its segments
// merges wholesale into the next level, growing that level's segment
// count rather than keeping it to a single sorted run.
type TieredStrategy struct {
	// BaseSize is the multiplier level 0's desired size is built from.
	BaseSize uint64
	// LevelRatio is both the per-level size multiplier and the maximum
	// number of segments merged out of one level per choice.
	LevelRatio int
	// Fallback runs once no level is over its desired size. Defaults to
	// a MaintenanceStrategy in DefaultTieredStrategy.
	Fallback Strategy
}

// DefaultTieredStrategy returns the strategy's documented defaults.
func DefaultTieredStrategy(levelRatio int) *TieredStrategy {
	return &TieredStrategy{
		BaseSize:   64 * 1024 * 1024,
		LevelRatio: levelRatio,
		Fallback:   &MaintenanceStrategy{},
	}
}

func (s *TieredStrategy) Name() string { return "tiered" }

func desiredLevelSizeTiered(levelIdx, ratio int, baseSize uint64) uint64 {
	return pow(ratio, levelIdx+1) * baseSize
}

// Choose scans every level but Lmax, deepest first (L0 included, unlike
// leveled compaction); the first level whose size has reached its
// desired size contributes up to LevelRatio of its oldest segments to a
// merge into the next level. Merging into Lmax additionally absorbs
// every segment already there, since nothing else ever compacts Lmax
// down again.
func (s *TieredStrategy) Choose(levels []manifest.Level, busy map[int]bool) Choice {
	for currIdx := len(levels) - 2; currIdx >= 0; currIdx-- {
		nextIdx := currIdx + 1
		level := levels[currIdx]
		if len(level.Segments) == 0 {
			continue
		}

		desired := desiredLevelSizeTiered(currIdx, s.LevelRatio, s.BaseSize)
		if level.TotalSize() < desired {
			continue
		}

		sorted := append([]manifest.Segment(nil), level.Segments...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		})

		overshoot := desired
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

		isLmax := nextIdx == len(levels)-1
		if isLmax && busy[nextIdx] {
			continue
		}

		idSet := make(map[manifest.SegmentID]bool, len(picked))
		for _, seg := range picked {
			idSet[seg.ID] = true
		}
		if isLmax {
			for _, seg := range levels[nextIdx].Segments {
				idSet[seg.ID] = true
			}
		}

		ids := make([]manifest.SegmentID, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		base.Log().Debugw("tiered compaction chose merge", "from", currIdx, "to", nextIdx, "segments", ids)
		return Choice{Kind: Merge, SegmentIDs: ids, DestLevel: nextIdx, TargetSize: ^uint64(0)}
	}

	if s.Fallback != nil {
		return s.Fallback.Choose(levels, busy)
	}
	return Choice{Kind: DoNothing}
}
