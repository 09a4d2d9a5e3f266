// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compact

import (
	"sort"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/manifest"
)

// l0SegmentCap is the point past which L0 grows independently of any
// flush/memtable pacing and needs its own reduction pass.
const l0SegmentCap = 20

// MaintenanceStrategy is the fallback every other strategy delegates to
// when its own trigger doesn't fire: it only ever looks at L0, and only
// acts once L0 has grown past l0SegmentCap.
type MaintenanceStrategy struct{}

func (s *MaintenanceStrategy) Name() string { return "maintenance" }

// chooseLeastEffortCompaction picks the n-segment window (segments taken
// in the given order) with the smallest cumulative file size, minimizing
// the write amplification of a compaction whose only goal is to shrink
// L0's segment count.
func chooseLeastEffortCompaction(segments []manifest.Segment, n int) []manifest.SegmentID {
	bestStart := 0
	bestSum := windowSum(segments, 0, n)
	for start := 1; start+n <= len(segments); start++ {
		sum := windowSum(segments, start, n)
		if sum < bestSum {
			bestSum = sum
			bestStart = start
		}
	}
	ids := make([]manifest.SegmentID, n)
	for i := 0; i < n; i++ {
		ids[i] = segments[bestStart+i].ID
	}
	return ids
}

func windowSum(segments []manifest.Segment, start, n int) uint64 {
	var total uint64
	for i := start; i < start+n; i++ {
		total += segments[i].FileSize
	}
	return total
}

// Choose merges, once |L0| exceeds l0SegmentCap, the least-effort run of
// |L0|-l0SegmentCap+1 consecutive segments (ordered oldest to newest by
// seqno) back into L0.
func (s *MaintenanceStrategy) Choose(levels []manifest.Level, busy map[int]bool) Choice {
	if len(levels) == 0 {
		return Choice{Kind: DoNothing}
	}
	l0 := append([]manifest.Segment(nil), levels[0].Segments...)
	if len(l0) <= l0SegmentCap {
		return Choice{Kind: DoNothing}
	}

	sort.SliceStable(l0, func(i, j int) bool { return l0[i].SeqNoMin < l0[j].SeqNoMin })

	n := len(l0) - l0SegmentCap + 1
	ids := chooseLeastEffortCompaction(l0, n)

	base.Log().Debugw("maintenance compaction chose merge", "segments", ids)
	return Choice{Kind: Merge, SegmentIDs: ids, DestLevel: 0, TargetSize: ^uint64(0)}
}
