// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compact

import (
	"sort"
	"time"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/manifest"
)

// FIFOStrategy implements FIFO compaction: it never merges segments for
// read amplification's sake, it only drops whole segments, either once
// their lifetime exceeds a TTL or once the tree's total size exceeds
// Limit. Suited to monotonically-growing, insert-only keyspaces.
type FIFOStrategy struct {
	// Limit is the data set size limit in bytes.
	Limit uint64
	// TTLSeconds disables TTL eviction when 0.
	TTLSeconds uint64
	// Fallback runs when nothing is dropped and L0 is not a single
	// sorted run. Defaults to a MaintenanceStrategy in NewFIFOStrategy.
	Fallback Strategy
}

// NewFIFOStrategy returns a FIFOStrategy with its fallback wired.
func NewFIFOStrategy(limit, ttlSeconds uint64) *FIFOStrategy {
	return &FIFOStrategy{Limit: limit, TTLSeconds: ttlSeconds, Fallback: &MaintenanceStrategy{}}
}

func (s *FIFOStrategy) Name() string { return "fifo" }

// Choose runs TTL eviction first (lifetime measured in microseconds
// against created_at's nanosecond timestamp, per the resolved Open
// Question on lifetime units), then size-limit eviction of the oldest
// L0 segments, then a fallback to maintenance compaction.
func (s *FIFOStrategy) Choose(levels []manifest.Level, busy map[int]bool) Choice {
	toDelete := make(map[manifest.SegmentID]bool)

	if s.TTLSeconds > 0 {
		nowNanos := time.Now().UnixNano()
		thresholdUs := s.TTLSeconds * 1_000_000
		for _, lvl := range levels {
			for _, seg := range lvl.Segments {
				lifetimeUs := uint64(nowNanos-seg.CreatedAt) / 1000
				if lifetimeUs >= thresholdUs {
					toDelete[seg.ID] = true
				}
			}
		}
	}

	var dbSize uint64
	for _, lvl := range levels {
		dbSize += lvl.TotalSize()
	}

	if dbSize > s.Limit && len(levels) > 0 {
		bytesToDelete := dbSize - s.Limit

		l0 := append([]manifest.Segment(nil), levels[0].Segments...)
		sort.SliceStable(l0, func(i, j int) bool { return l0[i].CreatedAt < l0[j].CreatedAt })

		for _, seg := range l0 {
			if bytesToDelete == 0 {
				break
			}
			if seg.FileSize >= bytesToDelete {
				bytesToDelete = 0
			} else {
				bytesToDelete -= seg.FileSize
			}
			toDelete[seg.ID] = true
		}
	}

	if len(toDelete) == 0 {
		if len(levels) == 0 || levels[0].IsDisjoint() {
			return Choice{Kind: DoNothing}
		}
		if s.Fallback != nil {
			return s.Fallback.Choose(levels, busy)
		}
		return Choice{Kind: DoNothing}
	}

	ids := make([]manifest.SegmentID, 0, len(toDelete))
	for id := range toDelete {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	base.Log().Debugw("fifo compaction chose drop", "segments", ids)
	return Choice{Kind: Drop, SegmentIDs: ids}
}
