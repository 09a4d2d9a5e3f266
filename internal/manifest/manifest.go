// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package manifest implements the level manifest: a persistent list of
// levels, each a list of segment descriptors, with level 0
// allowed to hold overlapping runs and every deeper level holding a
// single sorted disjoint run. Mutations serialize on a single writer
// lock and persist via atomic file rewrite.
package manifest

import (
	"sync"

	"github.com/driftkv/lsm/internal/atomicfile"
	"github.com/driftkv/lsm/internal/base"
)

// SegmentID uniquely identifies a segment within a tree.
type SegmentID uint64

// Segment is the manifest's view of one segment: just enough to drive
// compaction decisions without opening the file.
type Segment struct {
	ID        SegmentID
	KeyRange  base.KeyRange
	FileSize  uint64
	CreatedAt int64 // unix nanoseconds, mirrors sstable.ParsedMeta.CreatedAtNanos
	SeqNoMin  base.SeqNo
	SeqNoMax  base.SeqNo
}

// Level is one level's ordered list of segments. For level 0 the order
// is insertion order (ranges may overlap); for level >= 1 it is the
// disjoint run's ascending key order.
type Level struct {
	Segments []Segment
}

// TotalSize returns the sum of every segment's file size in the level.
func (l Level) TotalSize() uint64 {
	var total uint64
	for _, s := range l.Segments {
		total += s.FileSize
	}
	return total
}

// IsDisjoint reports whether the level's segments have pairwise disjoint
// key ranges, the invariant required of every level >= 1.
func (l Level) IsDisjoint() bool {
	for i := 0; i < len(l.Segments); i++ {
		for j := i + 1; j < len(l.Segments); j++ {
			if l.Segments[i].KeyRange.Overlaps(l.Segments[j].KeyRange) {
				return false
			}
		}
	}
	return true
}

// Manifest is the persistent, mutation-serialized view of which segments
// belong to which level.
type Manifest struct {
	mu     sync.Mutex
	levels []Level
	hidden map[SegmentID]bool
}

// New creates an empty manifest with levelCount levels.
func New(levelCount int) *Manifest {
	return &Manifest{
		levels: make([]Level, levelCount),
		hidden: make(map[SegmentID]bool),
	}
}

// LevelCount returns the number of levels.
func (m *Manifest) LevelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.levels)
}

// Add registers segment in level idx, appended at the end of that
// level's ordered list.
func (m *Manifest) Add(idx int, seg Segment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[idx].Segments = append(m.levels[idx].Segments, seg)
}

// ResolvedView returns a read-only snapshot of every level with hidden
// segments filtered out, so a compactor planning a new choice never
// reconsiders segments another compaction has already claimed.
func (m *Manifest) ResolvedView() []Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Level, len(m.levels))
	for i, lvl := range m.levels {
		for _, s := range lvl.Segments {
			if !m.hidden[s.ID] {
				out[i].Segments = append(out[i].Segments, s)
			}
		}
	}
	return out
}

// BusyLevels returns the set of level indices that currently have at
// least one hidden segment — i.e. a compaction already has a claim
// somewhere in that level, so another strategy pass should skip it.
func (m *Manifest) BusyLevels() map[int]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	busy := make(map[int]bool)
	for i, lvl := range m.levels {
		for _, s := range lvl.Segments {
			if m.hidden[s.ID] {
				busy[i] = true
				break
			}
		}
	}
	return busy
}

// HideSegments marks ids as temporarily invisible to ResolvedView, used
// by a compactor to claim its inputs before other strategies plan
// against the same manifest state.
func (m *Manifest) HideSegments(ids []SegmentID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.hidden[id] = true
	}
}

// ShowSegments reverses HideSegments, releasing a compactor's claim.
func (m *Manifest) ShowSegments(ids []SegmentID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.hidden, id)
	}
}

// IsHidden reports whether id is currently claimed by an in-flight
// compaction.
func (m *Manifest) IsHidden(id SegmentID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hidden[id]
}

// Size returns the total byte size across all levels (including hidden
// segments, which still occupy disk space until the compaction commits).
func (m *Manifest) Size() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total uint64
	for _, lvl := range m.levels {
		total += lvl.TotalSize()
	}
	return total
}

// ReplaceLevel atomically swaps level idx's segment list, used by a
// committing compaction to install its outputs and drop its (now
// unhidden) inputs in one step.
func (m *Manifest) ReplaceLevel(idx int, segments []Segment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[idx].Segments = segments
}

// Persist writes the manifest's level/segment-id lists to path via
// atomic file rewrite: temp file in the same directory, fsync, rename,
// fsync the directory.
func (m *Manifest) Persist(path string) error {
	m.mu.Lock()
	content := encode(m.levels)
	levelCount := len(m.levels)
	m.mu.Unlock()
	if err := atomicfile.RewriteAtomic(path, content); err != nil {
		base.Log().Warnw("manifest rewrite failed", "path", path, "error", err)
		return err
	}
	base.Log().Debugw("manifest rewritten", "path", path, "levels", levelCount)
	return nil
}

// Load reads a manifest previously written by Persist.
func Load(path string) (*Manifest, error) {
	levels, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return &Manifest{levels: levels, hidden: make(map[SegmentID]bool)}, nil
}
