// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package compact implements the compaction strategies: pure functions
// over a manifest snapshot that decide which segments to merge, move,
// or drop. Each strategy's Choose never mutates the manifest itself;
// the caller hides the chosen segments before acting.
package compact

import "github.com/driftkv/lsm/internal/manifest"

// ChoiceKind tags what a strategy decided to do.
type ChoiceKind int

const (
	// DoNothing means no segment satisfied the strategy's trigger.
	DoNothing ChoiceKind = iota
	// Merge means the input segments should be merged and the result
	// written into DestLevel, capped at TargetSize bytes per output.
	Merge
	// Move means only the level assignment changes; valid only when the
	// destination has no overlap with the moved segments.
	Move
	// Drop means the input segments should be deleted unconditionally
	// (TTL or size-limit eviction).
	Drop
)

// Choice is the decision returned by a strategy's Choose.
type Choice struct {
	Kind        ChoiceKind
	SegmentIDs  []manifest.SegmentID
	DestLevel   int
	TargetSize  uint64
}

// Strategy selects segments to compact from a manifest snapshot.
type Strategy interface {
	Name() string
	Choose(levels []manifest.Level, busy map[int]bool) Choice
}
