// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compact

import (
	"testing"
	"time"

	"github.com/driftkv/lsm/internal/manifest"
	"github.com/stretchr/testify/require"
)

func TestFIFOTTLDrop(t *testing.T) {
	m := manifest.New(1)
	m.Add(0, manifest.Segment{ID: 1, CreatedAt: 1000, FileSize: 1})
	m.Add(0, manifest.Segment{ID: 2, CreatedAt: time.Now().UnixNano(), FileSize: 1})

	strategy := NewFIFOStrategy(^uint64(0), 5000)
	choice := strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, Drop, choice.Kind)
	require.Equal(t, []manifest.SegmentID{1}, choice.SegmentIDs)
}

func TestFIFOBelowLimitDoesNothing(t *testing.T) {
	m := manifest.New(1)
	m.Add(0, manifest.Segment{ID: 1, CreatedAt: 1, FileSize: 1})

	strategy := NewFIFOStrategy(4, 0)
	choice := strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, DoNothing, choice.Kind)
}

func TestFIFOSizeLimitDropsOldest(t *testing.T) {
	m := manifest.New(1)
	m.Add(0, manifest.Segment{ID: 1, CreatedAt: 1, FileSize: 1})
	m.Add(0, manifest.Segment{ID: 2, CreatedAt: 2, FileSize: 1})
	m.Add(0, manifest.Segment{ID: 3, CreatedAt: 3, FileSize: 1})
	m.Add(0, manifest.Segment{ID: 4, CreatedAt: 4, FileSize: 1})

	strategy := NewFIFOStrategy(2, 0)
	choice := strategy.Choose(m.ResolvedView(), m.BusyLevels())
	require.Equal(t, Drop, choice.Kind)
	require.Equal(t, []manifest.SegmentID{1, 2}, choice.SegmentIDs)
}
