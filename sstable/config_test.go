// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigBuilderResolvesLeveledStrategy(t *testing.T) {
	c := DefaultConfig().LevelRatio(4).LeveledL0Threshold(2).LeveledTargetSize(1024)

	opts := c.WriterOptions()
	require.Equal(t, 4096, opts.DataBlockSize)

	s := c.Strategy()
	require.Equal(t, "leveled", s.Name())
}

func TestConfigBuilderResolvesSizeTieredStrategy(t *testing.T) {
	c := DefaultConfig().LevelRatio(3).WithCompactionStrategy(CompactionSizeTiered).TieredBaseSize(2048)

	s := c.Strategy()
	require.Equal(t, "tiered", s.Name())
}

func TestConfigBuilderResolvesFIFOStrategy(t *testing.T) {
	c := DefaultConfig().WithCompactionStrategy(CompactionFIFO).FIFOLimit(1 << 20).FIFOTTL(time.Hour)

	s := c.Strategy()
	require.Equal(t, "fifo", s.Name())
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	c := DefaultConfig().LevelCount(5).LevelRatio(6).WithCompactionStrategy(CompactionFIFO).FIFOLimit(99)
	require.NoError(t, SaveConfig(path, c))

	got, err := LoadConfig(path)
	require.NoError(t, err)

	gotJSON, err := got.MarshalJSON()
	require.NoError(t, err)
	wantJSON, err := c.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, string(wantJSON), string(gotJSON))
}
