// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package fdcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempSegmentFile(t *testing.T, dir, name string) func() (*os.File, error) {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return func() (*os.File, error) { return os.Open(path) }
}

func TestGetOrOpenCachesHandle(t *testing.T) {
	dir := t.TempDir()
	table := New(4)
	open := tempSegmentFile(t, dir, "seg-1")

	opens := 0
	wrapped := func() (*os.File, error) {
		opens++
		return open()
	}

	key := Key{TreeID: 0, SegmentID: 1}
	f1, err := table.GetOrOpen(key, wrapped)
	require.NoError(t, err)
	f2, err := table.GetOrOpen(key, wrapped)
	require.NoError(t, err)

	require.Same(t, f1, f2)
	require.Equal(t, 1, opens)
	require.Equal(t, 1, table.Len())
}

func TestGetOrOpenEvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	table := New(2)

	names := []string{"seg-1", "seg-2", "seg-3"}
	for i, name := range names {
		key := Key{SegmentID: uint64(i + 1)}
		open := tempSegmentFile(t, dir, name)
		_, err := table.GetOrOpen(key, open)
		require.NoError(t, err)
	}

	require.Equal(t, 2, table.Len())
	require.NoError(t, table.Close())
}

func TestEvictClosesHandle(t *testing.T) {
	dir := t.TempDir()
	table := New(4)
	open := tempSegmentFile(t, dir, "seg-evict")

	key := Key{SegmentID: 9}
	_, err := table.GetOrOpen(key, open)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	table.Evict(key)
	require.Equal(t, 0, table.Len())
}
