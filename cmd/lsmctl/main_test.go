// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/manifest"
	"github.com/driftkv/lsm/sstable"
	"github.com/stretchr/testify/require"
)

func writeFixtureSegment(t *testing.T, path string, id uint64) sstable.ParsedMeta {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	w := sstable.NewWriter(id, nil)
	require.NoError(t, w.Add(base.InternalValue{Key: base.UserKey("abc"), SeqNo: 1, Type: base.TypeValue, Value: []byte("hello")}))
	require.NoError(t, w.Add(base.InternalValue{Key: base.UserKey("def"), SeqNo: 2, Type: base.TypeTombstone}))
	meta, err := w.Finish(path)
	require.NoError(t, err)
	return meta
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestInspectPrintsMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.sst")
	writeFixtureSegment(t, path, 1)

	out := runCmd(t, "inspect", path)
	require.Contains(t, out, "segment 1")
	require.Contains(t, out, "item_count:      2")
}

func TestScanPrintsEveryEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.sst")
	writeFixtureSegment(t, path, 1)

	out := runCmd(t, "scan", path)
	require.Contains(t, out, `"abc" @1 value = "hello"`)
	require.Contains(t, out, `"def" @2 tombstone`)
}

func TestConfigInitThenConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()

	_, err := sstable.LoadConfig(configPath(dir))
	require.Error(t, err)

	_ = runCmd(t, "config", "init", dir, "--level-ratio", "5", "--strategy", "fifo")

	out := runCmd(t, "config", dir)
	require.Contains(t, out, `"level_ratio":5`)
	require.Contains(t, out, `"compaction_strategy":2`)
}

func TestLevelsPrintsManifestAndSegmentItemCounts(t *testing.T) {
	dir := t.TempDir()
	writeFixtureSegment(t, segmentPath(dir, 1), 1)

	m := manifest.New(2)
	m.Add(0, manifest.Segment{ID: 1, KeyRange: base.KeyRange{Min: base.UserKey("abc"), Max: base.UserKey("def")}, FileSize: 100})
	require.NoError(t, m.Persist(manifestPath(dir)))

	out := runCmd(t, "levels", dir)
	require.Contains(t, out, "L0: 1 segment(s)")
	require.Contains(t, out, "segment 1")
	require.Contains(t, out, "items=2")
}
