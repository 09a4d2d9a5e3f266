// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/driftkv/lsm/internal/cache"
	"github.com/driftkv/lsm/internal/fdcache"
	"github.com/driftkv/lsm/internal/manifest"
	"github.com/driftkv/lsm/sstable"
	"github.com/spf13/cobra"
)

// defaultBlockCacheBytes is lsmctl's own cache sizing; a long-lived
// process would take this from its tree's configuration instead.
const defaultBlockCacheBytes = 8 * 1024 * 1024

func newLevelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels <tree-dir>",
		Short: "Print the level manifest of a tree directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLevels(cmd, args[0])
		},
	}
}

func runLevels(cmd *cobra.Command, treeDir string) error {
	m, err := manifest.Load(manifestPath(treeDir))
	if err != nil {
		return fmt.Errorf("load manifest in %s: %w", treeDir, err)
	}

	// A single tree-scoped block cache and descriptor table, shared
	// across every segment this invocation touches, exactly as a
	// long-lived tree process would hold one of each for its lifetime.
	blocks := cache.New(defaultBlockCacheBytes)
	fds := fdcache.New(8)
	defer fds.Close()

	const treeID = 0 // lsmctl always inspects a single tree per invocation

	out := cmd.OutOrStdout()
	for i, lvl := range m.ResolvedView() {
		fmt.Fprintf(out, "L%d: %d segment(s), %d bytes\n", i, len(lvl.Segments), lvl.TotalSize())
		for _, s := range lvl.Segments {
			fmt.Fprintf(out, "  segment %d  key_range=(%q, %q)  size=%d",
				s.ID, s.KeyRange.Min, s.KeyRange.Max, s.FileSize)

			path := segmentPath(treeDir, uint64(s.ID))
			fdKey := fdcache.Key{TreeID: treeID, SegmentID: uint64(s.ID)}
			f, err := fds.GetOrOpen(fdKey, func() (*os.File, error) { return os.Open(path) })
			if err == nil {
				if r, err := sstable.RecoverFromHandle(f, blocks); err == nil {
					fmt.Fprintf(out, "  items=%d", r.Meta().ItemCount)
					r.Close()
				}
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
