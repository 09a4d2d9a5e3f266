// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"

	"github.com/driftkv/lsm/sstable"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <segment-file>",
		Short: "Recover a segment file and print its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, path string) error {
	r, err := sstable.Recover(path)
	if err != nil {
		return fmt.Errorf("recover %s: %w", path, err)
	}
	defer r.Close()

	m := r.Meta()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "segment %d\n", m.ID)
	fmt.Fprintf(out, "  created_at:      %d\n", m.CreatedAtNanos)
	fmt.Fprintf(out, "  item_count:      %d\n", m.ItemCount)
	fmt.Fprintf(out, "  data_blocks:     %d\n", m.DataBlockCount)
	fmt.Fprintf(out, "  index_blocks:    %d\n", m.IndexBlockCount)
	fmt.Fprintf(out, "  key_range:       (%q, %q)\n", m.KeyRange.Min, m.KeyRange.Max)
	fmt.Fprintf(out, "  seqno_range:     [%d, %d]\n", m.SeqNoMin, m.SeqNoMax)
	fmt.Fprintf(out, "  file_size:       %d\n", m.FileSize)
	fmt.Fprintf(out, "  compression:     %+v\n", m.DataCompression)
	fmt.Fprintf(out, "  range_tombstones: %d\n", m.RangeTombstoneCount)
	return nil
}
