// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/sstable"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <segment-file>",
		Short: "Print every entry in a segment file, in stored order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0])
		},
	}
}

func runScan(cmd *cobra.Command, path string) error {
	r, err := sstable.Recover(path)
	if err != nil {
		return fmt.Errorf("recover %s: %w", path, err)
	}
	defer r.Close()

	entries, err := r.Scan()
	if err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		if e.Type == base.TypeValue {
			fmt.Fprintf(out, "%q @%d %s = %q\n", e.Key, e.SeqNo, e.Type, e.Value)
		} else {
			fmt.Fprintf(out, "%q @%d %s\n", e.Key, e.SeqNo, e.Type)
		}
	}
	return nil
}
