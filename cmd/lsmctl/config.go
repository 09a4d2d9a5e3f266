// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"

	"github.com/driftkv/lsm/sstable"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <tree-dir>",
		Short: "Print a tree directory's engine configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, args[0])
		},
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func runConfig(cmd *cobra.Command, treeDir string) error {
	c, err := sstable.LoadConfig(configPath(treeDir))
	if err != nil {
		return fmt.Errorf("load config in %s: %w", treeDir, err)
	}
	out, err := c.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func newConfigInitCmd() *cobra.Command {
	var levelRatio int
	var strategy string

	cmd := &cobra.Command{
		Use:   "init <tree-dir>",
		Short: "Write a default engine configuration into a tree directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseCompactionKind(strategy)
			if err != nil {
				return err
			}
			c := sstable.DefaultConfig().LevelRatio(levelRatio).WithCompactionStrategy(kind)
			return sstable.SaveConfig(configPath(args[0]), c)
		},
	}
	cmd.Flags().IntVar(&levelRatio, "level-ratio", 8, "per-level size multiplier")
	cmd.Flags().StringVar(&strategy, "strategy", "leveled", "compaction strategy: leveled, size_tiered, or fifo")
	return cmd
}

func parseCompactionKind(s string) (sstable.CompactionKind, error) {
	switch s {
	case "leveled":
		return sstable.CompactionLeveled, nil
	case "size_tiered":
		return sstable.CompactionSizeTiered, nil
	case "fifo":
		return sstable.CompactionFIFO, nil
	default:
		return 0, fmt.Errorf("unknown compaction strategy %q", s)
	}
}
