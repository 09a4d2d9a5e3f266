// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Command lsmctl inspects an on-disk tree without going through a
// running process: it opens segment files and the level manifest
// directly and prints what it finds, exercising the same recovery and
// read path the engine itself uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lsmctl",
		Short:         "Inspect LSM tree directories and segment files",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newInspectCmd())
	root.AddCommand(newLevelsCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newConfigCmd())
	return root
}
