// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"
)

// Tree directory layout: a "levels" manifest file and a "config" file
// alongside a "segments" folder of "<id>.sst" segment files.
const (
	levelsManifestFile = "levels"
	configFile         = "config"
	segmentsFolder     = "segments"
)

func manifestPath(treeDir string) string {
	return filepath.Join(treeDir, levelsManifestFile)
}

func configPath(treeDir string) string {
	return filepath.Join(treeDir, configFile)
}

func segmentPath(treeDir string, id uint64) string {
	return filepath.Join(treeDir, segmentsFolder, fmt.Sprintf("%d.sst", id))
}
