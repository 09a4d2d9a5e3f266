// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package atomicfile implements the temp-file-then-rename pattern used to
// durably replace a file's contents in one atomic step: segment files,
// the level manifest, and any other file that must never be observed in a
// partially-written state.
package atomicfile

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/driftkv/lsm/internal/base"
)

// RewriteAtomic durably replaces path's contents with content: it writes
// to a temporary file in the same directory, fsyncs it, renames it onto
// path, then fsyncs path and (on POSIX) its parent directory. A reader
// that observes a crash between the temp-file write and the rename will
// see the previous committed content, never a partial write.
func RewriteAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return base.WithKind(errors.Wrap(err, "create temp file"), base.KindIO)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return base.WithKind(errors.Wrap(err, "write temp file"), base.KindIO)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return base.WithKind(errors.Wrap(err, "fsync temp file"), base.KindIO)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return base.WithKind(errors.Wrap(err, "close temp file"), base.KindIO)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return base.WithKind(errors.Wrap(err, "rename temp file into place"), base.KindIO)
	}

	if runtime.GOOS != "windows" {
		f, err := os.Open(path)
		if err != nil {
			return base.WithKind(errors.Wrap(err, "reopen for fsync"), base.KindIO)
		}
		defer f.Close()
		if err := f.Sync(); err != nil {
			return base.WithKind(errors.Wrap(err, "fsync renamed file"), base.KindIO)
		}
		if err := FsyncDirectory(dir); err != nil {
			return err
		}
	}
	return nil
}

// FsyncDirectory fsyncs a directory's own inode, so a prior rename or
// create within it is durable even across a crash. It is a no-op on
// Windows, which does not support fsyncing directory handles.
func FsyncDirectory(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return base.WithKind(errors.Wrap(err, "open directory for fsync"), base.KindIO)
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return base.WithKind(errors.Wrap(err, "fsync directory"), base.KindIO)
	}
	return nil
}
