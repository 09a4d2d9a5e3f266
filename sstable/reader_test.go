// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/cache"
	"github.com/driftkv/lsm/internal/filter"
	"github.com/stretchr/testify/require"
)

func TestRecoverCachedServesRepeatedReadsFromCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "000003")

	opts := DefaultWriterOptions()
	opts.DataBlockSize = 8
	opts.IndexBlockSize = 8

	w := NewWriter(3, opts)
	letters := "abcdefghij"
	for i, c := range letters {
		require.NoError(t, w.Add(base.InternalValue{
			Key: base.UserKey(string(c)), SeqNo: base.SeqNo(i + 1), Type: base.TypeValue,
			Value: []byte("value-" + string(c)),
		}))
	}
	_, err := w.Finish(path)
	require.NoError(t, err)

	blocks := cache.New(1 << 20)
	r, err := RecoverCached(path, blocks)
	require.NoError(t, err)
	defer r.Close()

	for _, c := range letters {
		v, ok, err := r.Get([]byte(string(c)), nil, filter.Hash([]byte(string(c))))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "value-"+string(c), string(v.Value))
	}

	// A second pass over the same keys must still resolve correctly
	// once every block involved has been populated into the cache.
	for _, c := range letters {
		v, ok, err := r.Get([]byte(string(c)), nil, filter.Hash([]byte(string(c))))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "value-"+string(c), string(v.Value))
	}

	got, err := r.Scan()
	require.NoError(t, err)
	require.Len(t, got, len(letters))
}

func TestRecoverFromHandleDoesNotCloseCallerOwnedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "000004")

	w := NewWriter(4, nil)
	require.NoError(t, w.Add(base.InternalValue{Key: base.UserKey("k"), SeqNo: 1, Type: base.TypeValue, Value: []byte("v")}))
	_, err := w.Finish(path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := RecoverFromHandle(f, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	// f is still usable: a second Reader can be built from the same
	// handle, which would fail if the first Close had closed it.
	r2, err := RecoverFromHandle(f, nil)
	require.NoError(t, err)
	defer r2.Close()

	v, ok, err := r2.Get([]byte("k"), nil, filter.Hash([]byte("k")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(v.Value))
}
