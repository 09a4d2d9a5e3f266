// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package indexblock

import (
	"testing"

	"github.com/driftkv/lsm/internal/base"
	"github.com/stretchr/testify/require"
)

func TestGetLowestPossibleBlockScenario(t *testing.T) {
	w := NewWriter(16)
	w.Add(KeyedBlockHandle{EndKey: base.UserKey("b"), Handle: Handle{Offset: 0, Size: 6000}})
	w.Add(KeyedBlockHandle{EndKey: base.UserKey("bcdef"), Handle: Handle{Offset: 6000, Size: 7000}})
	w.Add(KeyedBlockHandle{EndKey: base.UserKey("def"), Handle: Handle{Offset: 13000, Size: 5000}})
	payload := w.Finish()

	blk, err := NewBlock(payload)
	require.NoError(t, err)

	h, ok, err := blk.GetLowestPossibleBlock([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0, h.Handle.Offset)

	h, ok, err = blk.GetLowestPossibleBlock([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0, h.Handle.Offset)

	h, ok, err = blk.GetLowestPossibleBlock([]byte("ba"))
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 6000, h.Handle.Offset)

	h, ok, err = blk.GetLowestPossibleBlock([]byte("d"))
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 13000, h.Handle.Offset)

	_, ok, err = blk.GetLowestPossibleBlock([]byte("zzz"))
	require.NoError(t, err)
	require.False(t, ok)
}
