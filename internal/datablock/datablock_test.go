// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package datablock

import (
	"testing"

	"github.com/driftkv/lsm/internal/base"
	"github.com/stretchr/testify/require"
)

func TestPointReadFindsNewestVisibleValue(t *testing.T) {
	w := NewWriter(4)
	w.Add(base.InternalValue{Key: []byte("abc"), SeqNo: 3, Type: base.TypeValue, Value: []byte("asdasdasd")})
	w.Add(base.InternalValue{Key: []byte("abc"), SeqNo: 1, Type: base.TypeValue, Value: []byte("older")})
	w.Add(base.InternalValue{Key: []byte("xyz"), SeqNo: 2, Type: base.TypeValue, Value: []byte("other")})
	payload := w.Finish()

	b, err := NewBlock(payload)
	require.NoError(t, err)

	v, ok, err := b.PointRead([]byte("abc"), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "asdasdasd", string(v.Value))

	_, ok, err = b.PointRead([]byte("def"), nil)
	require.NoError(t, err)
	require.False(t, ok)

	snap := base.SeqNo(3)
	v, ok, err = b.PointRead([]byte("abc"), &snap)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "older", string(v.Value))
}

func TestPointReadReturnsTombstone(t *testing.T) {
	w := NewWriter(4)
	w.Add(base.InternalValue{Key: []byte("k"), SeqNo: 5, Type: base.TypeTombstone})
	w.Add(base.InternalValue{Key: []byte("k"), SeqNo: 1, Type: base.TypeValue, Value: []byte("v1")})
	payload := w.Finish()

	b, err := NewBlock(payload)
	require.NoError(t, err)
	v, ok, err := b.PointRead([]byte("k"), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, v.Type.IsTombstone())
}

func TestAllDecodesInOrder(t *testing.T) {
	w := NewWriter(2)
	want := []base.InternalValue{
		{Key: []byte("a"), SeqNo: 1, Type: base.TypeValue, Value: []byte("1")},
		{Key: []byte("b"), SeqNo: 2, Type: base.TypeValue, Value: []byte("2")},
		{Key: []byte("c"), SeqNo: 3, Type: base.TypeValue, Value: []byte("3")},
	}
	for _, v := range want {
		w.Add(v)
	}
	payload := w.Finish()
	b, err := NewBlock(payload)
	require.NoError(t, err)
	require.Equal(t, 3, b.ItemCount())

	got, err := b.All()
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range want {
		require.Equal(t, string(want[i].Key), string(got[i].Key))
		require.Equal(t, want[i].Value, got[i].Value)
	}
}
