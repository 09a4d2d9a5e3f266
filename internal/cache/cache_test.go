// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cache

import (
	"container/list"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New(1024 * shardCount)
	key := Key{SegmentID: 1, Offset: 4096}

	_, ok := c.Get(key)
	require.False(t, ok)

	c.Set(key, []byte("block-payload"))
	v, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, []byte("block-payload"), v)
}

func TestGetOrLoadInsertsOnMissWithPolicyRead(t *testing.T) {
	c := New(1024 * shardCount)
	key := Key{SegmentID: 2, Offset: 0}
	loads := 0

	load := func() ([]byte, error) {
		loads++
		return []byte("loaded"), nil
	}

	v, err := c.GetOrLoad(key, PolicyRead, load)
	require.NoError(t, err)
	require.Equal(t, []byte("loaded"), v)
	require.Equal(t, 1, loads)

	v, err = c.GetOrLoad(key, PolicyRead, load)
	require.NoError(t, err)
	require.Equal(t, []byte("loaded"), v)
	require.Equal(t, 1, loads, "second call should hit the cache, not reload")
}

func TestGetOrLoadPolicyWriteDoesNotCache(t *testing.T) {
	c := New(1024 * shardCount)
	key := Key{SegmentID: 3, Offset: 0}
	loads := 0

	load := func() ([]byte, error) {
		loads++
		return []byte("loaded"), nil
	}

	_, err := c.GetOrLoad(key, PolicyWrite, load)
	require.NoError(t, err)
	_, err = c.GetOrLoad(key, PolicyWrite, load)
	require.NoError(t, err)
	require.Equal(t, 2, loads, "PolicyWrite never populates the cache")
}

func TestGetOrLoadPropagatesLoadError(t *testing.T) {
	c := New(1024)
	key := Key{SegmentID: 4, Offset: 0}
	wantErr := errors.New("boom")

	_, err := c.GetOrLoad(key, PolicyRead, func() ([]byte, error) { return nil, wantErr })
	require.ErrorIs(t, err, wantErr)
	_, ok := c.Get(key)
	require.False(t, ok)
}

func TestShardEvictsLeastRecentlyUsed(t *testing.T) {
	s := &shard{capacity: 12, ll: list.New(), items: make(map[Key]*list.Element)}

	setOn := func(key Key, value []byte) {
		if ele, ok := s.items[key]; ok {
			s.ll.MoveToFront(ele)
			old := ele.Value.(*entry)
			s.size += uint64(len(value)) - uint64(len(old.value))
			old.value = value
			s.evictLocked()
			return
		}
		ele := s.ll.PushFront(&entry{key: key, value: value})
		s.items[key] = ele
		s.size += uint64(len(value))
		s.evictLocked()
	}

	setOn(Key{SegmentID: 1}, make([]byte, 6))
	setOn(Key{SegmentID: 2}, make([]byte, 6))
	require.Len(t, s.items, 2)

	setOn(Key{SegmentID: 3}, make([]byte, 6))
	require.Len(t, s.items, 2, "oldest entry evicted once capacity is exceeded")
	_, hasOldest := s.items[Key{SegmentID: 1}]
	require.False(t, hasOldest)
}
