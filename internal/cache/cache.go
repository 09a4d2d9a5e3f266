// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cache implements the block cache: a map from
// (segment id, block offset) to a decoded block's bytes, bounded by
// capacity in bytes with LRU eviction. It is sharded so concurrent
// readers on different keys don't contend on one lock, mirroring the
// shard-per-bucket design a production block cache needs once many
// goroutines share it.
package cache

import (
	"container/list"
	"sync"

	"github.com/zeebo/xxh3"
)

// Policy controls whether a cache miss on read is worth inserting into
// the cache.
type Policy int

const (
	// PolicyRead inserts into the cache on a read miss.
	PolicyRead Policy = iota
	// PolicyWrite skips insertion on a read miss; used by callers (e.g.
	// a compaction's sequential scan) that know the block is unlikely
	// to be read again soon and don't want to evict hotter entries.
	PolicyWrite
)

// Key identifies one cached block.
type Key struct {
	SegmentID uint64
	Offset    uint64
}

const shardCount = 16

// Cache is a sharded, byte-capacity-bounded LRU block cache.
type Cache struct {
	shards [shardCount]*shard
}

type entry struct {
	key   Key
	value []byte
}

type shard struct {
	mu       sync.Mutex
	capacity uint64
	size     uint64
	ll       *list.List
	items    map[Key]*list.Element
}

// New returns an empty cache with the given total byte capacity, split
// evenly across shardCount shards.
func New(capacityBytes uint64) *Cache {
	c := &Cache{}
	perShard := capacityBytes / shardCount
	for i := range c.shards {
		c.shards[i] = &shard{
			capacity: perShard,
			ll:       list.New(),
			items:    make(map[Key]*list.Element),
		}
	}
	return c
}

func (c *Cache) shardFor(key Key) *shard {
	var buf [16]byte
	le := func(v uint64, b []byte) {
		for i := 0; i < 8; i++ {
			b[i] = byte(v >> (8 * i))
		}
	}
	le(key.SegmentID, buf[0:8])
	le(key.Offset, buf[8:16])
	h := xxh3.Hash(buf[:])
	return c.shards[h%uint64(shardCount)]
}

// Get returns the cached block for key, if present.
func (c *Cache) Get(key Key) ([]byte, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if ele, ok := s.items[key]; ok {
		s.ll.MoveToFront(ele)
		return ele.Value.(*entry).value, true
	}
	return nil, false
}

// Set inserts value for key, evicting least-recently-used entries from
// the same shard until the shard is back under capacity.
func (c *Cache) Set(key Key, value []byte) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

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

// GetOrLoad returns the cached block for key, calling load and
// inserting the result on a miss, unless policy is PolicyWrite.
func (c *Cache) GetOrLoad(key Key, policy Policy, load func() ([]byte, error)) ([]byte, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	if policy == PolicyRead {
		c.Set(key, v)
	}
	return v, nil
}

// note: must hold s.mu
func (s *shard) evictLocked() {
	for s.size > s.capacity {
		ele := s.ll.Back()
		if ele == nil {
			return
		}
		s.ll.Remove(ele)
		e := ele.Value.(*entry)
		delete(s.items, e.key)
		s.size -= uint64(len(e.value))
	}
}
