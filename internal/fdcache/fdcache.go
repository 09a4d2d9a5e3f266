// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package fdcache implements the descriptor table: a bounded map
// from (tree id, segment id) to an open file handle. A miss opens and
// inserts; eviction closes the least-recently-used handle, keeping the
// process's open-file count bounded regardless of how many segments a
// tree accumulates across compactions.
package fdcache

import (
	"container/list"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
)

// Key identifies one segment's file handle slot.
type Key struct {
	TreeID    uint64
	SegmentID uint64
}

type entry struct {
	key  Key
	file *os.File
}

// Table is a capacity-bounded, concurrency-safe LRU table of open file
// handles.
type Table struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[Key]*list.Element
}

// New returns an empty table that holds at most capacity open handles.
func New(capacity int) *Table {
	return &Table{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// GetOrOpen returns the open handle for key, calling open and inserting
// the result on a miss. If inserting would exceed capacity, the
// least-recently-used handle is closed and evicted first.
func (t *Table) GetOrOpen(key Key, open func() (*os.File, error)) (*os.File, error) {
	t.mu.Lock()
	if ele, ok := t.items[key]; ok {
		t.ll.MoveToFront(ele)
		f := ele.Value.(*entry).file
		t.mu.Unlock()
		return f, nil
	}
	t.mu.Unlock()

	f, err := open()
	if err != nil {
		return nil, errors.Wrap(err, "open segment file")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Another goroutine may have opened and inserted the same key while
	// this one was blocked in open(); prefer the winner already in the
	// table and close this goroutine's redundant handle.
	if ele, ok := t.items[key]; ok {
		t.ll.MoveToFront(ele)
		existing := ele.Value.(*entry).file
		_ = f.Close()
		return existing, nil
	}

	ele := t.ll.PushFront(&entry{key: key, file: f})
	t.items[key] = ele

	for t.ll.Len() > t.capacity {
		back := t.ll.Back()
		if back == nil {
			break
		}
		t.ll.Remove(back)
		evicted := back.Value.(*entry)
		delete(t.items, evicted.key)
		_ = evicted.file.Close()
	}

	return f, nil
}

// Evict closes and removes key's handle, if present, without waiting
// for capacity pressure; used when a segment is deleted.
func (t *Table) Evict(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ele, ok := t.items[key]
	if !ok {
		return
	}
	t.ll.Remove(ele)
	delete(t.items, key)
	_ = ele.Value.(*entry).file.Close()
}

// Close closes every handle currently held by the table.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var firstErr error
	for ele := t.ll.Front(); ele != nil; ele = ele.Next() {
		if err := ele.Value.(*entry).file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.ll.Init()
	t.items = make(map[Key]*list.Element)
	return firstErr
}

// Len returns the number of handles currently held open.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ll.Len()
}
