// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/block"
	"github.com/driftkv/lsm/internal/cache"
	"github.com/driftkv/lsm/internal/datablock"
	"github.com/driftkv/lsm/internal/filter"
	"github.com/driftkv/lsm/internal/indexblock"
)

// Reader recovers a segment from disk and services point reads and
// range scans against it.
type Reader struct {
	f        *os.File
	ownsFile bool // false when f's lifecycle belongs to a descriptor table
	meta     ParsedMeta
	tli      *indexblock.Block
	flt      *filter.Filter // nil if the segment has no filter
	blocks   *cache.Cache   // nil disables the block cache for this reader
}

// Recover opens path, reads its trailer and metadata, materializes the
// top-level index, and (if present) loads and pins the filter. Data and
// index blocks below the top-level index are read straight from disk
// on every access; use RecoverCached to route them through a shared
// block cache instead.
func Recover(path string) (*Reader, error) {
	return RecoverCached(path, nil)
}

// RecoverCached is Recover, but routes data and index block loads
// through blocks, keyed by this segment's id and each block's file
// offset. A nil cache behaves exactly like Recover.
func RecoverCached(path string, blocks *cache.Cache) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, base.WithKind(errors.Wrap(err, "open segment file"), base.KindIO)
	}

	r, err := recoverFromFile(f, blocks)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.ownsFile = true
	return r, nil
}

// RecoverFromHandle is RecoverCached, but against an already-open file
// whose lifecycle is owned by the caller (e.g. a descriptor table)
// instead of by the Reader. Close on the returned Reader releases
// in-memory state only; f is left open for its owner to manage.
func RecoverFromHandle(f *os.File, blocks *cache.Cache) (*Reader, error) {
	return recoverFromFile(f, blocks)
}

func recoverFromFile(f *os.File, blocks *cache.Cache) (*Reader, error) {
	r, err := doRecoverFromFile(f, blocks)
	if err != nil {
		base.Log().Warnw("segment recovery failed", "path", f.Name(), "error", err)
		return nil, err
	}
	return r, nil
}

func doRecoverFromFile(f *os.File, blocks *cache.Cache) (*Reader, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, base.WithKind(errors.Wrap(err, "stat segment file"), base.KindIO)
	}
	size := fi.Size()
	if size < trailerSize {
		return nil, base.NewKind(base.KindCorrupt, "segment file of %d bytes smaller than trailer", size)
	}

	trailerBuf := make([]byte, trailerSize)
	if _, err := f.ReadAt(trailerBuf, size-trailerSize); err != nil {
		return nil, base.WithKind(errors.Wrap(err, "read segment trailer"), base.KindIO)
	}
	tr, err := decodeTrailer(trailerBuf)
	if err != nil {
		return nil, err
	}

	metaBlock, err := block.ReadAtFile(f, int64(tr.metadata.Offset), block.None)
	if err != nil {
		return nil, err
	}
	metaMap, err := decodeMetaMap(metaBlock.Payload)
	if err != nil {
		return nil, err
	}
	meta, err := fromMetaMap(metaMap)
	if err != nil {
		return nil, err
	}

	tliDecoded, err := block.ReadAtFile(f, int64(tr.tli.Offset), meta.DataCompression)
	if err != nil {
		return nil, err
	}
	tliBlock, err := indexblock.NewBlock(tliDecoded.Payload)
	if err != nil {
		return nil, err
	}

	var flt *filter.Filter
	if !handleAbsent(tr.filter) {
		filterDecoded, err := block.ReadAtFile(f, int64(tr.filter.Offset), block.None)
		if err != nil {
			return nil, err
		}
		flt, err = filter.Decode(filterDecoded.Payload)
		if err != nil {
			return nil, err
		}
	}

	base.Log().Debugw("segment recovered", "path", f.Name(), "id", meta.ID, "items", meta.ItemCount)
	return &Reader{f: f, meta: meta, tli: tliBlock, flt: flt, blocks: blocks}, nil
}

// Close releases the reader's file handle, unless it was recovered via
// RecoverFromHandle, in which case the handle's owner closes it.
func (r *Reader) Close() error {
	if !r.ownsFile {
		return nil
	}
	if err := r.f.Close(); err != nil {
		return base.WithKind(errors.Wrap(err, "close segment file"), base.KindIO)
	}
	return nil
}

// Meta returns the segment's parsed metadata.
func (r *Reader) Meta() ParsedMeta { return r.meta }

// loadPayload returns the decompressed payload of the block at h,
// routing through r.blocks when a cache is configured.
func (r *Reader) loadPayload(h indexblock.Handle, policy cache.Policy) ([]byte, error) {
	load := func() ([]byte, error) {
		decoded, err := block.ReadAtFile(r.f, int64(h.Offset), r.meta.DataCompression)
		if err != nil {
			return nil, err
		}
		return decoded.Payload, nil
	}
	if r.blocks == nil {
		return load()
	}
	key := cache.Key{SegmentID: r.meta.ID, Offset: h.Offset}
	return r.blocks.GetOrLoad(key, policy, load)
}

// loadIndexBlock reads and decodes the index block referenced by h.
func (r *Reader) loadIndexBlock(h indexblock.Handle) (*indexblock.Block, error) {
	payload, err := r.loadPayload(h, cache.PolicyRead)
	if err != nil {
		return nil, err
	}
	return indexblock.NewBlock(payload)
}

// loadDataBlock reads and decodes the data block referenced by h
// through the cache, inserting on a miss.
func (r *Reader) loadDataBlock(h indexblock.Handle) (*datablock.Block, error) {
	payload, err := r.loadPayload(h, cache.PolicyRead)
	if err != nil {
		return nil, err
	}
	return datablock.NewBlock(payload)
}

// loadDataBlockUncached reads and decodes the data block referenced by
// h straight from disk, ignoring r.blocks entirely.
func (r *Reader) loadDataBlockUncached(h indexblock.Handle) (*datablock.Block, error) {
	decoded, err := block.ReadAtFile(r.f, int64(h.Offset), r.meta.DataCompression)
	if err != nil {
		return nil, err
	}
	return datablock.NewBlock(decoded.Payload)
}

// Get performs a point read. If seqno is non-nil, the read is
// gated by the segment's minimum sequence number (strict >=, per the
// snapshot-seqno rule) and keyHash short-circuits via the pinned filter
// when present.
func (r *Reader) Get(key []byte, seqno *base.SeqNo, keyHash filter.CompositeHash) (base.InternalValue, bool, error) {
	if seqno != nil && r.meta.SeqNoMin >= *seqno {
		return base.InternalValue{}, false, nil
	}
	if r.flt != nil && !r.flt.ContainsHash(keyHash) {
		return base.InternalValue{}, false, nil
	}

	idxHandle, ok, err := r.tli.GetLowestPossibleBlock(key)
	if err != nil {
		return base.InternalValue{}, false, err
	}
	if !ok {
		return base.InternalValue{}, false, nil
	}
	idxBlock, err := r.loadIndexBlock(idxHandle.Handle)
	if err != nil {
		return base.InternalValue{}, false, err
	}

	if seqno == nil {
		dataHandle, ok, err := idxBlock.GetLowestPossibleBlock(key)
		if err != nil {
			return base.InternalValue{}, false, err
		}
		if !ok {
			return base.InternalValue{}, false, nil
		}
		dataBlock, err := r.loadDataBlock(dataHandle.Handle)
		if err != nil {
			return base.InternalValue{}, false, err
		}
		v, ok, err := dataBlock.PointRead(key, nil)
		return v, ok, err
	}

	entries, err := idxBlock.All()
	if err != nil {
		return base.InternalValue{}, false, err
	}
	for _, e := range entries {
		if bytes.Compare(e.EndKey, key) < 0 {
			continue
		}
		dataBlock, err := r.loadDataBlock(e.Handle)
		if err != nil {
			return base.InternalValue{}, false, err
		}
		v, ok, err := dataBlock.PointRead(key, seqno)
		if err != nil {
			return base.InternalValue{}, false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return base.InternalValue{}, false, nil
}

// Scan returns every InternalValue in the segment in order, reading
// every data block sequentially straight from disk, bypassing the block
// cache — a full scan (used only by compaction) has no locality to
// exploit and shouldn't evict cache entries warmed by point reads. Index
// blocks are still loaded through the cache, as for point reads.
func (r *Reader) Scan() ([]base.InternalValue, error) {
	entries, err := r.tli.All()
	if err != nil {
		return nil, err
	}
	var out []base.InternalValue
	for _, idxEntry := range entries {
		idxBlock, err := r.loadIndexBlock(idxEntry.Handle)
		if err != nil {
			return nil, err
		}
		dataHandles, err := idxBlock.All()
		if err != nil {
			return nil, err
		}
		for _, dh := range dataHandles {
			dataBlock, err := r.loadDataBlockUncached(dh.Handle)
			if err != nil {
				return nil, err
			}
			vs, err := dataBlock.All()
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
	}
	return out, nil
}
