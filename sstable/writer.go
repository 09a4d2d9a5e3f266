// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"bytes"
	"time"

	"github.com/driftkv/lsm/internal/atomicfile"
	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/block"
	"github.com/driftkv/lsm/internal/datablock"
	"github.com/driftkv/lsm/internal/filter"
	"github.com/driftkv/lsm/internal/indexblock"
)

// Writer streams a strictly ordered InternalValue stream into a segment
// file in a single forward pass: data blocks, index blocks, a
// top-level index, an optional filter block, a metadata block, and a
// trailer.
//
// The ordering invariant — entries arrive in (user_key asc, seqno desc)
// order — is the caller's responsibility; Writer verifies it between
// adjacent entries and returns a Corrupt error if violated.
type Writer struct {
	opts *WriterOptions
	id   uint64

	out    bytes.Buffer
	offset uint64

	dataW          *datablock.Writer
	prevDataOffset uint64
	blockLastKey   []byte

	idxW          *indexblock.Writer
	prevIdxOffset uint64
	idxLastKey    []byte

	tliW *indexblock.Writer

	keyHashes []filter.CompositeHash

	dataBlockCount  uint32
	indexBlockCount uint32
	itemCount       uint64

	haveFirst bool
	keyRange  base.KeyRange
	seqMin    base.SeqNo
	seqMax    base.SeqNo

	haveLast   bool
	lastKey    []byte
	lastSeqNo  base.SeqNo
}

// NewWriter creates a segment writer identified by id, using opts (nil
// for DefaultWriterOptions()).
func NewWriter(id uint64, opts *WriterOptions) *Writer {
	o := opts.ensureDefaults()
	return &Writer{
		opts:  o,
		id:    id,
		dataW: datablock.NewWriter(o.RestartInterval),
		idxW:  indexblock.NewWriter(o.RestartInterval),
		tliW:  indexblock.NewWriter(o.RestartInterval),
	}
}

// Add appends one entry to the segment being built.
func (w *Writer) Add(v base.InternalValue) error {
	if w.haveLast {
		if base.InternalKeyCompare(w.lastKey, w.lastSeqNo, v.Key, v.SeqNo) >= 0 {
			return base.NewKind(base.KindCorrupt, "segment writer received out-of-order entry after key %q seqno %d", w.lastKey, w.lastSeqNo)
		}
	}
	w.dataW.Add(v)

	if !w.haveFirst {
		w.keyRange.Min = append(base.UserKey(nil), v.Key...)
		w.seqMin, w.seqMax = v.SeqNo, v.SeqNo
		w.haveFirst = true
	} else {
		if v.SeqNo < w.seqMin {
			w.seqMin = v.SeqNo
		}
		if v.SeqNo > w.seqMax {
			w.seqMax = v.SeqNo
		}
	}
	w.keyRange.Max = append(w.keyRange.Max[:0], v.Key...)

	w.blockLastKey = append(w.blockLastKey[:0], v.Key...)
	w.lastKey = append(w.lastKey[:0], v.Key...)
	w.lastSeqNo = v.SeqNo
	w.haveLast = true
	w.itemCount++

	if w.opts.BloomFalsePositiveRate > 0 {
		w.keyHashes = append(w.keyHashes, filter.Hash(v.Key))
	}

	if w.dataW.EstimatedSize() >= w.opts.DataBlockSize {
		if err := w.flushDataBlock(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) flushDataBlock() error {
	if w.dataW.Len() == 0 {
		return nil
	}
	payload := w.dataW.Finish()
	n, err := block.WriteTo(&w.out, payload, w.opts.Compression, w.prevDataOffset)
	if err != nil {
		return err
	}
	handle := indexblock.Handle{Offset: w.offset, Size: uint64(n)}
	w.prevDataOffset = w.offset
	w.offset += uint64(n)

	w.idxW.Add(indexblock.KeyedBlockHandle{EndKey: append(base.UserKey(nil), w.blockLastKey...), Handle: handle})
	w.idxLastKey = append(w.idxLastKey[:0], w.blockLastKey...)
	w.dataBlockCount++
	w.dataW = datablock.NewWriter(w.opts.RestartInterval)

	if w.idxW.EstimatedSize() >= w.opts.IndexBlockSize {
		return w.flushIndexBlock()
	}
	return nil
}

func (w *Writer) flushIndexBlock() error {
	if w.idxW.Len() == 0 {
		return nil
	}
	payload := w.idxW.Finish()
	n, err := block.WriteTo(&w.out, payload, w.opts.Compression, w.prevIdxOffset)
	if err != nil {
		return err
	}
	handle := indexblock.Handle{Offset: w.offset, Size: uint64(n)}
	w.prevIdxOffset = w.offset
	w.offset += uint64(n)

	w.tliW.Add(indexblock.KeyedBlockHandle{EndKey: append(base.UserKey(nil), w.idxLastKey...), Handle: handle})
	w.indexBlockCount++
	w.idxW = indexblock.NewWriter(w.opts.RestartInterval)
	return nil
}

// Finish flushes any pending blocks, writes the filter and metadata
// blocks and the trailer, then durably publishes the segment at path via
// a temp-file-then-rename (internal/atomicfile). It returns the parsed
// metadata of the completed segment.
func (w *Writer) Finish(path string) (ParsedMeta, error) {
	if err := w.flushDataBlock(); err != nil {
		return ParsedMeta{}, err
	}
	if err := w.flushIndexBlock(); err != nil {
		return ParsedMeta{}, err
	}

	tliPayload := w.tliW.Finish()
	tliN, err := block.WriteTo(&w.out, tliPayload, w.opts.Compression, 0)
	if err != nil {
		return ParsedMeta{}, err
	}
	tliHandle := indexblock.Handle{Offset: w.offset, Size: uint64(tliN)}
	w.offset += uint64(tliN)

	var filterHandle indexblock.Handle
	if w.opts.BloomFalsePositiveRate > 0 && len(w.keyHashes) > 0 {
		n := uint64(len(w.keyHashes))
		var f *filter.Filter
		if w.opts.UseBlockedFilter {
			b := filter.NewBlockedBuilder(n, w.opts.BloomFalsePositiveRate)
			for _, h := range w.keyHashes {
				b.SetHash(h)
			}
			f = b.Build()
		} else {
			b := filter.NewStandardBuilder(n, w.opts.BloomFalsePositiveRate)
			for _, h := range w.keyHashes {
				b.SetHash(h)
			}
			f = b.Build()
		}
		fn, err := block.WriteTo(&w.out, f.Encode(), block.None, 0)
		if err != nil {
			return ParsedMeta{}, err
		}
		filterHandle = indexblock.Handle{Offset: w.offset, Size: uint64(fn)}
		w.offset += uint64(fn)
	}

	meta := ParsedMeta{
		ID:              w.id,
		CreatedAtNanos:  time.Now().UnixNano(),
		ItemCount:       w.itemCount,
		DataBlockCount:  w.dataBlockCount,
		IndexBlockCount: w.indexBlockCount,
		KeyRange:        w.keyRange,
		SeqNoMin:        w.seqMin,
		SeqNoMax:        w.seqMax,
		DataCompression: w.opts.Compression,
		HashType:        "xxh3",
		ChecksumType:    "xxh3",
	}
	metaPayload := encodeMetaMap(toMetaMap(meta))
	meta.FileSize = w.offset + uint64(block.HeaderSize+len(metaPayload)) + trailerSize
	metaPayload = encodeMetaMap(toMetaMap(meta))

	metaN, err := block.WriteTo(&w.out, metaPayload, block.None, 0)
	if err != nil {
		return ParsedMeta{}, err
	}
	metaHandle := indexblock.Handle{Offset: w.offset, Size: uint64(metaN)}
	w.offset += uint64(metaN)

	tr := trailer{
		version:  formatVersion,
		tli:      tliHandle,
		filter:   filterHandle,
		metadata: metaHandle,
	}
	w.out.Write(tr.encode())

	if err := atomicfile.RewriteAtomic(path, w.out.Bytes()); err != nil {
		return ParsedMeta{}, err
	}
	return meta, nil
}
