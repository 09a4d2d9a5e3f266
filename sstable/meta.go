// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"
	"sort"

	"github.com/driftkv/lsm/internal/base"
	"github.com/driftkv/lsm/internal/block"
)

// ParsedMeta is the decoded contents of a segment's metadata block: the
// reserved `#`-prefixed key/value map, parsed into a typed struct.
type ParsedMeta struct {
	ID                  uint64
	CreatedAtNanos      int64
	ItemCount           uint64
	DataBlockCount      uint32
	IndexBlockCount     uint32
	KeyRange            base.KeyRange
	SeqNoMin            base.SeqNo
	SeqNoMax            base.SeqNo
	FileSize            uint64
	DataCompression     block.CompressionType
	RangeTombstoneCount uint64
	HashType            string
	ChecksumType        string
}

// metaMap is the sorted key/value representation written to disk; keys
// are the reserved `#`-prefixed names.
type metaMap map[string][]byte

func u64b(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func i64b(v int64) []byte { return u64b(uint64(v)) }

func u32b(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func toMetaMap(m ParsedMeta) metaMap {
	tag := m.DataCompression.EncodeTag()
	return metaMap{
		"#id":                    u64b(m.ID),
		"#created_at":            i64b(m.CreatedAtNanos),
		"#item_count":            u64b(m.ItemCount),
		"#data_block_count":      u32b(m.DataBlockCount),
		"#index_block_count":     u32b(m.IndexBlockCount),
		"#key#min":               []byte(m.KeyRange.Min),
		"#key#max":                []byte(m.KeyRange.Max),
		"#seqno#min":             u64b(uint64(m.SeqNoMin)),
		"#seqno#max":             u64b(uint64(m.SeqNoMax)),
		"#size":                  u64b(m.FileSize),
		"#compression#data":      {tag[0], tag[1]},
		"#range_tombstone_count": u64b(m.RangeTombstoneCount),
		"#hash_type":             []byte("xxh3"),
		"#checksum_type":         []byte("xxh3"),
	}
}

func fromMetaMap(m metaMap) (ParsedMeta, error) {
	req := func(key string, minLen int) ([]byte, error) {
		v, ok := m[key]
		if !ok {
			return nil, base.NewKind(base.KindCorrupt, "metadata block missing required key %q", key)
		}
		if len(v) < minLen {
			return nil, base.NewKind(base.KindCorrupt, "metadata key %q too short", key)
		}
		return v, nil
	}

	hashType, err := req("#hash_type", 0)
	if err != nil {
		return ParsedMeta{}, err
	}
	checksumType, err := req("#checksum_type", 0)
	if err != nil {
		return ParsedMeta{}, err
	}
	if string(hashType) != "xxh3" || string(checksumType) != "xxh3" {
		return ParsedMeta{}, base.NewKind(base.KindCorrupt, "unsupported hash/checksum type %q/%q", hashType, checksumType)
	}

	id, err := req("#id", 8)
	if err != nil {
		return ParsedMeta{}, err
	}
	createdAt, err := req("#created_at", 8)
	if err != nil {
		return ParsedMeta{}, err
	}
	itemCount, err := req("#item_count", 8)
	if err != nil {
		return ParsedMeta{}, err
	}
	dataBlockCount, err := req("#data_block_count", 4)
	if err != nil {
		return ParsedMeta{}, err
	}
	indexBlockCount, err := req("#index_block_count", 4)
	if err != nil {
		return ParsedMeta{}, err
	}
	keyMin, err := req("#key#min", 0)
	if err != nil {
		return ParsedMeta{}, err
	}
	keyMax, err := req("#key#max", 0)
	if err != nil {
		return ParsedMeta{}, err
	}
	seqMin, err := req("#seqno#min", 8)
	if err != nil {
		return ParsedMeta{}, err
	}
	seqMax, err := req("#seqno#max", 8)
	if err != nil {
		return ParsedMeta{}, err
	}
	size, err := req("#size", 8)
	if err != nil {
		return ParsedMeta{}, err
	}
	compTag, err := req("#compression#data", 2)
	if err != nil {
		return ParsedMeta{}, err
	}
	rtCount, err := req("#range_tombstone_count", 8)
	if err != nil {
		return ParsedMeta{}, err
	}

	comp, err := block.DecodeCompressionTag([2]byte{compTag[0], compTag[1]})
	if err != nil {
		return ParsedMeta{}, err
	}

	return ParsedMeta{
		ID:                  binary.LittleEndian.Uint64(id),
		CreatedAtNanos:      int64(binary.LittleEndian.Uint64(createdAt)),
		ItemCount:           binary.LittleEndian.Uint64(itemCount),
		DataBlockCount:      binary.LittleEndian.Uint32(dataBlockCount),
		IndexBlockCount:     binary.LittleEndian.Uint32(indexBlockCount),
		KeyRange:            base.KeyRange{Min: base.UserKey(keyMin), Max: base.UserKey(keyMax)},
		SeqNoMin:            base.SeqNo(binary.LittleEndian.Uint64(seqMin)),
		SeqNoMax:            base.SeqNo(binary.LittleEndian.Uint64(seqMax)),
		FileSize:            binary.LittleEndian.Uint64(size),
		DataCompression:     comp,
		RangeTombstoneCount: binary.LittleEndian.Uint64(rtCount),
		HashType:            string(hashType),
		ChecksumType:        string(checksumType),
	}, nil
}

// encodeMetaMap serializes m as a sorted sequence of
// [keylen varint][key][vallen varint][val] entries, forming the
// metadata block's uncompressed payload.
func encodeMetaMap(m metaMap) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tmp [binary.MaxVarintLen64]byte
	var out []byte
	for _, k := range keys {
		v := m[k]
		n := binary.PutUvarint(tmp[:], uint64(len(k)))
		out = append(out, tmp[:n]...)
		out = append(out, k...)
		n = binary.PutUvarint(tmp[:], uint64(len(v)))
		out = append(out, tmp[:n]...)
		out = append(out, v...)
	}
	return out
}

// decodeMetaMap parses the payload produced by encodeMetaMap.
func decodeMetaMap(payload []byte) (metaMap, error) {
	m := make(metaMap)
	for len(payload) > 0 {
		klen, n1 := binary.Uvarint(payload)
		if n1 <= 0 {
			return nil, base.NewKind(base.KindCorrupt, "metadata block key-length varint invalid")
		}
		payload = payload[n1:]
		if uint64(len(payload)) < klen {
			return nil, base.NewKind(base.KindCorrupt, "metadata block key truncated")
		}
		key := string(payload[:klen])
		payload = payload[klen:]

		vlen, n2 := binary.Uvarint(payload)
		if n2 <= 0 {
			return nil, base.NewKind(base.KindCorrupt, "metadata block value-length varint invalid")
		}
		payload = payload[n2:]
		if uint64(len(payload)) < vlen {
			return nil, base.NewKind(base.KindCorrupt, "metadata block value truncated")
		}
		m[key] = payload[:vlen]
		payload = payload[vlen:]
	}
	return m, nil
}
