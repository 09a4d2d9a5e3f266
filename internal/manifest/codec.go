// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/driftkv/lsm/internal/base"
	"github.com/zeebo/xxh3"
)

// The manifest file is [xxh3 checksum u64][level count u32][levels...],
// where each level is [segment count u32][segments...] and each segment
// is [id u64][min key len u32][min key][max key len u32][max key]
// [file size u64][created_at u64][seqno min u64][seqno max u64]. Corruption (including an incomplete temp file
// left by a crashed rewrite, which Load's caller simply does not find at
// the committed path) is detected by the leading checksum.
func encode(levels []Level) []byte {
	var body []byte
	body = binary.LittleEndian.AppendUint32(body, uint32(len(levels)))
	for _, lvl := range levels {
		body = binary.LittleEndian.AppendUint32(body, uint32(len(lvl.Segments)))
		for _, s := range lvl.Segments {
			body = encodeSegment(body, s)
		}
	}
	checksum := xxh3.Hash(body)
	out := make([]byte, 8, 8+len(body))
	binary.LittleEndian.PutUint64(out, checksum)
	return append(out, body...)
}

func encodeSegment(buf []byte, s Segment) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.ID))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.KeyRange.Min)))
	buf = append(buf, s.KeyRange.Min...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.KeyRange.Max)))
	buf = append(buf, s.KeyRange.Max...)
	buf = binary.LittleEndian.AppendUint64(buf, s.FileSize)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.CreatedAt))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.SeqNoMin))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.SeqNoMax))
	return buf
}

func decode(data []byte) ([]Level, error) {
	if len(data) < 8 {
		return nil, base.NewKind(base.KindCorrupt, "manifest file of %d bytes too short for checksum", len(data))
	}
	checksum := binary.LittleEndian.Uint64(data[0:8])
	body := data[8:]
	if xxh3.Hash(body) != checksum {
		return nil, base.NewKind(base.KindChecksum, "manifest checksum mismatch")
	}

	if len(body) < 4 {
		return nil, base.NewKind(base.KindCorrupt, "manifest body truncated before level count")
	}
	levelCount := binary.LittleEndian.Uint32(body[0:4])
	body = body[4:]
	levels := make([]Level, levelCount)
	for i := range levels {
		if len(body) < 4 {
			return nil, base.NewKind(base.KindCorrupt, "manifest body truncated before segment count")
		}
		segCount := binary.LittleEndian.Uint32(body[0:4])
		body = body[4:]
		segs := make([]Segment, segCount)
		for j := range segs {
			s, rest, err := decodeSegment(body)
			if err != nil {
				return nil, err
			}
			segs[j] = s
			body = rest
		}
		levels[i].Segments = segs
	}
	return levels, nil
}

func decodeSegment(buf []byte) (Segment, []byte, error) {
	need := func(n int) error {
		if len(buf) < n {
			return base.NewKind(base.KindCorrupt, "manifest segment record truncated")
		}
		return nil
	}
	if err := need(8); err != nil {
		return Segment{}, nil, err
	}
	id := SegmentID(binary.LittleEndian.Uint64(buf[0:8]))
	buf = buf[8:]

	if err := need(4); err != nil {
		return Segment{}, nil, err
	}
	minLen := binary.LittleEndian.Uint32(buf[0:4])
	buf = buf[4:]
	if err := need(int(minLen)); err != nil {
		return Segment{}, nil, err
	}
	keyMin := append([]byte(nil), buf[:minLen]...)
	buf = buf[minLen:]

	if err := need(4); err != nil {
		return Segment{}, nil, err
	}
	maxLen := binary.LittleEndian.Uint32(buf[0:4])
	buf = buf[4:]
	if err := need(int(maxLen)); err != nil {
		return Segment{}, nil, err
	}
	keyMax := append([]byte(nil), buf[:maxLen]...)
	buf = buf[maxLen:]

	if err := need(32); err != nil {
		return Segment{}, nil, err
	}
	fileSize := binary.LittleEndian.Uint64(buf[0:8])
	createdAt := int64(binary.LittleEndian.Uint64(buf[8:16]))
	seqMin := base.SeqNo(binary.LittleEndian.Uint64(buf[16:24]))
	seqMax := base.SeqNo(binary.LittleEndian.Uint64(buf[24:32]))
	buf = buf[32:]

	return Segment{
		ID:        id,
		KeyRange:  base.KeyRange{Min: keyMin, Max: keyMax},
		FileSize:  fileSize,
		CreatedAt: createdAt,
		SeqNoMin:  seqMin,
		SeqNoMax:  seqMax,
	}, buf, nil
}

func decodeFile(path string) ([]Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, base.WithKind(errors.Wrap(err, "read manifest file"), base.KindIO)
	}
	return decode(data)
}
