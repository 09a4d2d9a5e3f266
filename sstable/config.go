// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package sstable implements the segment file format: a self-describing,
// block-structured sorted run with block-level checksums, prefix-
// truncated key encoding, binary-searchable block indices, a top-level
// index, an optional pinned Bloom filter, and a fixed trailer.
package sstable

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/driftkv/lsm/internal/atomicfile"
	"github.com/driftkv/lsm/internal/block"
	"github.com/driftkv/lsm/internal/compact"
)

// WriterOptions configures a segment Writer. A nil *WriterOptions passed
// to NewWriter is equivalent to DefaultWriterOptions().
type WriterOptions struct {
	// DataBlockSize is the uncompressed payload size, in bytes, above
	// which a data block is flushed.
	DataBlockSize int
	// IndexBlockSize is the accumulated KeyedBlockHandle payload size, in
	// bytes, above which an index block is flushed.
	IndexBlockSize int
	// RestartInterval is the number of entries between full-key restart
	// points within a data or index block.
	RestartInterval int
	// Compression selects the data/index block compressor. Filter and
	// metadata blocks are always written uncompressed, per the segment
	// file layout.
	Compression block.CompressionType
	// BloomFalsePositiveRate is the target false-positive rate for the
	// segment's pinned filter. Zero disables filter construction.
	BloomFalsePositiveRate float64
	// UseBlockedFilter selects the cache-line-blocked Bloom variant
	// instead of the standard variant.
	UseBlockedFilter bool
}

// DefaultWriterOptions returns the engine's default block sizing,
// compression, and filter configuration.
func DefaultWriterOptions() *WriterOptions {
	return &WriterOptions{
		DataBlockSize:          4096,
		IndexBlockSize:         4096,
		RestartInterval:        block.DefaultRestartInterval,
		Compression:            block.None,
		BloomFalsePositiveRate: 1e-4,
		UseBlockedFilter:       false,
	}
}

func (o *WriterOptions) ensureDefaults() *WriterOptions {
	if o == nil {
		return DefaultWriterOptions()
	}
	out := *o
	if out.DataBlockSize <= 0 {
		out.DataBlockSize = 4096
	}
	if out.IndexBlockSize <= 0 {
		out.IndexBlockSize = 4096
	}
	if out.RestartInterval <= 0 {
		out.RestartInterval = block.DefaultRestartInterval
	}
	return &out
}

// CompactionKind selects which compaction strategy a Config resolves to.
type CompactionKind int

const (
	CompactionLeveled CompactionKind = iota
	CompactionSizeTiered
	CompactionFIFO
)

func (k CompactionKind) String() string {
	switch k {
	case CompactionLeveled:
		return "leveled"
	case CompactionSizeTiered:
		return "size_tiered"
	case CompactionFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

type leveledConfig struct {
	l0Threshold int
	targetSize  uint64
}

type tieredConfig struct {
	baseSize uint64
}

type fifoConfig struct {
	limit uint64
	ttl   time.Duration
}

// Config is the tree-wide engine configuration: block sizing and
// compression, filter false-positive rate, the level count and per-level
// size ratio, and the chosen compaction strategy with its
// strategy-specific fields. It is built with chained setter methods in
// the style of the original's `Config::default().level_ratio(2)`, and
// resolves to a *WriterOptions plus a compact.Strategy once every field
// is set.
type Config struct {
	levelCount       int
	levelRatio       int
	dataBlockSize    int
	indexBlockSize   int
	restartInterval  int
	compression      block.CompressionType
	bloomFPRate      float64
	useBlockedFilter bool

	strategy CompactionKind
	leveled  leveledConfig
	tiered   tieredConfig
	fifo     fifoConfig
}

// DefaultConfig returns the engine's documented defaults: 7 levels, a
// per-level ratio of 8, 4KiB blocks, no compression, a 1e-4 Bloom
// false-positive rate, and leveled compaction.
func DefaultConfig() *Config {
	return &Config{
		levelCount:      7,
		levelRatio:      8,
		dataBlockSize:   4096,
		indexBlockSize:  4096,
		restartInterval: block.DefaultRestartInterval,
		compression:     block.None,
		bloomFPRate:     1e-4,
		strategy:        CompactionLeveled,
		leveled:         leveledConfig{l0Threshold: 4, targetSize: 64 * 1024 * 1024},
		tiered:          tieredConfig{baseSize: 64 * 1024 * 1024},
		fifo:            fifoConfig{limit: 0, ttl: 0},
	}
}

// LevelCount sets the number of levels the manifest is expected to hold,
// L0 through Lmax inclusive.
func (c *Config) LevelCount(n int) *Config { c.levelCount = n; return c }

// LevelRatio sets the per-level size multiplier used by both the Leveled
// and Size-Tiered strategies.
func (c *Config) LevelRatio(n int) *Config { c.levelRatio = n; return c }

// DataBlockSize sets the segment writer's data block flush threshold.
func (c *Config) DataBlockSize(n int) *Config { c.dataBlockSize = n; return c }

// IndexBlockSize sets the segment writer's index block flush threshold.
func (c *Config) IndexBlockSize(n int) *Config { c.indexBlockSize = n; return c }

// RestartInterval sets the number of entries between restart points in a
// data or index block.
func (c *Config) RestartInterval(n int) *Config { c.restartInterval = n; return c }

// Compression sets the data/index block compressor.
func (c *Config) Compression(t block.CompressionType) *Config { c.compression = t; return c }

// BloomFalsePositiveRate sets the target false-positive rate of each
// segment's pinned filter. Zero disables filter construction.
func (c *Config) BloomFalsePositiveRate(r float64) *Config { c.bloomFPRate = r; return c }

// UseBlockedFilter selects the cache-line-blocked Bloom variant instead
// of the standard variant.
func (c *Config) UseBlockedFilter(b bool) *Config { c.useBlockedFilter = b; return c }

// WithCompactionStrategy selects which compaction strategy Strategy()
// resolves to.
func (c *Config) WithCompactionStrategy(kind CompactionKind) *Config { c.strategy = kind; return c }

// LeveledL0Threshold sets the |L0| segment count that triggers an
// L0-into-L1 merge under leveled compaction.
func (c *Config) LeveledL0Threshold(n int) *Config { c.leveled.l0Threshold = n; return c }

// LeveledTargetSize caps a leveled-compaction output's size.
func (c *Config) LeveledTargetSize(n uint64) *Config { c.leveled.targetSize = n; return c }

// TieredBaseSize sets the multiplier level 0's desired size is built
// from under size-tiered compaction.
func (c *Config) TieredBaseSize(n uint64) *Config { c.tiered.baseSize = n; return c }

// FIFOLimit sets the total data set size limit, in bytes, FIFO
// compaction enforces. Zero disables size-limit eviction.
func (c *Config) FIFOLimit(n uint64) *Config { c.fifo.limit = n; return c }

// FIFOTTL sets the segment lifetime past which FIFO compaction drops a
// segment outright. Zero disables TTL eviction.
func (c *Config) FIFOTTL(d time.Duration) *Config { c.fifo.ttl = d; return c }

// WriterOptions resolves the block sizing, compression, and filter
// portion of c into a *WriterOptions for the segment Writer.
func (c *Config) WriterOptions() *WriterOptions {
	return (&WriterOptions{
		DataBlockSize:          c.dataBlockSize,
		IndexBlockSize:         c.indexBlockSize,
		RestartInterval:        c.restartInterval,
		Compression:            c.compression,
		BloomFalsePositiveRate: c.bloomFPRate,
		UseBlockedFilter:       c.useBlockedFilter,
	}).ensureDefaults()
}

// Strategy resolves c's compaction selection and strategy-specific
// fields into a compact.Strategy.
func (c *Config) Strategy() compact.Strategy {
	switch c.strategy {
	case CompactionSizeTiered:
		s := compact.DefaultTieredStrategy(c.levelRatio)
		s.BaseSize = c.tiered.baseSize
		return s
	case CompactionFIFO:
		limit := c.fifo.limit
		if limit == 0 {
			limit = ^uint64(0) // zero disables size-limit eviction
		}
		return compact.NewFIFOStrategy(limit, uint64(c.fifo.ttl/time.Second))
	default:
		s := compact.DefaultLeveledStrategy(c.levelRatio)
		s.L0Threshold = c.leveled.l0Threshold
		s.TargetSize = c.leveled.targetSize
		return s
	}
}

// configOnDisk is Config's JSON representation, keyed by the
// configuration option names enumerated for the tree directory's
// "config" file.
type configOnDisk struct {
	LevelCount       int                    `json:"level_count"`
	LevelRatio       int                    `json:"level_ratio"`
	DataBlockSize    int                    `json:"data_block_size"`
	IndexBlockSize   int                    `json:"index_block_size"`
	RestartInterval  int                    `json:"restart_interval"`
	Compression      block.CompressionType  `json:"compression"`
	BloomFPRate      float64                `json:"bloom_fp_rate"`
	UseBlockedFilter bool                   `json:"use_blocked_filter"`

	Strategy           CompactionKind `json:"compaction_strategy"`
	LeveledL0Threshold int            `json:"leveled_l0_threshold"`
	LeveledTargetSize  uint64         `json:"leveled_target_size"`
	TieredBaseSize     uint64         `json:"tiered_base_size"`
	FIFOLimit          uint64         `json:"fifo_limit"`
	FIFOTTL            time.Duration  `json:"fifo_ttl_nanos"`
}

// MarshalJSON encodes c for storage in a tree directory's "config" file.
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(configOnDisk{
		LevelCount:         c.levelCount,
		LevelRatio:         c.levelRatio,
		DataBlockSize:      c.dataBlockSize,
		IndexBlockSize:     c.indexBlockSize,
		RestartInterval:    c.restartInterval,
		Compression:        c.compression,
		BloomFPRate:        c.bloomFPRate,
		UseBlockedFilter:   c.useBlockedFilter,
		Strategy:           c.strategy,
		LeveledL0Threshold: c.leveled.l0Threshold,
		LeveledTargetSize:  c.leveled.targetSize,
		TieredBaseSize:     c.tiered.baseSize,
		FIFOLimit:          c.fifo.limit,
		FIFOTTL:            c.fifo.ttl,
	})
}

// UnmarshalJSON decodes c from a tree directory's "config" file.
func (c *Config) UnmarshalJSON(data []byte) error {
	var d configOnDisk
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*c = Config{
		levelCount:       d.LevelCount,
		levelRatio:       d.LevelRatio,
		dataBlockSize:    d.DataBlockSize,
		indexBlockSize:   d.IndexBlockSize,
		restartInterval:  d.RestartInterval,
		compression:      d.Compression,
		bloomFPRate:      d.BloomFPRate,
		useBlockedFilter: d.UseBlockedFilter,
		strategy:         d.Strategy,
		leveled:          leveledConfig{l0Threshold: d.LeveledL0Threshold, targetSize: d.LeveledTargetSize},
		tiered:           tieredConfig{baseSize: d.TieredBaseSize},
		fifo:             fifoConfig{limit: d.FIFOLimit, ttl: d.FIFOTTL},
	}
	return nil
}

// LoadConfig reads and decodes the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	c := &Config{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}
	return c, nil
}

// SaveConfig atomically writes c's JSON encoding to path.
func SaveConfig(path string, c *Config) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return atomicfile.RewriteAtomic(path, data)
}
