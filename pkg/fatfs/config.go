// file: pkg/fatfs/config.go

package fatfs

import (
	"fmt"
	"math"

	"github.com/ha1tch/ghonsla/internal"
)

const (
	DefaultImageName     = "disk.fs"
	DefaultSize          = 64 << 20 // 64 MiB
	DefaultEntryCount    = 128
	DefaultBlockSize     = 1024
	DefaultFileMaxBlocks = 128

	MaxNameLen = 64  // bytes
	RootName   = "/" // name stored in slot 0
	RootSlot   = 0

	wordSize         = 8
	configRecordSize = 6 * wordSize
	entryFixedSize   = 1 + 1 + 2 + 3*wordSize // valid, isDir, nameLen, size, parent, first
	maxEntrySize     = entryFixedSize + MaxNameLen
	fatRecordSize    = 2 * wordSize
)

// Config holds the user-chosen geometry of a filesystem and the block
// counts derived from it. NumBlocks and NumMetaBlocks are filled in by
// ComputeBlockCounts and must not be set by hand.
type Config struct {
	Size          uint64 // bytes
	EntryCount    uint64 // directory table slots, root included
	BlockSize     uint64 // bytes
	FileMaxBlocks uint64 // per-file block cap

	NumBlocks     uint64
	NumMetaBlocks uint64
}

// DefaultConfig returns the stock geometry with its block counts computed.
func DefaultConfig() Config {
	cfg := Config{
		Size:          DefaultSize,
		EntryCount:    DefaultEntryCount,
		BlockSize:     DefaultBlockSize,
		FileMaxBlocks: DefaultFileMaxBlocks,
	}
	// the defaults always fit
	_ = ComputeBlockCounts(&cfg)
	return cfg
}

// MetadataBytes is the worst-case serialized size of the configuration
// record, a full directory table and the FAT. Only meaningful once
// ComputeBlockCounts has accepted the configuration.
func (c *Config) MetadataBytes() uint64 {
	return configRecordSize + maxEntrySize*c.EntryCount + fatRecordSize*c.NumBlocks
}

// DataBlocks is the number of blocks available for file content.
func (c *Config) DataBlocks() uint64 {
	return c.NumBlocks - c.NumMetaBlocks
}

// SameGeometry reports whether two configurations describe the same layout.
func (c Config) SameGeometry(o Config) bool {
	return c.Size == o.Size && c.EntryCount == o.EntryCount &&
		c.BlockSize == o.BlockSize && c.FileMaxBlocks == o.FileMaxBlocks
}

// ComputeBlockCounts derives NumBlocks and NumMetaBlocks from the user
// parameters and rejects geometries whose metadata does not fit.
func ComputeBlockCounts(cfg *Config) error {
	fail := func(format string, args ...any) error {
		return &ConfigError{
			Size:       cfg.Size,
			BlockSize:  cfg.BlockSize,
			EntryCount: cfg.EntryCount,
			Message:    fmt.Sprintf(format, args...),
		}
	}

	if cfg.BlockSize < configRecordSize {
		return fail("block size must be at least %d bytes", configRecordSize)
	}
	if cfg.EntryCount == 0 {
		return fail("entry count must include the root entry")
	}
	if cfg.FileMaxBlocks == 0 {
		return fail("files must be allowed at least one block")
	}
	// image offsets are int64
	if cfg.Size > math.MaxInt64 {
		return fail("size must not exceed %d bytes", int64(math.MaxInt64))
	}

	cfg.NumBlocks = cfg.Size / cfg.BlockSize
	fatBytes := fatRecordSize * cfg.NumBlocks
	if cfg.EntryCount > (math.MaxUint64-configRecordSize-fatBytes)/maxEntrySize {
		return fail("entry count %d is too large", cfg.EntryCount)
	}
	cfg.NumMetaBlocks = internal.CeilDiv(cfg.MetadataBytes(), cfg.BlockSize) + 1

	if cfg.NumMetaBlocks > cfg.NumBlocks {
		return fail("metadata needs %d blocks but the filesystem only has %d; "+
			"increase size or block size, or reduce the entry count",
			cfg.NumMetaBlocks, cfg.NumBlocks)
	}
	return nil
}
