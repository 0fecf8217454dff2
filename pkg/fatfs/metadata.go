// file: pkg/fatfs/metadata.go

package fatfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ha1tch/ghonsla/pkg/disk"
)

// configRecord is the on-disk form of Config, first in block 0.
type configRecord struct {
	Size          uint64
	EntryCount    uint64
	BlockSize     uint64
	FileMaxBlocks uint64
	NumBlocks     uint64
	NumMetaBlocks uint64
}

// entryHead and entryTail surround the variable-length name of an entry.
type entryHead struct {
	Valid   uint8
	IsDir   uint8
	NameLen uint16
}

type entryTail struct {
	Size       uint64
	Parent     uint64
	FirstBlock uint64
}

type fatRecord struct {
	Used uint64
	Next uint64
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// encodeMetadata lays out the config record, every directory entry and the
// whole FAT back to back in a buffer of exactly NumMetaBlocks blocks.
func encodeMetadata(cfg Config, dir *Directory, fat *FAT) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(cfg.MetadataBytes()))

	rec := configRecord(cfg)
	if err := binary.Write(&buf, binary.LittleEndian, &rec); err != nil {
		return nil, fmt.Errorf("error encoding configuration record: %w", err)
	}

	for i := range dir.Entries {
		e := &dir.Entries[i]
		head := entryHead{
			Valid:   boolByte(e.Valid),
			IsDir:   boolByte(e.IsDir),
			NameLen: uint16(len(e.Name)),
		}
		if err := binary.Write(&buf, binary.LittleEndian, &head); err != nil {
			return nil, fmt.Errorf("error encoding directory entry %d: %w", i, err)
		}
		buf.WriteString(e.Name)
		tail := entryTail{
			Size:       e.Size,
			Parent:     e.Parent.encode(),
			FirstBlock: e.FirstBlock.encode(),
		}
		if err := binary.Write(&buf, binary.LittleEndian, &tail); err != nil {
			return nil, fmt.Errorf("error encoding directory entry %d: %w", i, err)
		}
	}

	records := make([]fatRecord, len(fat.entries))
	for i, fe := range fat.entries {
		records[i] = fatRecord{Used: fe.Used, Next: fe.Next.encode()}
	}
	if err := binary.Write(&buf, binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("error encoding FAT: %w", err)
	}

	out := make([]byte, cfg.NumMetaBlocks*cfg.BlockSize)
	if buf.Len() > len(out) {
		return nil, fmt.Errorf("%w: metadata is %d bytes, %d reserved",
			ErrCorruptMetadata, buf.Len(), len(out))
	}
	copy(out, buf.Bytes())
	return out, nil
}

// Serialize writes the configuration, directory table and FAT into the
// metadata blocks of dev. It stops at the first failed block write; the
// metadata on disk may then be a mix of old and new blocks.
func Serialize(dev disk.Device, cfg Config, dir *Directory, fat *FAT) error {
	data, err := encodeMetadata(cfg, dir, fat)
	if err != nil {
		return err
	}

	bs := cfg.BlockSize
	for i := uint64(0); i < cfg.NumMetaBlocks; i++ {
		if err := dev.WriteBlock(i, data[i*bs:(i+1)*bs]); err != nil {
			return fmt.Errorf("failed to write metadata block %d: %w", i, err)
		}
	}
	return nil
}

// decodeConfig parses and validates a configuration record.
func decodeConfig(data []byte) (Config, error) {
	var rec configRecord
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &rec); err != nil {
		return Config{}, fmt.Errorf("%w: configuration record: %v", ErrCorruptMetadata, err)
	}
	stored := Config(rec)

	cfg := Config{
		Size:          stored.Size,
		EntryCount:    stored.EntryCount,
		BlockSize:     stored.BlockSize,
		FileMaxBlocks: stored.FileMaxBlocks,
	}
	if err := ComputeBlockCounts(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrCorruptMetadata, err)
	}
	if cfg != stored {
		return Config{}, fmt.Errorf("%w: stored block counts %d/%d do not match geometry (%d/%d)",
			ErrCorruptMetadata, stored.NumBlocks, stored.NumMetaBlocks, cfg.NumBlocks, cfg.NumMetaBlocks)
	}
	return cfg, nil
}

// decodeName keeps the root name as the shared constant.
func decodeName(b []byte) string {
	switch {
	case len(b) == 0:
		return ""
	case string(b) == RootName:
		return RootName
	}
	return string(b)
}

// decodeTables parses the directory table and FAT that follow the config
// record.
func decodeTables(cfg Config, data []byte) (*Directory, *FAT, error) {
	r := bytes.NewReader(data)

	dir := &Directory{Entries: make([]Entry, cfg.EntryCount)}
	for i := range dir.Entries {
		var head entryHead
		if err := binary.Read(r, binary.LittleEndian, &head); err != nil {
			return nil, nil, fmt.Errorf("%w: directory entry %d: %v", ErrCorruptMetadata, i, err)
		}
		if head.NameLen > MaxNameLen {
			return nil, nil, fmt.Errorf("%w: directory entry %d: name length %d",
				ErrCorruptMetadata, i, head.NameLen)
		}
		name := make([]byte, head.NameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, nil, fmt.Errorf("%w: directory entry %d: %v", ErrCorruptMetadata, i, err)
		}
		var tail entryTail
		if err := binary.Read(r, binary.LittleEndian, &tail); err != nil {
			return nil, nil, fmt.Errorf("%w: directory entry %d: %v", ErrCorruptMetadata, i, err)
		}

		dir.Entries[i] = Entry{
			Valid:      head.Valid != 0,
			IsDir:      head.IsDir != 0,
			Name:       decodeName(name),
			Size:       tail.Size,
			Parent:     decodeIndex(tail.Parent),
			FirstBlock: decodeIndex(tail.FirstBlock),
		}
	}

	root := dir.Entries[RootSlot]
	if !root.Valid || !root.IsDir || !root.Parent.IsNone() {
		return nil, nil, fmt.Errorf("%w: slot 0 is not the root directory", ErrCorruptMetadata)
	}

	records := make([]fatRecord, cfg.NumBlocks)
	if err := binary.Read(r, binary.LittleEndian, records); err != nil {
		return nil, nil, fmt.Errorf("%w: FAT: %v", ErrCorruptMetadata, err)
	}
	fat := &FAT{entries: make([]FATEntry, cfg.NumBlocks), reserved: cfg.NumMetaBlocks}
	for i, rec := range records {
		fat.entries[i] = FATEntry{Used: rec.Used, Next: decodeIndex(rec.Next)}
	}
	return dir, fat, nil
}

// Deserialize reads the metadata blocks of dev. The configuration record is
// read from the start of block 0 first since it fixes the block size and the
// number of metadata blocks. The returned FAT has no free-list head; Mount
// rebuilds it.
func Deserialize(dev disk.Device) (Config, *Directory, *FAT, error) {
	head := make([]byte, configRecordSize)
	if err := dev.ReadBlock(0, head); err != nil {
		return Config{}, nil, nil, fmt.Errorf("failed to read configuration record: %w", err)
	}
	cfg, err := decodeConfig(head)
	if err != nil {
		return Config{}, nil, nil, err
	}
	if need := int64(cfg.NumBlocks * cfg.BlockSize); dev.Size() < need {
		return Config{}, nil, nil, fmt.Errorf("%w: image is %d bytes, geometry needs %d",
			ErrCorruptMetadata, dev.Size(), need)
	}

	bs := cfg.BlockSize
	data := make([]byte, cfg.NumMetaBlocks*bs)
	for i := uint64(0); i < cfg.NumMetaBlocks; i++ {
		if err := dev.ReadBlock(i, data[i*bs:(i+1)*bs]); err != nil {
			return Config{}, nil, nil, fmt.Errorf("failed to read metadata block %d: %w", i, err)
		}
	}

	dir, fat, err := decodeTables(cfg, data[configRecordSize:])
	if err != nil {
		return Config{}, nil, nil, err
	}
	return cfg, dir, fat, nil
}
