// file: pkg/fatfs/fs.go

package fatfs

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ha1tch/ghonsla/pkg/disk"
)

// FS is a mounted filesystem: the backing device plus the in-memory
// directory table and FAT. It is not safe for concurrent use.
type FS struct {
	dev    disk.Device
	cfg    Config
	dir    *Directory
	fat    *FAT
	log    logrus.FieldLogger
	closed bool
}

// Option configures an FS.
type Option func(*FS)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(fs *FS) {
		fs.log = l
	}
}

func newFS(dev disk.Device, opts []Option) *FS {
	fs := &FS{
		dev: dev,
		log: logrus.StandardLogger().WithField("component", "fatfs"),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// New formats dev with cfg and returns the empty filesystem.
func New(dev disk.Device, cfg Config, opts ...Option) (*FS, error) {
	if err := ComputeBlockCounts(&cfg); err != nil {
		return nil, err
	}
	if need := int64(cfg.NumBlocks * cfg.BlockSize); dev.Size() < need {
		return nil, &ConfigError{
			Size:       cfg.Size,
			BlockSize:  cfg.BlockSize,
			EntryCount: cfg.EntryCount,
			Message:    fmt.Sprintf("device holds %d bytes, need %d", dev.Size(), need),
		}
	}

	fs := newFS(dev, opts)
	fs.reset(cfg)
	if err := fs.Persist(); err != nil {
		return nil, err
	}
	fs.log.WithFields(logrus.Fields{
		"blocks":      cfg.NumBlocks,
		"meta_blocks": cfg.NumMetaBlocks,
		"entries":     cfg.EntryCount,
	}).Debug("formatted filesystem")
	return fs, nil
}

// Mount loads the filesystem stored on dev and rebuilds its free list.
func Mount(dev disk.Device, opts ...Option) (*FS, error) {
	cfg, dir, fat, err := Deserialize(dev)
	if err != nil {
		return nil, err
	}

	fs := newFS(dev, opts)
	fs.cfg, fs.dir, fs.fat = cfg, dir, fat
	if err := fs.rebuildFreeList(); err != nil {
		return nil, err
	}
	fs.log.WithFields(logrus.Fields{
		"blocks":      cfg.NumBlocks,
		"free_blocks": fat.FreeBlocks(),
	}).Debug("mounted filesystem")
	return fs, nil
}

// Create makes a new image file at path and formats it. The configuration
// is validated before the file is touched.
func Create(path string, cfg Config, opts ...Option) (*FS, error) {
	if err := ComputeBlockCounts(&cfg); err != nil {
		return nil, err
	}

	dev, err := disk.Create(path, int64(cfg.Size))
	if err != nil {
		return nil, err
	}
	fs, err := New(dev, cfg, opts...)
	if err != nil {
		dev.Close()
		os.Remove(path)
		return nil, err
	}
	return fs, nil
}

// Load opens and mounts an existing image file.
func Load(path string, opts ...Option) (*FS, error) {
	dev, err := disk.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	fs, err := Mount(dev, opts...)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return fs, nil
}

// Open loads the image at path, or creates it with cfg when it does not
// exist. The geometry of an existing image always wins over cfg.
func Open(path string, cfg Config, opts ...Option) (*FS, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Create(path, cfg, opts...)
	} else if err != nil {
		return nil, err
	}

	fs, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	if !fs.cfg.SameGeometry(cfg) {
		fs.log.WithField("path", path).Warn("image already exists, ignoring requested configuration")
	}
	return fs, nil
}

func (fs *FS) reset(cfg Config) {
	fs.cfg = cfg
	fs.dir = newDirectory(cfg.EntryCount)
	fs.fat = newFAT(cfg.NumMetaBlocks, cfg.NumBlocks)
}

// rebuildFreeList marks every block reachable from a file chain and links
// the rest of the data area into the free list.
func (fs *FS) rebuildFreeList() error {
	inUse := make([]bool, fs.fat.Len())
	for i := uint64(0); i < fs.cfg.NumMetaBlocks; i++ {
		inUse[i] = true
	}
	fs.fat.reserved = fs.cfg.NumMetaBlocks

	for slot := range fs.dir.Entries {
		e := &fs.dir.Entries[slot]
		if !e.Valid {
			continue
		}
		if err := fs.checkParent(slot); err != nil {
			return err
		}
		if e.IsDir {
			if !e.FirstBlock.IsNone() {
				return fmt.Errorf("%w: directory %q owns blocks", ErrCorruptMetadata, e.Name)
			}
			continue
		}
		blocks, err := fs.fat.chain(e.FirstBlock)
		if err != nil {
			return fmt.Errorf("entry %q: %w", e.Name, err)
		}
		for _, blk := range blocks {
			if inUse[blk] {
				return fmt.Errorf("%w: block %d used by %q and another chain",
					ErrCorruptMetadata, blk, e.Name)
			}
			inUse[blk] = true
		}
	}

	fs.fat.rebuildFreeList(fs.cfg.NumMetaBlocks, inUse)
	return nil
}

// checkParent verifies that a valid non-root entry hangs off a valid
// directory and that its parent links lead back to the root.
func (fs *FS) checkParent(slot int) error {
	if slot == RootSlot {
		return nil
	}
	e := &fs.dir.Entries[slot]
	p, ok := e.Parent.Get()
	if !ok || p >= uint64(len(fs.dir.Entries)) || p == uint64(slot) {
		return fmt.Errorf("%w: entry %q has parent %s", ErrCorruptMetadata, e.Name, e.Parent)
	}
	if parent := &fs.dir.Entries[p]; !parent.Valid || !parent.IsDir {
		return fmt.Errorf("%w: parent of %q is not a directory", ErrCorruptMetadata, e.Name)
	}
	if !fs.reachesRoot(slot) {
		return fmt.Errorf("%w: entry %q is not reachable from the root", ErrCorruptMetadata, e.Name)
	}
	return nil
}

// Config returns the geometry of the mounted filesystem.
func (fs *FS) Config() Config {
	return fs.cfg
}

// Entry returns a copy of the valid entry at slot.
func (fs *FS) Entry(slot int) (Entry, error) {
	e, err := fs.dir.get(slot)
	if err != nil {
		return Entry{}, err
	}
	return *e, nil
}

// Lookup finds name under the directory at parent.
func (fs *FS) Lookup(name string, parent int) (int, error) {
	return fs.dir.Lookup(name, parent)
}

// CreateEntry adds an empty file or directory called name under parent.
func (fs *FS) CreateEntry(name string, parent int, isDir bool) (int, error) {
	slot, err := fs.dir.Create(name, parent, isDir)
	if err != nil {
		return -1, err
	}
	fs.log.WithFields(logrus.Fields{
		"slot": slot, "name": name, "parent": parent, "dir": isDir,
	}).Debug("create")
	return slot, nil
}

// Rename gives the entry at slot a new name within the same directory.
func (fs *FS) Rename(slot int, name string) error {
	if err := fs.dir.Rename(slot, name); err != nil {
		return err
	}
	fs.log.WithFields(logrus.Fields{"slot": slot, "name": name}).Debug("rename")
	return nil
}

// Remove deletes the entry at slot. Files release their chain; directories
// remove their children first, in ascending slot order.
func (fs *FS) Remove(slot int) error {
	if slot == RootSlot {
		return ErrRootEntry
	}
	if _, err := fs.dir.get(slot); err != nil {
		return err
	}
	return fs.remove(slot)
}

func (fs *FS) remove(slot int) error {
	e := &fs.dir.Entries[slot]
	if e.IsDir {
		for _, child := range fs.dir.Children(slot) {
			if err := fs.remove(child); err != nil {
				return err
			}
		}
	} else if err := fs.truncateChain(e); err != nil {
		return err
	}

	fs.log.WithFields(logrus.Fields{"slot": slot, "name": e.Name}).Debug("remove")
	fs.dir.clear(slot)
	return nil
}

// ListChildren returns the valid entries directly under parent in slot
// order. The result is a snapshot; it does not follow later mutations.
func (fs *FS) ListChildren(parent int) ([]DirEntry, error) {
	if _, err := fs.dir.dir(parent); err != nil {
		return nil, err
	}
	slots := fs.dir.Children(parent)
	entries := make([]DirEntry, 0, len(slots))
	for _, slot := range slots {
		entries = append(entries, DirEntry{Slot: slot, Entry: fs.dir.Entries[slot]})
	}
	return entries, nil
}

// Format clears every non-root slot and resets the free list. When cfg
// describes a different geometry the tables are rebuilt and a resizable
// device is resized to cfg.Size. A rejected format leaves the filesystem
// untouched.
func (fs *FS) Format(cfg Config) error {
	if err := ComputeBlockCounts(&cfg); err != nil {
		return err
	}

	if cfg.SameGeometry(fs.cfg) {
		for slot := RootSlot + 1; slot < len(fs.dir.Entries); slot++ {
			fs.dir.clear(slot)
		}
		fs.fat.initFreeList(cfg.NumMetaBlocks)
	} else {
		if fs.dev.Size() != int64(cfg.Size) {
			r, ok := fs.dev.(disk.Resizer)
			if !ok {
				return fmt.Errorf("%w: device cannot be resized to %d bytes",
					ErrInvalidConfig, cfg.Size)
			}
			if err := r.Truncate(int64(cfg.Size)); err != nil {
				return err
			}
		}
		fs.reset(cfg)
	}

	fs.log.WithField("blocks", cfg.NumBlocks).Info("formatted filesystem")
	return fs.Persist()
}

// Persist writes the metadata blocks and syncs the device.
func (fs *FS) Persist() error {
	if fs.closed {
		return ErrClosed
	}
	if err := Serialize(fs.dev, fs.cfg, fs.dir, fs.fat); err != nil {
		fs.log.WithError(err).Error("failed to persist metadata")
		return err
	}
	return fs.dev.Sync()
}

// Close persists the metadata and closes the device.
func (fs *FS) Close() error {
	if fs.closed {
		return nil
	}
	err := fs.Persist()
	fs.closed = true
	if cerr := fs.dev.Close(); err == nil {
		err = cerr
	}
	return err
}

// Release closes the device without writing the metadata. Changes made
// since the last Persist are lost.
func (fs *FS) Release() error {
	if fs.closed {
		return nil
	}
	fs.closed = true
	return fs.dev.Close()
}

// Stats summarises block and slot usage.
type Stats struct {
	BlockSize     uint64
	TotalBlocks   uint64
	MetaBlocks    uint64
	FreeBlocks    uint64
	UsedBlocks    uint64
	EntryCapacity uint64
	Files         int
	Directories   int
	BytesUsed     uint64
}

// Stats returns the current usage of the filesystem.
func (fs *FS) Stats() Stats {
	st := Stats{
		BlockSize:     fs.cfg.BlockSize,
		TotalBlocks:   fs.cfg.NumBlocks,
		MetaBlocks:    fs.cfg.NumMetaBlocks,
		FreeBlocks:    fs.fat.FreeBlocks(),
		EntryCapacity: fs.cfg.EntryCount,
	}
	st.UsedBlocks = fs.cfg.DataBlocks() - st.FreeBlocks

	for i := range fs.dir.Entries {
		e := &fs.dir.Entries[i]
		switch {
		case !e.Valid:
		case e.IsDir:
			st.Directories++
		default:
			st.Files++
			st.BytesUsed += e.Size
		}
	}
	return st
}
