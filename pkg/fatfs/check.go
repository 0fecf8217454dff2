// file: pkg/fatfs/check.go

package fatfs

import (
	"fmt"
)

// BlockKind classifies a block in BlockUsage.
type BlockKind int

const (
	BlockMeta BlockKind = iota
	BlockFree
	BlockFile
	BlockLost // neither free nor owned by a file
)

// BlockOwner describes one block. Slot is set for BlockFile.
type BlockOwner struct {
	Kind BlockKind
	Slot int
}

// BlockUsage classifies every block of the filesystem.
func (fs *FS) BlockUsage() []BlockOwner {
	usage := make([]BlockOwner, fs.fat.Len())
	for i := range usage {
		usage[i] = BlockOwner{Kind: BlockLost, Slot: -1}
		if uint64(i) < fs.cfg.NumMetaBlocks {
			usage[i].Kind = BlockMeta
		}
	}

	free, _ := fs.fat.freeList()
	for _, blk := range free {
		usage[blk].Kind = BlockFree
	}
	for slot := range fs.dir.Entries {
		e := &fs.dir.Entries[slot]
		if !e.Valid || e.IsDir {
			continue
		}
		blocks, _ := fs.fat.chain(e.FirstBlock)
		for _, blk := range blocks {
			usage[blk] = BlockOwner{Kind: BlockFile, Slot: slot}
		}
	}
	return usage
}

// Check verifies the structural invariants of the directory table and FAT
// and returns every violation found.
func (fs *FS) Check() []error {
	var errs []error
	report := func(field, format string, args ...any) {
		errs = append(errs, &CheckError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	errs = append(errs, fs.checkDirectory()...)

	owner := make(map[uint64]string)
	claim := func(blk uint64, who string) {
		if prev, ok := owner[blk]; ok {
			report("fat", "block %d claimed by %s and %s", blk, prev, who)
			return
		}
		owner[blk] = who
	}

	for slot := range fs.dir.Entries {
		e := &fs.dir.Entries[slot]
		if !e.Valid || e.IsDir {
			continue
		}
		field := fmt.Sprintf("entry %d (%s)", slot, e.Name)
		blocks, err := fs.fat.chain(e.FirstBlock)
		if err != nil {
			report(field, "%v", err)
			continue
		}

		var used uint64
		for _, blk := range blocks {
			claim(blk, field)
			used += fs.fat.entries[blk].Used
		}
		if n := uint64(len(blocks)); n*fs.cfg.BlockSize < e.Size {
			report(field, "%d blocks cannot hold %d bytes", n, e.Size)
		}
		if uint64(len(blocks)) > fs.cfg.FileMaxBlocks {
			report(field, "%d blocks exceeds limit of %d", len(blocks), fs.cfg.FileMaxBlocks)
		}
		if used != e.Size {
			report(field, "blocks hold %d bytes, size is %d", used, e.Size)
		}
	}

	free, err := fs.fat.freeList()
	if err != nil {
		report("free list", "%v", err)
	}
	for _, blk := range free {
		claim(blk, "free list")
		if fs.fat.entries[blk].Used != 0 {
			report("free list", "free block %d has %d bytes in use", blk, fs.fat.entries[blk].Used)
		}
	}
	if uint64(len(free)) != fs.fat.FreeBlocks() {
		report("free list", "%d blocks linked, %d counted", len(free), fs.fat.FreeBlocks())
	}

	for blk := fs.cfg.NumMetaBlocks; blk < fs.fat.Len(); blk++ {
		if _, ok := owner[blk]; !ok {
			report("fat", "block %d is neither free nor in a file", blk)
		}
	}
	return errs
}

func (fs *FS) checkDirectory() []error {
	var errs []error
	report := func(field, format string, args ...any) {
		errs = append(errs, &CheckError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	root := fs.dir.Entries[RootSlot]
	if !root.Valid || !root.IsDir || root.Name != RootName || !root.Parent.IsNone() || !root.FirstBlock.IsNone() {
		report("root", "slot 0 is not an empty root directory")
	}

	type key struct {
		name   string
		parent uint64
	}
	seen := make(map[key]int)

	for slot := RootSlot + 1; slot < len(fs.dir.Entries); slot++ {
		e := &fs.dir.Entries[slot]
		field := fmt.Sprintf("entry %d (%s)", slot, e.Name)
		if !e.Valid {
			if e.Name != "" || !e.FirstBlock.IsNone() {
				report(field, "invalid slot is not cleared")
			}
			continue
		}
		if err := validateName(e.Name); err != nil {
			report(field, "%v", err)
		}
		if e.IsDir && (e.Size != 0 || !e.FirstBlock.IsNone()) {
			report(field, "directory has size or blocks")
		}

		parent, ok := e.Parent.Get()
		if !ok {
			report(field, "entry has no parent")
			continue
		}
		if _, err := fs.dir.dir(int(parent)); err != nil || parent == uint64(slot) {
			report(field, "parent %d is not a directory", parent)
			continue
		}
		k := key{e.Name, parent}
		if prev, dup := seen[k]; dup {
			report(field, "duplicate of slot %d", prev)
		}
		seen[k] = slot

		if !fs.reachesRoot(slot) {
			report(field, "not reachable from root")
		}
	}
	return errs
}

// reachesRoot follows parent links from slot and reports whether they end
// at the root without looping.
func (fs *FS) reachesRoot(slot int) bool {
	cur := slot
	for steps := 0; steps < len(fs.dir.Entries); steps++ {
		if cur == RootSlot {
			return true
		}
		p, ok := fs.dir.Entries[cur].Parent.Get()
		if !ok || p >= uint64(len(fs.dir.Entries)) {
			return false
		}
		cur = int(p)
	}
	return false
}
