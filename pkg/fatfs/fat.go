// file: pkg/fatfs/fat.go

package fatfs

import (
	"fmt"
)

// FATEntry is the allocation record of one block.
type FATEntry struct {
	Used uint64 // bytes in use, high-water mark
	Next Index  // successor in a file chain or in the free list
}

// FAT is the file allocation table together with the free-list cursor.
// Blocks below reserved hold metadata and never enter either structure.
type FAT struct {
	entries  []FATEntry
	head     Index
	free     uint64
	reserved uint64
}

// newFAT creates a table of numBlocks entries whose non-metadata blocks
// form one ascending free list.
func newFAT(reserved, numBlocks uint64) *FAT {
	fat := &FAT{entries: make([]FATEntry, numBlocks)}
	fat.initFreeList(reserved)
	return fat
}

// initFreeList zeroes the table and links every block from reserved to the
// end into the free list.
func (f *FAT) initFreeList(reserved uint64) {
	f.reserved = reserved
	for i := range f.entries {
		f.entries[i] = FATEntry{}
	}

	total := uint64(len(f.entries))
	for i := reserved; i+1 < total; i++ {
		f.entries[i].Next = Some(i + 1)
	}

	f.head = None
	f.free = 0
	if reserved < total {
		f.head = Some(reserved)
		f.free = total - reserved
	}
}

// rebuildFreeList relinks every non-metadata block not marked in inUse into
// an ascending free list. The free-list head is never persisted, so this
// runs after every load.
func (f *FAT) rebuildFreeList(reserved uint64, inUse []bool) {
	f.reserved = reserved
	f.head = None
	f.free = 0

	var tail Index
	for i := reserved; i < uint64(len(f.entries)); i++ {
		if inUse[i] {
			continue
		}
		f.entries[i] = FATEntry{}
		if t, ok := tail.Get(); ok {
			f.entries[t].Next = Some(i)
		} else {
			f.head = Some(i)
		}
		tail = Some(i)
		f.free++
	}
}

// allocate pops the free-list head.
func (f *FAT) allocate() (uint64, error) {
	idx, ok := f.head.Get()
	if !ok {
		return 0, ErrNoSpace
	}
	f.head = f.entries[idx].Next
	f.entries[idx] = FATEntry{}
	f.free--
	return idx, nil
}

// release splices a whole chain of n blocks, head to tail, onto the front of
// the free list.
func (f *FAT) release(head, tail, n uint64) {
	f.entries[tail].Next = f.head
	f.head = Some(head)
	f.free += n
}

// chain returns the blocks of the chain starting at first, in order. A chain
// that leaves the table or loops is reported as corrupt.
func (f *FAT) chain(first Index) ([]uint64, error) {
	var blocks []uint64
	total := uint64(len(f.entries))
	for cur := first; !cur.IsNone(); {
		idx, _ := cur.Get()
		if idx < f.reserved || idx >= total {
			return blocks, fmt.Errorf("%w: block %d outside data area", ErrCorruptChain, idx)
		}
		if uint64(len(blocks)) >= total {
			return blocks, fmt.Errorf("%w: chain from %s loops", ErrCorruptChain, first)
		}
		blocks = append(blocks, idx)
		cur = f.entries[idx].Next
	}
	return blocks, nil
}

// freeList returns the blocks currently on the free list, head first.
func (f *FAT) freeList() ([]uint64, error) {
	return f.chain(f.head)
}

// FreeBlocks returns the number of blocks on the free list.
func (f *FAT) FreeBlocks() uint64 {
	return f.free
}

// Len returns the number of blocks covered by the table.
func (f *FAT) Len() uint64 {
	return uint64(len(f.entries))
}

// Entry returns the record of block i.
func (f *FAT) Entry(i uint64) FATEntry {
	return f.entries[i]
}
