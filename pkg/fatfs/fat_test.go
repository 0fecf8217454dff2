// file: pkg/fatfs/fat_test.go

package fatfs

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewFAT(t *testing.T) {
	fat := newFAT(4, 10)

	if fat.FreeBlocks() != 6 {
		t.Errorf("Free blocks: got %d, want 6", fat.FreeBlocks())
	}
	free, err := fat.freeList()
	if err != nil {
		t.Fatalf("Failed to walk free list: %v", err)
	}
	if got := fmt.Sprint(free); got != "[4 5 6 7 8 9]" {
		t.Errorf("Free list: got %s", got)
	}
	for i := uint64(0); i < 4; i++ {
		if fat.Entry(i) != (FATEntry{}) {
			t.Errorf("Metadata block %d has FAT entry %+v", i, fat.Entry(i))
		}
	}
}

func TestFATNoDataBlocks(t *testing.T) {
	fat := newFAT(4, 4)
	if fat.FreeBlocks() != 0 || !fat.head.IsNone() {
		t.Errorf("Expected empty free list, got head %s count %d", fat.head, fat.FreeBlocks())
	}
	if _, err := fat.allocate(); !errors.Is(err, ErrNoSpace) {
		t.Errorf("Expected ErrNoSpace, got %v", err)
	}
}

func TestAllocateRelease(t *testing.T) {
	fat := newFAT(2, 6)

	var got []uint64
	for i := 0; i < 4; i++ {
		blk, err := fat.allocate()
		if err != nil {
			t.Fatalf("Allocate %d failed: %v", i, err)
		}
		if fat.Entry(blk) != (FATEntry{}) {
			t.Errorf("Allocated block %d not cleared", blk)
		}
		got = append(got, blk)
	}
	if fmt.Sprint(got) != "[2 3 4 5]" {
		t.Errorf("Allocation order: got %v", got)
	}
	if _, err := fat.allocate(); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("Expected ErrNoSpace, got %v", err)
	}

	// chain 5 -> 3 and release it in one splice
	fat.entries[5].Next = Some(3)
	fat.entries[3].Next = None
	fat.release(5, 3, 2)

	if fat.FreeBlocks() != 2 {
		t.Errorf("Free blocks: got %d, want 2", fat.FreeBlocks())
	}
	free, _ := fat.freeList()
	if fmt.Sprint(free) != "[5 3]" {
		t.Errorf("Free list: got %v", free)
	}

	// a second release goes in front of the first
	fat.release(2, 2, 1)
	free, _ = fat.freeList()
	if fmt.Sprint(free) != "[2 5 3]" {
		t.Errorf("Free list: got %v", free)
	}

	blk, _ := fat.allocate()
	if blk != 2 {
		t.Errorf("Allocate after release: got %d, want 2", blk)
	}
}

func TestChainCorruption(t *testing.T) {
	fat := newFAT(2, 8)

	t.Run("loop", func(t *testing.T) {
		fat.entries[5].Next = Some(6)
		fat.entries[6].Next = Some(5)
		if _, err := fat.chain(Some(5)); !errors.Is(err, ErrCorruptChain) {
			t.Errorf("Expected ErrCorruptChain, got %v", err)
		}
	})

	t.Run("self loop", func(t *testing.T) {
		fat.entries[4].Next = Some(4)
		if _, err := fat.chain(Some(4)); !errors.Is(err, ErrCorruptChain) {
			t.Errorf("Expected ErrCorruptChain, got %v", err)
		}
	})

	t.Run("outside table", func(t *testing.T) {
		fat.entries[3].Next = Some(100)
		if _, err := fat.chain(Some(3)); !errors.Is(err, ErrCorruptChain) {
			t.Errorf("Expected ErrCorruptChain, got %v", err)
		}
	})

	t.Run("into metadata", func(t *testing.T) {
		if _, err := fat.chain(Some(1)); !errors.Is(err, ErrCorruptChain) {
			t.Errorf("Expected ErrCorruptChain, got %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		blocks, err := fat.chain(None)
		if err != nil || len(blocks) != 0 {
			t.Errorf("Empty chain: got %v, %v", blocks, err)
		}
	})
}

func TestRebuildFreeList(t *testing.T) {
	fat := newFAT(2, 8)
	fat.entries[4] = FATEntry{Used: 10, Next: Some(6)}
	fat.entries[6] = FATEntry{Used: 20}
	fat.entries[3] = FATEntry{Used: 99, Next: Some(7)} // stale

	inUse := []bool{true, true, false, false, true, false, true, false}
	fat.rebuildFreeList(2, inUse)

	free, err := fat.freeList()
	if err != nil {
		t.Fatalf("Failed to walk free list: %v", err)
	}
	if fmt.Sprint(free) != "[2 3 5 7]" {
		t.Errorf("Free list: got %v", free)
	}
	if fat.FreeBlocks() != 4 {
		t.Errorf("Free blocks: got %d, want 4", fat.FreeBlocks())
	}
	if fat.Entry(3).Used != 0 {
		t.Error("Stale free block not cleared")
	}
	if fat.Entry(4) != (FATEntry{Used: 10, Next: Some(6)}) {
		t.Errorf("In-use block changed: %+v", fat.Entry(4))
	}
}
