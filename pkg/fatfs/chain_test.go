// file: pkg/fatfs/chain_test.go

package fatfs

import (
	"bytes"
	"errors"
	"testing"
)

func TestPartialWritePreservesContent(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "f", RootSlot, false)

	original := pattern(3000, 3)
	if err := fs.WriteAt(slot, 0, original); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	tests := []struct {
		name string
		off  uint64
		n    int
	}{
		{"inside first block", 10, 20},
		{"across block boundary", 1000, 100},
		{"last block", 2990, 10},
		{"whole middle block", 1024, 1024},
	}

	expected := append([]byte(nil), original...)
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch := bytes.Repeat([]byte{byte(0xA0 + i)}, tt.n)
			if err := fs.WriteAt(slot, tt.off, patch); err != nil {
				t.Fatalf("WriteAt failed: %v", err)
			}
			copy(expected[tt.off:], patch)

			e, _ := fs.Entry(slot)
			if e.Size != 3000 {
				t.Errorf("Overwrite changed size to %d", e.Size)
			}
			got, err := fs.ReadAt(slot, 0, 3000)
			if err != nil {
				t.Fatalf("ReadAt failed: %v", err)
			}
			if !bytes.Equal(got, expected) {
				t.Error("Bytes outside the written range changed")
			}
		})
	}
	assertConsistent(t, fs)
}

func TestWriteExtendsFromMiddle(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "f", RootSlot, false)

	if err := fs.WriteAt(slot, 0, pattern(1500, 0)); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	if err := fs.WriteAt(slot, 1000, pattern(1000, 9)); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	e, _ := fs.Entry(slot)
	if e.Size != 2000 {
		t.Errorf("Size: got %d, want 2000", e.Size)
	}

	want := append(pattern(1500, 0)[:1000], pattern(1000, 9)...)
	got, err := fs.ReadAt(slot, 0, 2000)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("Read data doesn't match")
	}
	assertConsistent(t, fs)
}

func TestReadRanges(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "f", RootSlot, false)
	data := pattern(2500, 5)
	if err := fs.WriteAt(slot, 0, data); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	tests := []struct {
		name    string
		off, n  uint64
		wantErr error
	}{
		{"whole file", 0, 2500, nil},
		{"second block", 1024, 1024, nil},
		{"tail", 2048, 452, nil},
		{"empty read at end", 2500, 0, nil},
		{"one past end", 2000, 501, ErrOutOfRange},
		{"offset past end", 2501, 0, ErrOutOfRange},
		{"overflowing range", 1, ^uint64(0), ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.ReadAt(slot, tt.off, tt.n)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadAt failed: %v", err)
			}
			if !bytes.Equal(got, data[tt.off:tt.off+tt.n]) {
				t.Error("Read data doesn't match")
			}
		})
	}
}

func TestReadShortChain(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "f", RootSlot, false)
	if err := fs.WriteAt(slot, 0, pattern(2000, 0)); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	// the entry claims more bytes than its two blocks hold
	fs.dir.Entries[slot].Size = 5000

	_, err := fs.ReadAt(slot, 0, 5000)
	if !errors.Is(err, ErrCorruptChain) {
		t.Errorf("Expected ErrCorruptChain, got %v", err)
	}
	if errors.Is(err, ErrOutOfRange) {
		t.Error("Corrupt chain reported as out of range")
	}

	_, err = fs.ReadAt(slot, 3000, 10)
	if !errors.Is(err, ErrCorruptChain) {
		t.Errorf("Expected ErrCorruptChain skipping to offset, got %v", err)
	}
}

func TestWriteGapRejected(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "f", RootSlot, false)
	if err := fs.WriteAt(slot, 0, []byte("abc")); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	if err := fs.WriteAt(slot, 4, []byte("x")); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for sparse write, got %v", err)
	}
	if err := fs.WriteAt(slot, 3, []byte("d")); err != nil {
		t.Errorf("Write at end failed: %v", err)
	}
}

func TestWriteEmpty(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "f", RootSlot, false)

	if err := fs.WriteAt(slot, 0, nil); err != nil {
		t.Fatalf("Empty write failed: %v", err)
	}
	e, _ := fs.Entry(slot)
	if e.Size != 0 || !e.FirstBlock.IsNone() {
		t.Errorf("Empty write allocated: %+v", e)
	}
	if fs.Stats().FreeBlocks != 60 {
		t.Errorf("Free blocks changed to %d", fs.Stats().FreeBlocks)
	}
}

func TestAppend(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "log", RootSlot, false)

	var want []byte
	for i := 0; i < 10; i++ {
		chunk := pattern(300, byte(i))
		if err := fs.AppendTo(slot, chunk); err != nil {
			t.Fatalf("AppendTo %d failed: %v", i, err)
		}
		want = append(want, chunk...)
	}

	e, _ := fs.Entry(slot)
	if e.Size != 3000 {
		t.Errorf("Size: got %d, want 3000", e.Size)
	}
	got, err := fs.ReadAt(slot, 0, e.Size)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("Appended data doesn't match")
	}
	if fs.Stats().UsedBlocks != 3 {
		t.Errorf("Used blocks: got %d, want 3", fs.Stats().UsedBlocks)
	}
	assertConsistent(t, fs)
}

func TestFileBlockLimit(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "big", RootSlot, false)

	for i := 0; i < 8; i++ {
		if err := fs.AppendTo(slot, pattern(1024, byte(i))); err != nil {
			t.Fatalf("AppendTo block %d failed: %v", i, err)
		}
	}
	free := fs.Stats().FreeBlocks

	err := fs.AppendTo(slot, []byte{1})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Expected ErrFileTooLarge, got %v", err)
	}

	e, _ := fs.Entry(slot)
	if e.Size != 8*1024 {
		t.Errorf("Size changed after rejected append: %d", e.Size)
	}
	if fs.Stats().FreeBlocks != free {
		t.Errorf("Free blocks changed after rejected append: %d -> %d", free, fs.Stats().FreeBlocks)
	}

	// overwriting inside the cap still works
	if err := fs.WriteAt(slot, 8*1024-1, []byte{0xFF}); err != nil {
		t.Errorf("Overwrite of last byte failed: %v", err)
	}
	assertConsistent(t, fs)
}

func TestNoSpaceIsAtomic(t *testing.T) {
	fs := newTestFS(t, smallConfig())

	// seven full files leave 4 of the 60 data blocks
	for i := 0; i < 7; i++ {
		slot := mustCreate(t, fs, string(rune('a'+i)), RootSlot, false)
		if err := fs.WriteAt(slot, 0, pattern(8*1024, byte(i))); err != nil {
			t.Fatalf("WriteAt file %d failed: %v", i, err)
		}
	}
	if fs.Stats().FreeBlocks != 4 {
		t.Fatalf("Free blocks: got %d, want 4", fs.Stats().FreeBlocks)
	}

	slot := mustCreate(t, fs, "last", RootSlot, false)
	err := fs.WriteAt(slot, 0, pattern(5*1024, 0))
	if !errors.Is(err, ErrNoSpace) {
		t.Fatalf("Expected ErrNoSpace, got %v", err)
	}
	e, _ := fs.Entry(slot)
	if e.Size != 0 || !e.FirstBlock.IsNone() {
		t.Errorf("Rejected write modified entry: %+v", e)
	}
	if fs.Stats().FreeBlocks != 4 {
		t.Errorf("Rejected write consumed blocks: %d free", fs.Stats().FreeBlocks)
	}

	if err := fs.WriteAt(slot, 0, pattern(4*1024, 0)); err != nil {
		t.Fatalf("Write of remaining blocks failed: %v", err)
	}
	if fs.Stats().FreeBlocks != 0 {
		t.Errorf("Free blocks: got %d, want 0", fs.Stats().FreeBlocks)
	}
	if err := fs.AppendTo(slot, []byte{1}); !errors.Is(err, ErrNoSpace) {
		t.Errorf("Expected ErrNoSpace on full disk, got %v", err)
	}
	assertConsistent(t, fs)
}

func TestTruncate(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	slot := mustCreate(t, fs, "f", RootSlot, false)

	t.Run("empty file", func(t *testing.T) {
		if err := fs.Truncate(slot); err != nil {
			t.Fatalf("Truncate failed: %v", err)
		}
		if fs.Stats().FreeBlocks != 60 {
			t.Errorf("Free blocks: got %d, want 60", fs.Stats().FreeBlocks)
		}
	})

	t.Run("releases chain", func(t *testing.T) {
		if err := fs.WriteAt(slot, 0, pattern(3000, 0)); err != nil {
			t.Fatalf("WriteAt failed: %v", err)
		}
		if err := fs.Truncate(slot); err != nil {
			t.Fatalf("Truncate failed: %v", err)
		}
		e, _ := fs.Entry(slot)
		if e.Size != 0 || !e.FirstBlock.IsNone() {
			t.Errorf("Entry not emptied: %+v", e)
		}
		if fs.Stats().FreeBlocks != 60 {
			t.Errorf("Free blocks: got %d, want 60", fs.Stats().FreeBlocks)
		}
		assertConsistent(t, fs)
	})

	t.Run("idempotent", func(t *testing.T) {
		if err := fs.Truncate(slot); err != nil {
			t.Fatalf("Second truncate failed: %v", err)
		}
		if fs.Stats().FreeBlocks != 60 {
			t.Errorf("Free blocks: got %d, want 60", fs.Stats().FreeBlocks)
		}
		assertConsistent(t, fs)
	})

	t.Run("rewrite after truncate", func(t *testing.T) {
		if err := fs.WriteAt(slot, 0, []byte("fresh")); err != nil {
			t.Fatalf("WriteAt failed: %v", err)
		}
		got, err := fs.ReadAt(slot, 0, 5)
		if err != nil || string(got) != "fresh" {
			t.Errorf("ReadAt: got %q, %v", got, err)
		}
	})
}

func TestChainOpsOnDirectory(t *testing.T) {
	fs := newTestFS(t, smallConfig())
	dir := mustCreate(t, fs, "d", RootSlot, true)

	if _, err := fs.ReadAt(dir, 0, 0); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("ReadAt on directory: got %v", err)
	}
	if err := fs.WriteAt(dir, 0, []byte("x")); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("WriteAt on directory: got %v", err)
	}
	if err := fs.Truncate(RootSlot); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("Truncate on root: got %v", err)
	}
	if err := fs.AppendTo(42, []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("AppendTo on bad slot: got %v", err)
	}
}
