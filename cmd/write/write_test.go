package write

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

func testOptions() *WriteOptions {
	opts := DefaultWriteOptions()
	opts.Config = fatfs.Config{Size: 128 * 1024, EntryCount: 16, BlockSize: 512, FileMaxBlocks: 8}
	opts.Out = io.Discard
	return opts
}

func readFile(t *testing.T, diskPath, path string) string {
	t.Helper()
	fs, err := fatfs.Load(diskPath)
	if err != nil {
		t.Fatalf("Failed to load image: %v", err)
	}
	defer fs.Release()
	slot, err := fs.Resolve(path)
	if err != nil {
		t.Fatalf("Failed to resolve %s: %v", path, err)
	}
	e, _ := fs.Entry(slot)
	data, err := fs.ReadAt(slot, 0, e.Size)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestWrite(t *testing.T) {
	diskPath := filepath.Join(t.TempDir(), "write.fs")

	if err := Write(diskPath, "/note", []byte("hello world"), testOptions()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	opts := testOptions()
	opts.Offset = 6
	if err := Write(diskPath, "/note", []byte("there"), opts); err != nil {
		t.Fatalf("Write at offset failed: %v", err)
	}

	opts = testOptions()
	opts.Append = true
	if err := Write(diskPath, "/note", []byte("!"), opts); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if got := readFile(t, diskPath, "/note"); got != "hello there!" {
		t.Errorf("Content: got %q", got)
	}

	opts = testOptions()
	opts.Truncate = true
	if err := Write(diskPath, "/note", []byte("new"), opts); err != nil {
		t.Fatalf("Truncating write failed: %v", err)
	}
	if got := readFile(t, diskPath, "/note"); got != "new" {
		t.Errorf("Content after truncate: got %q", got)
	}
}

func TestWriteFailureKeepsImage(t *testing.T) {
	diskPath := filepath.Join(t.TempDir(), "write.fs")
	if err := Write(diskPath, "/note", []byte("hello"), testOptions()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	t.Run("truncate with offset", func(t *testing.T) {
		opts := testOptions()
		opts.Truncate = true
		opts.Offset = 10
		err := Write(diskPath, "/note", []byte("x"), opts)
		if !errors.Is(err, fatfs.ErrOutOfRange) {
			t.Fatalf("Expected ErrOutOfRange, got %v", err)
		}
		if got := readFile(t, diskPath, "/note"); got != "hello" {
			t.Errorf("Content changed by failed write: %q", got)
		}
	})

	t.Run("offset past end", func(t *testing.T) {
		opts := testOptions()
		opts.Offset = 100
		if err := Write(diskPath, "/fresh", []byte("x"), opts); !errors.Is(err, fatfs.ErrOutOfRange) {
			t.Fatalf("Expected ErrOutOfRange, got %v", err)
		}
		fs, err := fatfs.Load(diskPath)
		if err != nil {
			t.Fatalf("Failed to load image: %v", err)
		}
		defer fs.Release()
		if _, err := fs.Resolve("/fresh"); !errors.Is(err, fatfs.ErrNotFound) {
			t.Errorf("Entry of failed write was saved: %v", err)
		}
	})
}
