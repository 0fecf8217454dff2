package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

func buildImage(t *testing.T) string {
	t.Helper()
	diskPath := filepath.Join(t.TempDir(), "extract.fs")
	cfg := fatfs.Config{Size: 128 * 1024, EntryCount: 16, BlockSize: 512, FileMaxBlocks: 8}
	fs, err := fatfs.Create(diskPath, cfg)
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	dir, err := fs.CreateEntry("docs", fatfs.RootSlot, true)
	if err != nil {
		t.Fatalf("Failed to create docs: %v", err)
	}
	slot, err := fs.CreateEntry("readme", dir, false)
	if err != nil {
		t.Fatalf("Failed to create readme: %v", err)
	}
	if err := fs.WriteAt(slot, 0, bytes.Repeat([]byte("r"), 700)); err != nil {
		t.Fatalf("Failed to write readme: %v", err)
	}
	if _, err := fs.CreateEntry("empty", fatfs.RootSlot, false); err != nil {
		t.Fatalf("Failed to create empty: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Failed to close image: %v", err)
	}
	return diskPath
}

func TestExtract(t *testing.T) {
	diskPath := buildImage(t)
	outDir := t.TempDir()

	opts := DefaultExtractOptions()
	opts.OutputDir = outDir
	opts.Out = &bytes.Buffer{}
	if err := Extract(diskPath, "/docs/readme", "", opts); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "readme"))
	if err != nil {
		t.Fatalf("Failed to read extracted file: %v", err)
	}
	if !bytes.Equal(data, bytes.Repeat([]byte("r"), 700)) {
		t.Errorf("Extracted content differs: %d bytes", len(data))
	}

	if err := Extract(diskPath, "/docs/readme", "", opts); err == nil {
		t.Error("Expected error extracting over an existing file")
	}
	opts.Overwrite = true
	if err := Extract(diskPath, "/docs/readme", "", opts); err != nil {
		t.Errorf("Extract with overwrite failed: %v", err)
	}

	if err := Extract(diskPath, "/docs/missing", "", opts); err == nil {
		t.Error("Expected error for a missing file")
	}
	if err := Extract(diskPath, "/docs", "", opts); err == nil {
		t.Error("Expected error extracting a directory")
	}
}

func TestExtractToWriter(t *testing.T) {
	diskPath := buildImage(t)

	var out bytes.Buffer
	opts := DefaultExtractOptions()
	opts.Out = &out
	if err := Extract(diskPath, "/docs/readme", "-", opts); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if out.Len() != 700 {
		t.Errorf("Wrote %d bytes, want 700", out.Len())
	}
}

func TestExtractAll(t *testing.T) {
	diskPath := buildImage(t)
	outDir := t.TempDir()

	var out bytes.Buffer
	opts := DefaultExtractOptions()
	opts.OutputDir = outDir
	opts.Out = &out
	if err := ExtractAll(diskPath, opts); err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}

	if info, err := os.Stat(filepath.Join(outDir, "docs", "readme")); err != nil || info.Size() != 700 {
		t.Errorf("docs/readme not extracted: %v", err)
	}
	if info, err := os.Stat(filepath.Join(outDir, "empty")); err != nil || info.Size() != 0 {
		t.Errorf("empty not extracted: %v", err)
	}
	if want := "Extracted 2 files from disk image\n"; out.String() != want {
		t.Errorf("Output: got %q, want %q", out.String(), want)
	}
}
