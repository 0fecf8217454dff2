// file: cmd/create/create_test.go

package create

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

func testOptions() *CreateOptions {
	opts := DefaultCreateOptions()
	opts.Config = fatfs.Config{Size: 256 * 1024, EntryCount: 16, BlockSize: 1024, FileMaxBlocks: 16}
	opts.Out = io.Discard
	return opts
}

func TestCreate(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "test.fs")

	if err := Create(outPath, testOptions()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("Output file not created: %v", err)
	}
	if info.Size() != 256*1024 {
		t.Errorf("Image size: got %d, want %d", info.Size(), 256*1024)
	}

	nestedPath := filepath.Join(tmpDir, "sub", "nested.fs")
	if err := Create(nestedPath, testOptions()); err != nil {
		t.Errorf("Create with nested path failed: %v", err)
	}
}

func TestCreateExisting(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "test.fs")
	if err := Create(outPath, testOptions()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := Create(outPath, testOptions()); err == nil {
		t.Error("Expected error creating over an existing image")
	}

	opts := testOptions()
	opts.Force = true
	opts.Config.Size = 512 * 1024
	if err := Create(outPath, opts); err != nil {
		t.Fatalf("Forced create failed: %v", err)
	}
	info, _ := os.Stat(outPath)
	if info.Size() != 512*1024 {
		t.Errorf("Forced create did not resize image: %d", info.Size())
	}
}

func TestCreateInvalidGeometry(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "bad.fs")
	opts := testOptions()
	opts.Config.Size = 2048

	err := Create(outPath, opts)
	if !errors.Is(err, fatfs.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("Image file written despite invalid geometry")
	}
}
