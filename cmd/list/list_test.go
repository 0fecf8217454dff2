package list

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// buildImage creates an image holding /b.txt (3 bytes), /a.txt (10 bytes)
// and /sub/c.bin.
func buildImage(t *testing.T) string {
	t.Helper()
	diskPath := filepath.Join(t.TempDir(), "list.fs")
	cfg := fatfs.Config{Size: 128 * 1024, EntryCount: 16, BlockSize: 512, FileMaxBlocks: 8}
	fs, err := fatfs.Create(diskPath, cfg)
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}

	write := func(name string, parent int, data string) {
		slot, err := fs.CreateEntry(name, parent, false)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if err := fs.WriteAt(slot, 0, []byte(data)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	write("b.txt", fatfs.RootSlot, "bbb")
	write("a.txt", fatfs.RootSlot, "aaaaaaaaaa")
	sub, err := fs.CreateEntry("sub", fatfs.RootSlot, true)
	if err != nil {
		t.Fatalf("Failed to create sub: %v", err)
	}
	write("c.bin", sub, "c")

	if err := fs.Close(); err != nil {
		t.Fatalf("Failed to close image: %v", err)
	}
	return diskPath
}

func listJSON(t *testing.T, diskPath, dirPath string, opts *ListOptions) []FileEntry {
	t.Helper()
	var out bytes.Buffer
	opts.JSON = true
	opts.Out = &out
	if err := List(diskPath, dirPath, opts); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var files []FileEntry
	if err := json.Unmarshal(out.Bytes(), &files); err != nil {
		t.Fatalf("Failed to decode listing: %v", err)
	}
	return files
}

func names(files []FileEntry) string {
	var n []string
	for _, f := range files {
		n = append(n, f.Name)
	}
	return strings.Join(n, ",")
}

func TestListSorting(t *testing.T) {
	diskPath := buildImage(t)

	tests := []struct {
		name    string
		sort    string
		reverse bool
		want    string
	}{
		{"slot order", "slot", false, "b.txt,a.txt,sub"},
		{"by name", "name", false, "a.txt,b.txt,sub"},
		{"by size", "size", false, "sub,b.txt,a.txt"},
		{"by name reversed", "name", true, "sub,b.txt,a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultListOptions()
			opts.Sort = tt.sort
			opts.Reverse = tt.reverse
			if got := names(listJSON(t, diskPath, "/", opts)); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestListEntries(t *testing.T) {
	diskPath := buildImage(t)

	opts := DefaultListOptions()
	opts.Recursive = true
	files := listJSON(t, diskPath, "/", opts)
	if got := names(files); got != "b.txt,a.txt,sub,c.bin" {
		t.Errorf("Recursive listing: got %s", got)
	}
	last := files[len(files)-1]
	if last.Path != "/sub/c.bin" || last.Size != 1 || last.Blocks != 1 || last.Dir {
		t.Errorf("Unexpected entry: %+v", last)
	}

	opts = DefaultListOptions()
	opts.Pattern = "*.txt"
	if got := names(listJSON(t, diskPath, "/", opts)); got != "b.txt,a.txt" {
		t.Errorf("Pattern listing: got %s", got)
	}

	opts = DefaultListOptions()
	if got := listJSON(t, diskPath, "/sub", opts); len(got) != 1 || got[0].Name != "c.bin" {
		t.Errorf("Subdirectory listing: got %+v", got)
	}
}

func TestListOutput(t *testing.T) {
	diskPath := buildImage(t)

	var out bytes.Buffer
	opts := DefaultListOptions()
	opts.Out = &out
	if err := List(diskPath, "/", opts); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, want := range []string{"Directory of", "<DIR>", "a.txt", "2 File(s)", "1 Dir(s)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Listing missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	opts.Recursive = true
	if err := List(diskPath, "/", opts); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !strings.Contains(out.String(), "  sub/\n    c.bin (1)\n") {
		t.Errorf("Tree output not indented:\n%s", out.String())
	}
}

func TestListErrors(t *testing.T) {
	diskPath := buildImage(t)
	opts := DefaultListOptions()
	opts.Out = &bytes.Buffer{}

	if err := List(diskPath, "/a.txt", opts); !errors.Is(err, fatfs.ErrNotDirectory) {
		t.Errorf("Listing a file: got %v, want ErrNotDirectory", err)
	}
	if err := List(diskPath, "/missing", opts); !errors.Is(err, fatfs.ErrNotFound) {
		t.Errorf("Listing a missing path: got %v, want ErrNotFound", err)
	}
	if err := List(filepath.Join(t.TempDir(), "none.fs"), "/", opts); err == nil {
		t.Error("Expected error for a missing image")
	}
}
