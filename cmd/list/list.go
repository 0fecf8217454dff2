// file: cmd/list/list.go

package list

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ha1tch/ghonsla/internal"
	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// FileEntry represents an entry in the directory listing
type FileEntry struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Slot   int    `json:"slot"`
	Size   uint64 `json:"size"`
	Blocks int    `json:"blocks"`
	Dir    bool   `json:"dir"`
}

// ListOptions configures the directory listing
type ListOptions struct {
	DiskPath  string // Path to disk image, shown in the header
	JSON      bool   // Output in JSON format
	Recursive bool   // Descend into subdirectories
	Sort      string // Sort order: slot, name, size
	Reverse   bool   // Reverse sort order
	Pattern   string // Filter by name pattern
	Human     bool   // Human-readable sizes
	Quiet     bool   // Suppress non-error output
	Out       io.Writer
}

// DefaultListOptions returns default options for List
func DefaultListOptions() *ListOptions {
	return &ListOptions{
		JSON:      false,
		Recursive: false,
		Sort:      "slot",
		Reverse:   false,
		Pattern:   "*",
		Human:     false,
		Quiet:     false,
		Out:       os.Stdout,
	}
}

// List displays the contents of a directory in the image
func List(diskPath string, dirPath string, opts *ListOptions) error {
	if opts == nil {
		opts = DefaultListOptions()
	}
	opts.DiskPath = diskPath
	if dirPath == "" {
		dirPath = fatfs.RootName
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	fs, err := fatfs.Load(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer fs.Release()

	slot, err := fs.Resolve(dirPath)
	if err != nil {
		return err
	}
	if e, _ := fs.Entry(slot); !e.IsDir {
		return fmt.Errorf("%w: %s", fatfs.ErrNotDirectory, dirPath)
	}

	files, err := collect(fs, slot, opts)
	if err != nil {
		return err
	}

	if opts.JSON {
		return outputJSON(opts.Out, files)
	}
	if opts.Recursive {
		return outputTree(fs, slot, opts)
	}
	return outputDOS(dirPath, files, fs.Stats(), opts)
}

// collect gathers the children of slot, or with Recursive every entry
// below it in pre-order.
func collect(fs *fatfs.FS, slot int, opts *ListOptions) ([]FileEntry, error) {
	var files []FileEntry
	err := fs.Walk(slot, func(s int, e fatfs.Entry) error {
		if s == slot {
			return nil
		}
		path, err := fs.Path(s)
		if err != nil {
			return err
		}
		if !opts.Recursive {
			if p, _ := e.Parent.Get(); p != uint64(slot) {
				return nil
			}
		}
		if matchesPattern(e.Name, opts.Pattern) {
			files = append(files, fileEntry(fs, s, path, e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !opts.Recursive {
		sortFiles(files, opts)
	}
	return files, nil
}

func fileEntry(fs *fatfs.FS, slot int, path string, e fatfs.Entry) FileEntry {
	blocks := 0
	if !e.IsDir {
		blocks = int(internal.CeilDiv(e.Size, fs.Config().BlockSize))
	}
	return FileEntry{
		Path:   path,
		Name:   e.Name,
		Slot:   slot,
		Size:   e.Size,
		Blocks: blocks,
		Dir:    e.IsDir,
	}
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}

func sortFiles(files []FileEntry, opts *ListOptions) {
	less := func(i, j int) bool {
		var result bool
		switch strings.ToLower(opts.Sort) {
		case "size":
			result = files[i].Size < files[j].Size
		case "name":
			result = files[i].Name < files[j].Name
		default: // "slot"
			result = files[i].Slot < files[j].Slot
		}
		if opts.Reverse {
			return !result
		}
		return result
	}
	sort.SliceStable(files, less)
}

func outputJSON(w io.Writer, files []FileEntry) error {
	if files == nil {
		files = []FileEntry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(files)
}

func formatSize(size uint64, opts *ListOptions) string {
	if opts.Human {
		return internal.HumanSize(size)
	}
	return internal.FormatWithCommas(size)
}

func outputDOS(dirPath string, files []FileEntry, st fatfs.Stats, opts *ListOptions) error {
	if opts.Quiet {
		return nil
	}
	w := opts.Out

	fmt.Fprintf(w, "\n Directory of %s:%s\n\n", opts.DiskPath, dirPath)
	if len(files) == 0 {
		fmt.Fprintln(w, "File Not Found")
	}

	var totalFiles, totalDirs int
	var totalBytes uint64
	for _, file := range files {
		if file.Dir {
			fmt.Fprintf(w, "%4d    <DIR>          %s\n", file.Slot, file.Name)
			totalDirs++
			continue
		}
		fmt.Fprintf(w, "%4d  %14s  %s\n", file.Slot, formatSize(file.Size, opts), file.Name)
		totalFiles++
		totalBytes += file.Size
	}

	fmt.Fprintf(w, "\n    %d File(s)    %14s bytes\n", totalFiles, internal.FormatWithCommas(totalBytes))
	fmt.Fprintf(w, "    %d Dir(s)     %14s bytes free\n", totalDirs,
		internal.FormatWithCommas(st.FreeBlocks*st.BlockSize))
	return nil
}

// outputTree prints the subtree at slot with one level of indentation per
// directory.
func outputTree(fs *fatfs.FS, slot int, opts *ListOptions) error {
	if opts.Quiet {
		return nil
	}
	w := opts.Out

	depth := map[int]int{slot: 0}
	return fs.Walk(slot, func(s int, e fatfs.Entry) error {
		if s != slot {
			p, _ := e.Parent.Get()
			depth[s] = depth[int(p)] + 1
		}
		if !matchesPattern(e.Name, opts.Pattern) && s != slot {
			return nil
		}

		indent := strings.Repeat("  ", depth[s])
		switch {
		case e.IsDir && s == slot:
			fmt.Fprintf(w, "%s\n", e.Name)
		case e.IsDir:
			fmt.Fprintf(w, "%s%s/\n", indent, e.Name)
		default:
			fmt.Fprintf(w, "%s%s (%s)\n", indent, e.Name, formatSize(e.Size, opts))
		}
		return nil
	})
}
