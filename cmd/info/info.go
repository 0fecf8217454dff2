// file: cmd/info/info.go

package info

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ha1tch/ghonsla/internal"
	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// DiskInfo represents image information in a structured format
type DiskInfo struct {
	Path          string    `json:"path"`
	Size          uint64    `json:"size"`
	BlockSize     uint64    `json:"block_size"`
	TotalBlocks   uint64    `json:"total_blocks"`
	MetaBlocks    uint64    `json:"meta_blocks"`
	FreeBlocks    uint64    `json:"free_blocks"`
	UsedBlocks    uint64    `json:"used_blocks"`
	FileMaxBlocks uint64    `json:"file_max_blocks"`
	EntryCapacity uint64    `json:"entry_capacity"`
	Files         int       `json:"files"`
	Directories   int       `json:"directories"`
	BytesUsed     uint64    `json:"bytes_used"`
	Modified      time.Time `json:"modified_time,omitempty"`
	Validation    []string  `json:"validation_issues,omitempty"`
}

// InfoOptions configures the information display
type InfoOptions struct {
	JSON    bool // Output in JSON format
	Verbose bool // Show block-level details
	Check   bool // Run the consistency check
	Quiet   bool // Suppress non-error output
	Out     io.Writer
}

// DefaultInfoOptions returns default options for Info
func DefaultInfoOptions() *InfoOptions {
	return &InfoOptions{
		JSON:    false,
		Verbose: false,
		Check:   true,
		Quiet:   false,
		Out:     os.Stdout,
	}
}

// Info displays information about a filesystem image
func Info(diskPath string, opts *InfoOptions) error {
	if opts == nil {
		opts = DefaultInfoOptions()
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	fs, err := fatfs.Load(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer fs.Release()

	info := gather(diskPath, fs)
	if opts.Check {
		for _, err := range fs.Check() {
			info.Validation = append(info.Validation, err.Error())
		}
	}

	if opts.JSON {
		return outputJSON(opts.Out, info)
	}
	return outputText(info, opts)
}

func gather(diskPath string, fs *fatfs.FS) *DiskInfo {
	cfg := fs.Config()
	st := fs.Stats()
	info := &DiskInfo{
		Path:          diskPath,
		Size:          cfg.Size,
		BlockSize:     st.BlockSize,
		TotalBlocks:   st.TotalBlocks,
		MetaBlocks:    st.MetaBlocks,
		FreeBlocks:    st.FreeBlocks,
		UsedBlocks:    st.UsedBlocks,
		FileMaxBlocks: cfg.FileMaxBlocks,
		EntryCapacity: st.EntryCapacity,
		Files:         st.Files,
		Directories:   st.Directories,
		BytesUsed:     st.BytesUsed,
	}
	if stat, err := os.Stat(diskPath); err == nil {
		info.Modified = stat.ModTime()
	}
	return info
}

func outputJSON(w io.Writer, info *DiskInfo) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func outputText(info *DiskInfo, opts *InfoOptions) error {
	if opts.Quiet && len(info.Validation) == 0 {
		return nil
	}

	w := opts.Out
	fmt.Fprintf(w, "Disk Image: %s\n\n", info.Path)
	fmt.Fprintf(w, "Size:        %s\n", internal.HumanSize(info.Size))
	fmt.Fprintf(w, "Files:       %d\n", info.Files)
	fmt.Fprintf(w, "Directories: %d (including root)\n", info.Directories)
	fmt.Fprintf(w, "Entries:     %d of %d slots\n", info.Files+info.Directories, info.EntryCapacity)
	fmt.Fprintf(w, "Used:        %s in %s bytes of files\n",
		internal.HumanSize(info.UsedBlocks*info.BlockSize), internal.FormatWithCommas(info.BytesUsed))
	fmt.Fprintf(w, "Free:        %s\n", internal.HumanSize(info.FreeBlocks*info.BlockSize))

	if !info.Modified.IsZero() {
		fmt.Fprintf(w, "Modified:    %s\n", info.Modified.Format(time.RFC1123))
	}

	if opts.Verbose {
		fmt.Fprintf(w, "\nFilesystem Parameters:\n")
		fmt.Fprintf(w, "Block Size:  %d bytes\n", info.BlockSize)
		fmt.Fprintf(w, "Blocks:      %s (%s metadata, %s free, %s used)\n",
			internal.FormatWithCommas(info.TotalBlocks), internal.FormatWithCommas(info.MetaBlocks),
			internal.FormatWithCommas(info.FreeBlocks), internal.FormatWithCommas(info.UsedBlocks))
		fmt.Fprintf(w, "File Limit:  %d blocks (%s)\n",
			info.FileMaxBlocks, internal.HumanSize(info.FileMaxBlocks*info.BlockSize))
	}

	if len(info.Validation) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, warning := range info.Validation {
			fmt.Fprintf(w, "- %s\n", warning)
		}
	}
	return nil
}
