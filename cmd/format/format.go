// file: cmd/format/format.go

package format

import (
	"fmt"
	"io"
	"os"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// FormatOptions configures reformatting an image. Geometry fields left at
// zero keep the image's current value.
type FormatOptions struct {
	Size          uint64 // New image size in bytes
	EntryCount    uint64 // New directory table size
	BlockSize     uint64 // New block size
	FileMaxBlocks uint64 // New per-file block cap
	Quiet         bool   // Suppress non-error output
	Out           io.Writer
}

// DefaultFormatOptions returns default options for Format
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Quiet: false,
		Out:   os.Stdout,
	}
}

// apply overrides the geometry of cfg with the non-zero option fields
func (o *FormatOptions) apply(cfg fatfs.Config) fatfs.Config {
	if o.Size != 0 {
		cfg.Size = o.Size
	}
	if o.EntryCount != 0 {
		cfg.EntryCount = o.EntryCount
	}
	if o.BlockSize != 0 {
		cfg.BlockSize = o.BlockSize
	}
	if o.FileMaxBlocks != 0 {
		cfg.FileMaxBlocks = o.FileMaxBlocks
	}
	return cfg
}

// Format erases every entry of the image, optionally changing its geometry
func Format(diskPath string, opts *FormatOptions) (err error) {
	if opts == nil {
		opts = DefaultFormatOptions()
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	fs, err := fatfs.Load(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer func() {
		if err != nil {
			fs.Release()
			return
		}
		if cerr := fs.Close(); cerr != nil {
			err = fmt.Errorf("failed to save disk: %w", cerr)
		}
	}()

	cfg := opts.apply(fs.Config())
	if err := fs.Format(cfg); err != nil {
		return fmt.Errorf("failed to format disk: %w", err)
	}

	if !opts.Quiet {
		cfg = fs.Config()
		fmt.Fprintf(opts.Out, "Formatted %s: %d blocks of %d bytes, %d free\n",
			diskPath, cfg.NumBlocks, cfg.BlockSize, fs.Stats().FreeBlocks)
	}
	return nil
}
