// file: cmd/blockmap/blockmap.go

package blockmap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
	"github.com/ha1tch/ghonsla/pkg/report"
)

// BlockMapOptions configures the block map report
type BlockMapOptions struct {
	Quiet bool // Suppress non-error output
	Out   io.Writer
}

// DefaultBlockMapOptions returns default options for BlockMap
func DefaultBlockMapOptions() *BlockMapOptions {
	return &BlockMapOptions{
		Quiet: false,
		Out:   os.Stdout,
	}
}

// BlockMap renders the allocation of every block in the image as a PNG
func BlockMap(diskPath string, imagePath string, opts *BlockMapOptions) error {
	if opts == nil {
		opts = DefaultBlockMapOptions()
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	fs, err := fatfs.Load(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer fs.Release()

	if dir := filepath.Dir(imagePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := report.SaveBlockMap(imagePath, fs); err != nil {
		return fmt.Errorf("failed to write block map: %w", err)
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Block map written to %s\n", imagePath)
	}
	return nil
}
