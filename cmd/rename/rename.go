// file: cmd/rename/rename.go

package rename

import (
	"fmt"
	"io"
	"os"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// RenameOptions configures the rename operation
type RenameOptions struct {
	Quiet bool // Suppress non-error output
	Out   io.Writer
}

// DefaultRenameOptions returns default options for Rename
func DefaultRenameOptions() *RenameOptions {
	return &RenameOptions{
		Quiet: false,
		Out:   os.Stdout,
	}
}

// Rename gives the entry at path a new name in the same directory
func Rename(diskPath string, path string, newName string, opts *RenameOptions) (err error) {
	if opts == nil {
		opts = DefaultRenameOptions()
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	fs, err := fatfs.Load(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer func() {
		if cerr := fs.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to save disk: %w", cerr)
		}
	}()

	slot, err := fs.Resolve(path)
	if err != nil {
		return err
	}
	if err := fs.Rename(slot, newName); err != nil {
		return fmt.Errorf("failed to rename %s: %w", path, err)
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Renamed %s to %s\n", path, newName)
	}
	return nil
}
