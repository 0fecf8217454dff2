// file: cmd/mkdir/mkdir.go

package mkdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// MkdirOptions configures directory creation
type MkdirOptions struct {
	Config  fatfs.Config // Geometry used if the image has to be created
	Parents bool         // Create missing parents, accept an existing directory
	Quiet   bool         // Suppress non-error output
	Out     io.Writer
}

// DefaultMkdirOptions returns default options for Mkdir
func DefaultMkdirOptions() *MkdirOptions {
	return &MkdirOptions{
		Config:  fatfs.DefaultConfig(),
		Parents: false,
		Quiet:   false,
		Out:     os.Stdout,
	}
}

// Mkdir creates a directory in the image, creating the image first if it
// does not exist
func Mkdir(diskPath string, dirPath string, opts *MkdirOptions) (err error) {
	if opts == nil {
		opts = DefaultMkdirOptions()
	}

	fs, err := fatfs.Open(diskPath, opts.Config)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer func() {
		if cerr := fs.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to save disk: %w", cerr)
		}
	}()

	var slot int
	if opts.Parents {
		slot, err = mkdirAll(fs, dirPath)
	} else {
		slot, err = mkdir(fs, dirPath)
	}
	if err != nil {
		return err
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Created directory %s (slot %d)\n", dirPath, slot)
	}
	return nil
}

func mkdir(fs *fatfs.FS, dirPath string) (int, error) {
	parent, name, err := fs.ResolveParent(dirPath)
	if err != nil {
		return -1, err
	}
	return fs.CreateEntry(name, parent, true)
}

// mkdirAll creates every missing directory along dirPath.
func mkdirAll(fs *fatfs.FS, dirPath string) (int, error) {
	slot := fatfs.RootSlot
	for _, name := range strings.Split(dirPath, "/") {
		if name == "" {
			continue
		}
		next, err := fs.Lookup(name, slot)
		switch {
		case err == nil:
			if e, _ := fs.Entry(next); !e.IsDir {
				return -1, fmt.Errorf("%w: %s", fatfs.ErrNotDirectory, name)
			}
		case errors.Is(err, fatfs.ErrNotFound):
			if next, err = fs.CreateEntry(name, slot, true); err != nil {
				return -1, err
			}
		default:
			return -1, err
		}
		slot = next
	}
	return slot, nil
}
