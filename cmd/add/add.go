// file: cmd/add/add.go

package add

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// AddOptions configures the Add operation
type AddOptions struct {
	Config fatfs.Config // Geometry used if the image has to be created
	Force  bool         // Replace an existing file
	Quiet  bool         // Suppress non-error output
	Out    io.Writer
}

// DefaultAddOptions returns default options for Add
func DefaultAddOptions() *AddOptions {
	return &AddOptions{
		Config: fatfs.DefaultConfig(),
		Force:  false,
		Quiet:  false,
		Out:    os.Stdout,
	}
}

// Add imports a host file into the image. destPath may name the new file or
// an existing directory to copy into; empty means the root.
func Add(diskPath string, filePath string, destPath string, opts *AddOptions) (err error) {
	if opts == nil {
		opts = DefaultAddOptions()
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %w", err)
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

	parent, name, err := destination(fs, filePath, destPath)
	if err != nil {
		return err
	}

	if existing, err := fs.Lookup(name, parent); err == nil {
		if !opts.Force {
			return fmt.Errorf("file already exists: %s (use force to overwrite)", name)
		}
		if e, _ := fs.Entry(existing); e.IsDir {
			return fmt.Errorf("%w: %s", fatfs.ErrIsDirectory, name)
		}
		if err := fs.Remove(existing); err != nil {
			return fmt.Errorf("failed to replace %s: %w", name, err)
		}
	}

	slot, err := fs.ImportFile(filePath, parent, name)
	if err != nil {
		return fmt.Errorf("failed to import file: %w", err)
	}

	if !opts.Quiet {
		e, _ := fs.Entry(slot)
		fmt.Fprintf(opts.Out, "Added %s to disk image as %s (%d bytes)\n",
			filepath.Base(filePath), name, e.Size)
	}
	return nil
}

// destination works out the parent directory and entry name for the import.
func destination(fs *fatfs.FS, filePath, destPath string) (int, string, error) {
	base := filepath.Base(filePath)
	if destPath == "" || destPath == fatfs.RootName {
		return fatfs.RootSlot, base, nil
	}

	if !strings.HasSuffix(destPath, "/") {
		slot, err := fs.Resolve(destPath)
		if err == nil {
			if e, _ := fs.Entry(slot); e.IsDir {
				return slot, base, nil
			}
		} else if !errors.Is(err, fatfs.ErrNotFound) {
			return -1, "", err
		}
		return fs.ResolveParent(destPath)
	}

	slot, err := fs.Resolve(destPath)
	if err != nil {
		return -1, "", err
	}
	if e, _ := fs.Entry(slot); !e.IsDir {
		return -1, "", fmt.Errorf("%w: %s", fatfs.ErrNotDirectory, destPath)
	}
	return slot, base, nil
}
