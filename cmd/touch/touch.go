// file: cmd/touch/touch.go

package touch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// TouchOptions configures empty file creation
type TouchOptions struct {
	Config fatfs.Config // Geometry used if the image has to be created
	Quiet  bool         // Suppress non-error output
	Out    io.Writer
}

// DefaultTouchOptions returns default options for Touch
func DefaultTouchOptions() *TouchOptions {
	return &TouchOptions{
		Config: fatfs.DefaultConfig(),
		Quiet:  false,
		Out:    os.Stdout,
	}
}

// Touch creates an empty file in the image unless an entry of that name
// already exists
func Touch(diskPath string, filePath string, opts *TouchOptions) (err error) {
	if opts == nil {
		opts = DefaultTouchOptions()
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

	parent, name, err := fs.ResolveParent(filePath)
	if err != nil {
		return err
	}
	if _, err := fs.Lookup(name, parent); err == nil {
		return nil
	} else if !errors.Is(err, fatfs.ErrNotFound) {
		return err
	}

	slot, err := fs.CreateEntry(name, parent, false)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Created %s (slot %d)\n", filePath, slot)
	}
	return nil
}
