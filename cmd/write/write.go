// file: cmd/write/write.go

package write

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// WriteOptions configures writing data into a file
type WriteOptions struct {
	Config   fatfs.Config // Geometry used if the image has to be created
	Offset   uint64       // Byte offset of the write, at most the file size
	Append   bool         // Write at the end of the file, ignores Offset
	Truncate bool         // Empty the file before writing
	Quiet    bool         // Suppress non-error output
	Out      io.Writer
}

// DefaultWriteOptions returns default options for Write
func DefaultWriteOptions() *WriteOptions {
	return &WriteOptions{
		Config:   fatfs.DefaultConfig(),
		Offset:   0,
		Append:   false,
		Truncate: false,
		Quiet:    false,
		Out:      os.Stdout,
	}
}

// Write stores data in the file at filePath, creating the file (and the
// image) when missing
func Write(diskPath string, filePath string, data []byte, opts *WriteOptions) (err error) {
	if opts == nil {
		opts = DefaultWriteOptions()
	}

	fs, err := fatfs.Open(diskPath, opts.Config)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	// a failed write must not persist a truncation or a new entry
	defer func() {
		if err != nil {
			fs.Release()
			return
		}
		if cerr := fs.Close(); cerr != nil {
			err = fmt.Errorf("failed to save disk: %w", cerr)
		}
	}()

	parent, name, err := fs.ResolveParent(filePath)
	if err != nil {
		return err
	}
	slot, err := fs.Lookup(name, parent)
	if errors.Is(err, fatfs.ErrNotFound) {
		slot, err = fs.CreateEntry(name, parent, false)
	}
	if err != nil {
		return err
	}

	if opts.Truncate {
		if !opts.Append && opts.Offset > 0 {
			return fmt.Errorf("failed to write %s: %w: offset %d after truncate",
				filePath, fatfs.ErrOutOfRange, opts.Offset)
		}
		if err := fs.Truncate(slot); err != nil {
			return err
		}
	}
	if opts.Append {
		err = fs.AppendTo(slot, data)
	} else {
		err = fs.WriteAt(slot, opts.Offset, data)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}

	if !opts.Quiet {
		e, _ := fs.Entry(slot)
		fmt.Fprintf(opts.Out, "Wrote %d bytes to %s, size now %d\n", len(data), filePath, e.Size)
	}
	return nil
}
