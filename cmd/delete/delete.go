// file: cmd/delete/delete.go

package delete

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// DeleteOptions configures the deletion operation
type DeleteOptions struct {
	Force bool // Skip confirmation
	Quiet bool // Suppress non-error output
	In    io.Reader
	Out   io.Writer
}

// DefaultDeleteOptions returns default options for Delete
func DefaultDeleteOptions() *DeleteOptions {
	return &DeleteOptions{
		Force: false,
		Quiet: false,
		In:    os.Stdin,
		Out:   os.Stdout,
	}
}

// Delete removes a file, or a directory and everything below it, from the
// image
func Delete(diskPath string, path string, opts *DeleteOptions) (err error) {
	if opts == nil {
		opts = DefaultDeleteOptions()
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path cannot be empty")
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
		return fmt.Errorf("file not found: %w", err)
	}

	if !opts.Force {
		what := path
		if e, _ := fs.Entry(slot); e.IsDir {
			children, _ := fs.ListChildren(slot)
			what = fmt.Sprintf("directory %s (%d entries)", path, len(children))
		}
		fmt.Fprintf(opts.Out, "Delete %s? (y/N) ", what)
		response, _ := bufio.NewReader(opts.In).ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "y") {
			if !opts.Quiet {
				fmt.Fprintln(opts.Out, "Deletion cancelled")
			}
			return nil
		}
	}

	if err := fs.Remove(slot); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Deleted %s\n", path)
	}
	return nil
}
