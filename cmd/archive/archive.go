// file: cmd/archive/archive.go

package archive

import (
	"fmt"
	"io"
	"os"

	fsarchive "github.com/ha1tch/ghonsla/pkg/archive"
	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// ArchiveOptions configures tree export and import
type ArchiveOptions struct {
	Config fatfs.Config // Geometry used if Import has to create the image
	Quiet  bool         // Suppress non-error output
	Out    io.Writer
}

// DefaultArchiveOptions returns default options for Export and Import
func DefaultArchiveOptions() *ArchiveOptions {
	return &ArchiveOptions{
		Config: fatfs.DefaultConfig(),
		Quiet:  false,
		Out:    os.Stdout,
	}
}

// Export writes the whole tree of the image to archivePath
func Export(diskPath string, archivePath string, opts *ArchiveOptions) error {
	if opts == nil {
		opts = DefaultArchiveOptions()
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	fs, err := fatfs.Load(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer fs.Release()

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	n, err := fsarchive.Export(out, fs)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(archivePath)
		return fmt.Errorf("failed to export: %w", err)
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Exported %d entries to %s\n", n, archivePath)
	}
	return nil
}

// Import recreates the entries of archivePath in the image, creating the
// image when it does not exist
func Import(diskPath string, archivePath string, opts *ArchiveOptions) (err error) {
	if opts == nil {
		opts = DefaultArchiveOptions()
	}

	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer in.Close()

	fs, err := fatfs.Open(diskPath, opts.Config)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer func() {
		if cerr := fs.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to save disk: %w", cerr)
		}
	}()

	n, err := fsarchive.Import(in, fs)
	if err != nil {
		return fmt.Errorf("failed to import after %d entries: %w", n, err)
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Imported %d entries from %s\n", n, archivePath)
	}
	return nil
}
