// file: cmd/create/create.go

package create

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// CreateOptions configures image creation
type CreateOptions struct {
	Config fatfs.Config // Geometry of the new filesystem
	Force  bool         // Overwrite existing file
	Quiet  bool         // Suppress non-error output
	Out    io.Writer
}

// DefaultCreateOptions returns default options for Create
func DefaultCreateOptions() *CreateOptions {
	return &CreateOptions{
		Config: fatfs.DefaultConfig(),
		Force:  false,
		Quiet:  false,
		Out:    os.Stdout,
	}
}

// Create creates and formats a new filesystem image
func Create(outPath string, opts *CreateOptions) error {
	if opts == nil {
		opts = DefaultCreateOptions()
	}

	// Reject a bad geometry before anything touches the disk
	cfg := opts.Config
	if err := fatfs.ComputeBlockCounts(&cfg); err != nil {
		return err
	}

	outPath = filepath.Clean(outPath)
	if !opts.Force {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("file already exists: %s (use force to overwrite)", outPath)
		}
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	fs, err := fatfs.Create(outPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := fs.Close(); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("failed to save image: %w", err)
	}

	if err := verifyImage(outPath); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("image verification failed: %w", err)
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Created filesystem image: %s\n", outPath)
		fmt.Fprintf(opts.Out, "%d blocks of %d bytes, %d for metadata, %d entries\n",
			cfg.NumBlocks, cfg.BlockSize, cfg.NumMetaBlocks, cfg.EntryCount)
	}
	return nil
}

// verifyImage reloads the image and runs the consistency check
func verifyImage(path string) error {
	fs, err := fatfs.Load(path)
	if err != nil {
		return err
	}
	defer fs.Release()

	if errs := fs.Check(); len(errs) > 0 {
		return fmt.Errorf("%d problems, first: %w", len(errs), errs[0])
	}
	return nil
}
