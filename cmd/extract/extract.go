// file: cmd/extract/extract.go

package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// ExtractOptions configures the file extraction operation
type ExtractOptions struct {
	OutputDir string // Directory to extract files to
	Overwrite bool   // Allow overwriting existing files
	Quiet     bool   // Suppress non-error output
	Out       io.Writer
}

// DefaultExtractOptions returns default options for Extract
func DefaultExtractOptions() *ExtractOptions {
	return &ExtractOptions{
		OutputDir: "",
		Overwrite: false,
		Quiet:     false,
		Out:       os.Stdout,
	}
}

// Extract copies a file from the image to the host filesystem. An outPath
// of "-" writes the content to opts.Out; an empty outPath uses the file's
// own name.
func Extract(diskPath string, filePath string, outPath string, opts *ExtractOptions) error {
	if opts == nil {
		opts = DefaultExtractOptions()
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	fs, err := fatfs.Load(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer fs.Release()

	slot, err := fs.Resolve(filePath)
	if err != nil {
		return fmt.Errorf("file not found: %w", err)
	}

	if outPath == "-" {
		f, err := fs.OpenFile(slot)
		if err != nil {
			return err
		}
		_, err = io.Copy(opts.Out, f)
		return err
	}

	if outPath == "" {
		e, _ := fs.Entry(slot)
		outPath = e.Name
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outPath = filepath.Join(opts.OutputDir, outPath)
	}

	if !opts.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("output file already exists: %s (use overwrite to replace)", outPath)
		}
	}

	if err := fs.ExportFile(slot, outPath); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("failed to extract file: %w", err)
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Extracted %s to %s\n", filePath, outPath)
	}
	return nil
}

// ExtractAll extracts every file of the image into opts.OutputDir,
// recreating the directory tree
func ExtractAll(diskPath string, opts *ExtractOptions) error {
	if opts == nil {
		opts = DefaultExtractOptions()
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	fs, err := fatfs.Load(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}
	defer fs.Release()

	root := opts.OutputDir
	if root == "" {
		root = "."
	}

	extractedCount := 0
	err = fs.Walk(fatfs.RootSlot, func(slot int, e fatfs.Entry) error {
		path, err := fs.Path(slot)
		if err != nil {
			return err
		}
		hostPath := filepath.Join(root, filepath.FromSlash(path))
		if e.IsDir {
			return os.MkdirAll(hostPath, 0755)
		}
		if !opts.Overwrite {
			if _, err := os.Stat(hostPath); err == nil {
				return fmt.Errorf("output file already exists: %s (use overwrite to replace)", hostPath)
			}
		}
		if err := fs.ExportFile(slot, hostPath); err != nil {
			return fmt.Errorf("failed to extract %s: %w", path, err)
		}
		extractedCount++
		return nil
	})
	if err != nil {
		return err
	}

	if !opts.Quiet {
		fmt.Fprintf(opts.Out, "Extracted %d files from disk image\n", extractedCount)
	}
	return nil
}
