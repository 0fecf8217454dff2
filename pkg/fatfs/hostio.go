// file: pkg/fatfs/hostio.go

package fatfs

import (
	"fmt"
	"io"
	"os"
)

// MaxFileSize is the largest file the filesystem accepts.
func (fs *FS) MaxFileSize() uint64 {
	return fs.cfg.FileMaxBlocks * fs.cfg.BlockSize
}

// ImportFile copies a host file into a new file called name under parent.
// The new entry is removed again if the copy fails.
func (fs *FS) ImportFile(hostPath string, parent int, name string) (int, error) {
	src, err := os.Open(hostPath)
	if err != nil {
		return -1, err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return -1, err
	}
	if info.IsDir() {
		return -1, fmt.Errorf("%w: %s", ErrIsDirectory, hostPath)
	}
	if uint64(info.Size()) > fs.MaxFileSize() {
		return -1, fmt.Errorf("%w: %s is %d bytes, max is %d",
			ErrFileTooLarge, hostPath, info.Size(), fs.MaxFileSize())
	}

	slot, err := fs.CreateEntry(name, parent, false)
	if err != nil {
		return -1, err
	}
	if err := fs.ImportFrom(slot, src); err != nil {
		if rerr := fs.Remove(slot); rerr != nil {
			fs.log.WithError(rerr).Warn("failed to roll back import")
		}
		return -1, err
	}
	return slot, nil
}

// ImportFrom appends everything read from r to the file at slot.
func (fs *FS) ImportFrom(slot int, r io.Reader) error {
	dst, err := fs.OpenFile(slot)
	if err != nil {
		return err
	}
	if _, err := dst.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	_, err = io.Copy(dst, r)
	return err
}

// ExportFile copies the file at slot to a host file.
func (fs *FS) ExportFile(slot int, hostPath string) error {
	src, err := fs.OpenFile(slot)
	if err != nil {
		return err
	}

	dst, err := os.Create(hostPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
