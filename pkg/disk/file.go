package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// File is a Device backed by a single host file of fixed size.
type File struct {
	f    *os.File
	size int64
}

var _ Device = (*File)(nil)

// Create creates (or truncates) path and sizes it to size bytes.
func Create(path string, size int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create image file %s: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size image file: %w", err)
	}
	return &File{f: f, size: size}, nil
}

// Open opens an existing image file for reading and writing.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	return &File{f: f, size: info.Size()}, nil
}

func (d *File) ReadBlock(index uint64, p []byte) error {
	if d.f == nil {
		return ErrClosed
	}
	off, err := checkRange(index, p, d.size)
	if err != nil {
		return fmt.Errorf("disk read error: %w", err)
	}
	n, err := d.f.ReadAt(p, off)
	if n < len(p) {
		if err == nil || errors.Is(err, io.EOF) {
			err = ErrShortIO
		}
		return fmt.Errorf("disk read error: block %d: %w", index, err)
	}
	return nil
}

func (d *File) WriteBlock(index uint64, p []byte) error {
	if d.f == nil {
		return ErrClosed
	}
	off, err := checkRange(index, p, d.size)
	if err != nil {
		return fmt.Errorf("disk write error: %w", err)
	}
	n, err := d.f.WriteAt(p, off)
	if err != nil {
		return fmt.Errorf("disk write error: block %d: %w", index, err)
	}
	if n < len(p) {
		return fmt.Errorf("disk write error: block %d: %w", index, ErrShortIO)
	}
	return nil
}

func (d *File) Size() int64 {
	return d.size
}

// Truncate resizes the backing file. Existing contents are discarded.
func (d *File) Truncate(size int64) error {
	if d.f == nil {
		return ErrClosed
	}
	if err := d.f.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate image file: %w", err)
	}
	if err := d.f.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate image file: %w", err)
	}
	d.size = size
	return nil
}

func (d *File) Sync() error {
	if d.f == nil {
		return ErrClosed
	}
	if err := d.f.Sync(); err != nil {
		return fmt.Errorf("disk sync error: %w", err)
	}
	return nil
}

func (d *File) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	if err != nil {
		return fmt.Errorf("disk close error: %w", err)
	}
	return nil
}
