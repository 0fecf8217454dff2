// file: pkg/fatfs/file.go

package fatfs

import (
	"errors"
	"io"
)

// File is an open handle on a file entry. It implements io.Reader,
// io.ReaderAt, io.Writer and io.Seeker on top of the block-chain calls.
type File struct {
	fs       *FS
	slot     int
	position int64
}

var (
	_ io.ReadWriteSeeker = (*File)(nil)
	_ io.ReaderAt        = (*File)(nil)
	_ io.WriterAt        = (*File)(nil)
)

// OpenFile returns a handle on the file entry at slot, positioned at 0.
func (fs *FS) OpenFile(slot int) (*File, error) {
	if _, err := fs.fileEntry(slot); err != nil {
		return nil, err
	}
	return &File{fs: fs, slot: slot}, nil
}

// Slot returns the directory slot of the file.
func (f *File) Slot() int {
	return f.slot
}

// Size returns the current logical size of the file.
func (f *File) Size() int64 {
	e, err := f.fs.fileEntry(f.slot)
	if err != nil {
		return 0
	}
	return int64(e.Size)
}

// Read implements io.Reader
func (f *File) Read(p []byte) (n int, err error) {
	n, err = f.ReadAt(p, f.position)
	f.position += int64(n)
	return
}

// ReadAt implements io.ReaderAt. Unlike FS.ReadAt it returns the bytes
// available and io.EOF when p reaches past the end of the file.
func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	size := f.Size()
	if off >= size {
		return 0, io.EOF
	}

	toRead := min(int64(len(p)), size-off)
	data, err := f.fs.ReadAt(f.slot, uint64(off), uint64(toRead))
	if err != nil {
		return 0, err
	}
	n = copy(p, data)
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

// Write implements io.Writer
func (f *File) Write(p []byte) (n int, err error) {
	n, err = f.WriteAt(p, f.position)
	f.position += int64(n)
	return
}

// WriteAt implements io.WriterAt
func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	if err := f.fs.WriteAt(f.slot, uint64(off), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Seek implements io.Seeker
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.position + offset
	case io.SeekEnd:
		abs = f.Size() + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	f.position = abs
	return abs, nil
}

// Close releases the handle. Metadata is flushed by FS.Persist.
func (f *File) Close() error {
	return nil
}
