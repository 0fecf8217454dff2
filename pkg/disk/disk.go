package disk

import (
	"errors"
	"fmt"

	"github.com/ha1tch/ghonsla/internal"
)

var (
	ErrOutOfBounds = errors.New("block outside of backing store")
	ErrShortIO     = errors.New("short block transfer")
	ErrBlockSize   = errors.New("invalid block buffer size")
	ErrClosed      = errors.New("backing store is closed")
)

// Device is a fixed-size store addressed in whole blocks. The block size of
// a transfer is the length of the buffer handed in, so a caller can read the
// start of block 0 before it knows the real block size.
type Device interface {
	ReadBlock(index uint64, p []byte) error
	WriteBlock(index uint64, p []byte) error
	Size() int64
	Sync() error
	Close() error
}

// Resizer is implemented by devices whose capacity can be changed, which a
// reformat with a different size needs.
type Resizer interface {
	Truncate(size int64) error
}

// checkRange validates that block index of len(p) bytes fits inside size.
func checkRange(index uint64, p []byte, size int64) (int64, error) {
	if len(p) == 0 {
		return 0, ErrBlockSize
	}
	off := internal.BlockOffset(index, len(p))
	if off < 0 || off+int64(len(p)) > size {
		return 0, fmt.Errorf("%w: block %d of %d bytes, store is %d bytes",
			ErrOutOfBounds, index, len(p), size)
	}
	return off, nil
}

// Memory is a Device backed by a byte slice. Used by tests and by callers
// that want a throwaway filesystem.
type Memory struct {
	data   []byte
	closed bool
}

var _ Device = (*Memory)(nil)

// NewMemory returns a zeroed in-memory device of size bytes.
func NewMemory(size int64) *Memory {
	return &Memory{data: make([]byte, size)}
}

func (m *Memory) ReadBlock(index uint64, p []byte) error {
	if m.closed {
		return ErrClosed
	}
	off, err := checkRange(index, p, int64(len(m.data)))
	if err != nil {
		return fmt.Errorf("disk read error: %w", err)
	}
	copy(p, m.data[off:])
	return nil
}

func (m *Memory) WriteBlock(index uint64, p []byte) error {
	if m.closed {
		return ErrClosed
	}
	off, err := checkRange(index, p, int64(len(m.data)))
	if err != nil {
		return fmt.Errorf("disk write error: %w", err)
	}
	copy(m.data[off:], p)
	return nil
}

func (m *Memory) Size() int64 {
	return int64(len(m.data))
}

// Truncate resizes the device, zeroing its contents.
func (m *Memory) Truncate(size int64) error {
	m.data = make([]byte, size)
	return nil
}

func (m *Memory) Sync() error {
	return nil
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}
