// file: pkg/fatfs/errors.go

package fatfs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig   = errors.New("invalid filesystem configuration")
	ErrNotFound        = errors.New("entry not found")
	ErrExists          = errors.New("entry already exists")
	ErrNameTooLong     = errors.New("name too long")
	ErrInvalidName     = errors.New("invalid name")
	ErrDirectoryFull   = errors.New("directory table is full")
	ErrNotDirectory    = errors.New("not a directory")
	ErrIsDirectory     = errors.New("is a directory")
	ErrRootEntry       = errors.New("operation not permitted on root")
	ErrNoSpace         = errors.New("no available blocks")
	ErrFileTooLarge    = errors.New("file block limit exceeded")
	ErrOutOfRange      = errors.New("offset out of range")
	ErrCorruptChain    = errors.New("block chain ends before logical size")
	ErrCorruptMetadata = errors.New("corrupt metadata")
	ErrClosed          = errors.New("filesystem is closed")
)

// ConfigError reports a configuration that cannot be laid out on disk.
type ConfigError struct {
	Size       uint64
	BlockSize  uint64
	EntryCount uint64
	Message    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s (size=%d, block size=%d, entries=%d): %s",
		ErrInvalidConfig, e.Size, e.BlockSize, e.EntryCount, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// CheckError is a single invariant violation found by Check.
type CheckError struct {
	Field   string
	Message string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check error - %s: %s", e.Field, e.Message)
}
