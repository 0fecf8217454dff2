// file: internal/flags.go

package internal

import (
	"fmt"
	"math"

	"github.com/spf13/pflag"
)

// Geometry holds the filesystem geometry flags shared by every command that
// may create or reformat an image.
type Geometry struct {
	SizeMiB    uint64
	Entries    uint64
	BlockSize  uint64
	FileBlocks uint64
}

// Bind registers the geometry flags on fs, using the current field values as
// defaults.
func (g *Geometry) Bind(fs *pflag.FlagSet) {
	fs.Uint64Var(&g.SizeMiB, "size", g.SizeMiB, "image size in MiB")
	fs.Uint64Var(&g.Entries, "entries", g.Entries, "directory table slots, root included")
	fs.Uint64Var(&g.BlockSize, "block-size", g.BlockSize, "block size in bytes")
	fs.Uint64Var(&g.FileBlocks, "file-blocks", g.FileBlocks, "maximum blocks per file")
}

// Changed reports whether any geometry flag was set on the command line.
func (g *Geometry) Changed(fs *pflag.FlagSet) bool {
	for _, name := range []string{"size", "entries", "block-size", "file-blocks"} {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

// SizeBytes returns the image size in bytes, or an error when the size in
// MiB does not fit in a byte count.
func (g *Geometry) SizeBytes() (uint64, error) {
	if g.SizeMiB > math.MaxUint64>>20 {
		return 0, fmt.Errorf("image size of %d MiB is too large", g.SizeMiB)
	}
	return g.SizeMiB << 20, nil
}

func (g *Geometry) String() string {
	size := fmt.Sprintf("%d MiB", g.SizeMiB)
	if n, err := g.SizeBytes(); err == nil {
		size = HumanSize(n)
	}
	return fmt.Sprintf("%s, %d entries, %d-byte blocks, %d blocks per file",
		size, g.Entries, g.BlockSize, g.FileBlocks)
}
