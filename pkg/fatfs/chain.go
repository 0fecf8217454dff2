// file: pkg/fatfs/chain.go

package fatfs

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ha1tch/ghonsla/internal"
)

// fileEntry returns the valid, non-directory entry at slot.
func (fs *FS) fileEntry(slot int) (*Entry, error) {
	e, err := fs.dir.get(slot)
	if err != nil {
		return nil, err
	}
	if e.IsDir {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, e.Name)
	}
	return e, nil
}

// ReadAt returns n bytes of the file at slot starting at off. Reading past
// the logical size is an ErrOutOfRange; a chain shorter than the logical
// size is an ErrCorruptChain.
func (fs *FS) ReadAt(slot int, off, n uint64) ([]byte, error) {
	e, err := fs.fileEntry(slot)
	if err != nil {
		return nil, err
	}
	return fs.readChain(e, off, n)
}

func (fs *FS) readChain(e *Entry, off, n uint64) ([]byte, error) {
	if off+n < off || off+n > e.Size {
		return nil, fmt.Errorf("%w: read of %d bytes at %d, %s is %d bytes",
			ErrOutOfRange, n, off, e.Name, e.Size)
	}

	out := make([]byte, 0, n)
	if n == 0 {
		return out, nil
	}

	bs := fs.cfg.BlockSize
	cur := e.FirstBlock
	for off >= bs {
		idx, ok := cur.Get()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCorruptChain, e.Name)
		}
		cur = fs.fat.entries[idx].Next
		off -= bs
	}

	buf := make([]byte, bs)
	for uint64(len(out)) < n {
		idx, ok := cur.Get()
		if !ok || idx >= fs.fat.Len() {
			return nil, fmt.Errorf("%w: %s ends after %d of %d requested bytes",
				ErrCorruptChain, e.Name, len(out), n)
		}
		if err := fs.dev.ReadBlock(idx, buf); err != nil {
			return nil, err
		}
		take := min(bs-off, n-uint64(len(out)))
		out = append(out, buf[off:off+take]...)
		off = 0
		cur = fs.fat.entries[idx].Next
	}
	return out, nil
}

// WriteAt writes p into the file at slot starting at off. Writes may
// overwrite and extend the file but never leave a gap, so off must not exceed
// the current size. Capacity is checked before any block is taken, so a
// write rejected with ErrNoSpace or ErrFileTooLarge leaves the file as it was.
func (fs *FS) WriteAt(slot int, off uint64, p []byte) error {
	e, err := fs.fileEntry(slot)
	if err != nil {
		return err
	}
	if err := fs.writeChain(e, off, p); err != nil {
		return err
	}
	fs.log.WithFields(logrus.Fields{
		"slot": slot, "offset": off, "len": len(p), "size": e.Size,
	}).Debug("write")
	return nil
}

// AppendTo writes p at the end of the file at slot.
func (fs *FS) AppendTo(slot int, p []byte) error {
	e, err := fs.fileEntry(slot)
	if err != nil {
		return err
	}
	return fs.WriteAt(slot, e.Size, p)
}

func (fs *FS) writeChain(e *Entry, off uint64, p []byte) error {
	if off > e.Size {
		return fmt.Errorf("%w: write at %d, %s is %d bytes",
			ErrOutOfRange, off, e.Name, e.Size)
	}
	if len(p) == 0 {
		return nil
	}

	blocks, err := fs.fat.chain(e.FirstBlock)
	if err != nil {
		return err
	}
	if err := fs.extendChain(e, &blocks, off+uint64(len(p))); err != nil {
		return err
	}

	bs := fs.cfg.BlockSize
	buf := make([]byte, bs)
	pos := off
	for written := 0; written < len(p); {
		blk := blocks[pos/bs]
		inBlock := pos % bs
		n := min(bs-inBlock, uint64(len(p)-written))
		fe := &fs.fat.entries[blk]

		// read-modify-write keeps the untouched bytes of a partial block
		if n < bs && fe.Used > 0 {
			if err := fs.dev.ReadBlock(blk, buf); err != nil {
				return err
			}
		} else {
			clear(buf)
		}
		copy(buf[inBlock:], p[written:written+int(n)])
		if err := fs.dev.WriteBlock(blk, buf); err != nil {
			return err
		}

		if hw := inBlock + n; hw > fe.Used {
			e.Size += hw - fe.Used
			fe.Used = hw
		}
		written += int(n)
		pos += n
	}
	return nil
}

// extendChain grows the chain in blocks until it covers end bytes. Both
// the per-file cap and the free count are checked before the first block is
// taken from the free list.
func (fs *FS) extendChain(e *Entry, blocks *[]uint64, end uint64) error {
	need := internal.CeilDiv(end, fs.cfg.BlockSize)
	have := uint64(len(*blocks))
	if need <= have {
		return nil
	}
	if need > fs.cfg.FileMaxBlocks {
		return fmt.Errorf("%w: %s needs %d blocks, max is %d",
			ErrFileTooLarge, e.Name, need, fs.cfg.FileMaxBlocks)
	}
	if need-have > fs.fat.FreeBlocks() {
		return fmt.Errorf("%w: %s needs %d more blocks, %d free",
			ErrNoSpace, e.Name, need-have, fs.fat.FreeBlocks())
	}

	for i := have; i < need; i++ {
		blk, err := fs.fat.allocate()
		if err != nil {
			return err
		}
		if len(*blocks) == 0 {
			e.FirstBlock = Some(blk)
		} else {
			fs.fat.entries[(*blocks)[len(*blocks)-1]].Next = Some(blk)
		}
		*blocks = append(*blocks, blk)
	}
	return nil
}

// Truncate empties the file at slot and returns its blocks to the free list.
func (fs *FS) Truncate(slot int) error {
	e, err := fs.fileEntry(slot)
	if err != nil {
		return err
	}
	if err := fs.truncateChain(e); err != nil {
		return err
	}
	fs.log.WithField("slot", slot).Debug("truncate")
	return nil
}

func (fs *FS) truncateChain(e *Entry) error {
	if e.Size == 0 && e.FirstBlock.IsNone() {
		return nil
	}

	blocks, err := fs.fat.chain(e.FirstBlock)
	if err != nil {
		return err
	}
	for _, blk := range blocks {
		fs.fat.entries[blk].Used = 0
	}
	if len(blocks) > 0 {
		fs.fat.release(blocks[0], blocks[len(blocks)-1], uint64(len(blocks)))
	}

	e.FirstBlock = None
	e.Size = 0
	return nil
}
