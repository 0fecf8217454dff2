// file: pkg/archive/archive.go

// Package archive exports a filesystem tree to a portable stream and
// imports it again. The stream is a sequence of length-prefixed protobuf
// records, parents before children.
package archive

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// maxRecordSize bounds a single record read from a stream.
const maxRecordSize = 64 << 20

// Export writes every entry below the root of fs to w and returns the
// number of records written.
func Export(w io.Writer, fs *fatfs.FS) (int, error) {
	bw := bufio.NewWriter(w)
	count := 0
	var buf []byte

	err := fs.Walk(fatfs.RootSlot, func(slot int, e fatfs.Entry) error {
		if slot == fatfs.RootSlot {
			return nil
		}
		path, err := fs.Path(slot)
		if err != nil {
			return err
		}

		var data []byte
		if !e.IsDir {
			if data, err = fs.ReadAt(slot, 0, e.Size); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}

		buf = newRecord(path, e.IsDir, data).marshal(buf[:0])
		frame := protowire.AppendVarint(nil, uint64(len(buf)))
		if _, err := bw.Write(frame); err != nil {
			return err
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, bw.Flush()
}

// readRecord reads the next framed record. It returns io.EOF at a clean end
// of stream.
func readRecord(r *bufio.Reader) (*Record, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: frame: %v", ErrBadRecord, err)
	}
	if size > maxRecordSize {
		return nil, fmt.Errorf("%w: record of %d bytes", ErrBadRecord, size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: truncated record: %v", ErrBadRecord, err)
	}
	rec := &Record{}
	if err := rec.unmarshal(data); err != nil {
		return nil, err
	}
	return rec, rec.verify()
}

// Import recreates the records read from r in fs. Directories that already
// exist are reused; files that already exist are an error. It returns the
// number of records applied.
func Import(r io.Reader, fs *fatfs.FS) (int, error) {
	br := bufio.NewReader(r)
	log := logrus.WithField("component", "archive")
	count := 0

	for {
		rec, err := readRecord(br)
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if err := apply(fs, rec); err != nil {
			return count, fmt.Errorf("%s: %w", rec.Path, err)
		}
		log.WithFields(logrus.Fields{"path": rec.Path, "bytes": len(rec.Data)}).Debug("imported")
		count++
	}
}

func apply(fs *fatfs.FS, rec *Record) error {
	parent, name, err := fs.ResolveParent(rec.Path)
	if err != nil {
		return err
	}

	if rec.IsDir {
		if slot, err := fs.Lookup(name, parent); err == nil {
			if e, _ := fs.Entry(slot); e.IsDir {
				return nil
			}
			return fatfs.ErrNotDirectory
		}
		_, err := fs.CreateEntry(name, parent, true)
		return err
	}

	slot, err := fs.CreateEntry(name, parent, false)
	if err != nil {
		return err
	}
	if err := fs.WriteAt(slot, 0, rec.Data); err != nil {
		if rerr := fs.Remove(slot); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}
