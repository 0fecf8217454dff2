// file: pkg/archive/record.go

package archive

import (
	"errors"
	"fmt"
	"hash/crc32"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldPath  protowire.Number = 1
	fieldIsDir protowire.Number = 2
	fieldData  protowire.Number = 3
	fieldCRC   protowire.Number = 4
)

var (
	ErrBadRecord = errors.New("malformed archive record")
	ErrChecksum  = errors.New("archive record checksum mismatch")
)

// Record is one entry of an archive: an absolute path and, for files, the
// file content with its CRC-32.
type Record struct {
	Path  string
	IsDir bool
	Data  []byte
	CRC   uint32
}

func newRecord(path string, isDir bool, data []byte) *Record {
	r := &Record{Path: path, IsDir: isDir, Data: data}
	if !isDir {
		r.CRC = crc32.ChecksumIEEE(data)
	}
	return r
}

// verify checks the stored checksum against the data.
func (r *Record) verify() error {
	if r.IsDir {
		return nil
	}
	if got := crc32.ChecksumIEEE(r.Data); got != r.CRC {
		return fmt.Errorf("%w: %s: got %08x, want %08x", ErrChecksum, r.Path, got, r.CRC)
	}
	return nil
}

// marshal appends the protobuf encoding of r to b.
func (r *Record) marshal(b []byte) []byte {
	b = protowire.AppendTag(b, fieldPath, protowire.BytesType)
	b = protowire.AppendString(b, r.Path)
	if r.IsDir {
		b = protowire.AppendTag(b, fieldIsDir, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
		return b
	}
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Data)
	b = protowire.AppendTag(b, fieldCRC, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, r.CRC)
	return b
}

// unmarshal parses a record, skipping unknown fields.
func (r *Record) unmarshal(b []byte) error {
	*r = Record{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrBadRecord, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldPath && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: path: %v", ErrBadRecord, protowire.ParseError(n))
			}
			r.Path = string(v)
			b = b[n:]
		case num == fieldIsDir && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: directory flag: %v", ErrBadRecord, protowire.ParseError(n))
			}
			r.IsDir = protowire.DecodeBool(v)
			b = b[n:]
		case num == fieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: data: %v", ErrBadRecord, protowire.ParseError(n))
			}
			r.Data = append([]byte(nil), v...)
			b = b[n:]
		case num == fieldCRC && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return fmt.Errorf("%w: checksum: %v", ErrBadRecord, protowire.ParseError(n))
			}
			r.CRC = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrBadRecord, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if r.Path == "" {
		return fmt.Errorf("%w: missing path", ErrBadRecord)
	}
	return nil
}
