package fatfs

import (
	"math"
	"strconv"
)

// noIndex is how an absent index is stored on disk.
const noIndex = math.MaxUint64

// Index is an optional block or slot index. The zero value is "none".
type Index struct {
	n     uint64
	valid bool
}

// None is the absent index.
var None = Index{}

// Some returns a present index.
func Some(n uint64) Index {
	return Index{n: n, valid: true}
}

// Get returns the index and whether it is present.
func (i Index) Get() (uint64, bool) {
	return i.n, i.valid
}

// IsNone reports whether the index is absent.
func (i Index) IsNone() bool {
	return !i.valid
}

func (i Index) String() string {
	if !i.valid {
		return "none"
	}
	return strconv.FormatUint(i.n, 10)
}

func (i Index) encode() uint64 {
	if !i.valid {
		return noIndex
	}
	return i.n
}

func decodeIndex(v uint64) Index {
	if v == noIndex {
		return None
	}
	return Some(v)
}
