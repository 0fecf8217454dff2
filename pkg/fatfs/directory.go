// file: pkg/fatfs/directory.go

package fatfs

import (
	"fmt"
	"strings"
)

// Entry is one slot of the directory table. An invalid slot is garbage and
// equals the zero Entry.
type Entry struct {
	Valid      bool
	IsDir      bool
	Name       string
	Size       uint64 // bytes, 0 for directories
	Parent     Index
	FirstBlock Index
}

// DirEntry is a listing row: an entry together with its slot.
type DirEntry struct {
	Slot int
	Entry
}

func rootEntry() Entry {
	return Entry{Valid: true, IsDir: true, Name: RootName}
}

// Directory is the fixed-capacity slot table. Slot 0 is always the root.
type Directory struct {
	Entries []Entry
}

func newDirectory(entryCount uint64) *Directory {
	dir := &Directory{Entries: make([]Entry, entryCount)}
	dir.Entries[RootSlot] = rootEntry()
	return dir
}

// validateName checks a new entry name.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %d bytes, max is %d", ErrNameTooLong, len(name), MaxNameLen)
	}
	return nil
}

// get returns the valid entry at slot.
func (d *Directory) get(slot int) (*Entry, error) {
	if slot < 0 || slot >= len(d.Entries) || !d.Entries[slot].Valid {
		return nil, fmt.Errorf("%w: slot %d", ErrNotFound, slot)
	}
	return &d.Entries[slot], nil
}

// dir returns the valid directory entry at slot.
func (d *Directory) dir(slot int) (*Entry, error) {
	e, err := d.get(slot)
	if err != nil {
		return nil, err
	}
	if !e.IsDir {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, e.Name)
	}
	return e, nil
}

// Lookup finds the valid entry called name under parent.
func (d *Directory) Lookup(name string, parent int) (int, error) {
	for i := range d.Entries {
		e := &d.Entries[i]
		if !e.Valid || i == RootSlot {
			continue
		}
		if p, ok := e.Parent.Get(); ok && p == uint64(parent) && e.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Create writes a new empty entry into the first free slot after the root.
func (d *Directory) Create(name string, parent int, isDir bool) (int, error) {
	if err := validateName(name); err != nil {
		return -1, err
	}
	if _, err := d.dir(parent); err != nil {
		return -1, err
	}
	if _, err := d.Lookup(name, parent); err == nil {
		return -1, fmt.Errorf("%w: %q", ErrExists, name)
	}

	for i := RootSlot + 1; i < len(d.Entries); i++ {
		if d.Entries[i].Valid {
			continue
		}
		d.Entries[i] = Entry{
			Valid:  true,
			IsDir:  isDir,
			Name:   name,
			Parent: Some(uint64(parent)),
		}
		return i, nil
	}
	return -1, ErrDirectoryFull
}

// Rename replaces the name of the entry at slot.
func (d *Directory) Rename(slot int, name string) error {
	if slot == RootSlot {
		return ErrRootEntry
	}
	e, err := d.get(slot)
	if err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}
	parent, _ := e.Parent.Get()
	if _, err := d.Lookup(name, int(parent)); err == nil {
		return fmt.Errorf("%w: %q", ErrExists, name)
	}
	e.Name = name
	return nil
}

// Children returns the slots of all valid entries under parent, ascending.
func (d *Directory) Children(parent int) []int {
	var slots []int
	for i := range d.Entries {
		e := &d.Entries[i]
		if !e.Valid || i == RootSlot {
			continue
		}
		if p, ok := e.Parent.Get(); ok && p == uint64(parent) {
			slots = append(slots, i)
		}
	}
	return slots
}

// clear resets slot to the garbage placeholder.
func (d *Directory) clear(slot int) {
	d.Entries[slot] = Entry{}
}

// Used returns the number of valid slots, root included.
func (d *Directory) Used() int {
	n := 0
	for i := range d.Entries {
		if d.Entries[i].Valid {
			n++
		}
	}
	return n
}
