package fatfs

import (
	"fmt"
	"strings"
)

// splitPath breaks an absolute slash path into its components.
func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: path must be absolute: %q", ErrInvalidName, path)
	}
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts, nil
}

// Resolve walks an absolute path from the root and returns the slot it
// names.
func (fs *FS) Resolve(path string) (int, error) {
	parts, err := splitPath(path)
	if err != nil {
		return -1, err
	}

	slot := RootSlot
	for i, part := range parts {
		if i > 0 {
			if _, err := fs.dir.dir(slot); err != nil {
				return -1, fmt.Errorf("%s: %w", path, err)
			}
		}
		slot, err = fs.dir.Lookup(part, slot)
		if err != nil {
			return -1, fmt.Errorf("%s: %w", path, err)
		}
	}
	return slot, nil
}

// ResolveParent returns the directory slot that holds the last component of
// path, and that component's name. The last component need not exist.
func (fs *FS) ResolveParent(path string) (int, string, error) {
	parts, err := splitPath(path)
	if err != nil {
		return -1, "", err
	}
	if len(parts) == 0 {
		return -1, "", ErrRootEntry
	}

	dirPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	parent, err := fs.Resolve(dirPath)
	if err != nil {
		return -1, "", err
	}
	if _, err := fs.dir.dir(parent); err != nil {
		return -1, "", err
	}
	return parent, parts[len(parts)-1], nil
}

// Path returns the absolute path of the entry at slot.
func (fs *FS) Path(slot int) (string, error) {
	if _, err := fs.dir.get(slot); err != nil {
		return "", err
	}
	if slot == RootSlot {
		return RootName, nil
	}

	var parts []string
	cur := slot
	for cur != RootSlot {
		if len(parts) > len(fs.dir.Entries) {
			return "", fmt.Errorf("%w: parent loop at slot %d", ErrCorruptMetadata, slot)
		}
		e := &fs.dir.Entries[cur]
		parts = append(parts, e.Name)
		p, ok := e.Parent.Get()
		if !ok {
			return "", fmt.Errorf("%w: slot %d has no parent", ErrCorruptMetadata, cur)
		}
		cur = int(p)
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/"), nil
}

// Walk visits slot and every entry below it in pre-order, children in
// ascending slot order.
func (fs *FS) Walk(slot int, fn func(slot int, e Entry) error) error {
	e, err := fs.dir.get(slot)
	if err != nil {
		return err
	}
	if err := fn(slot, *e); err != nil {
		return err
	}
	if !e.IsDir {
		return nil
	}
	for _, child := range fs.dir.Children(slot) {
		if err := fs.Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}
