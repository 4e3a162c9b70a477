package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File keeps one JSON file per slot under a directory.
type File struct {
	dir string
}

// DefaultDir is ~/.desk/saves.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".desk", "saves"), nil
}

func NewFile(dir string) (*File, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) Dir() string { return f.dir }

func (f *File) path(slot string) string {
	return filepath.Join(f.dir, slot+".json")
}

func (f *File) Load(_ context.Context, slot string) ([]byte, error) {
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	return raw, nil
}

// Save writes to a temp file and renames it over the slot, so a crash mid
// write leaves the previous save intact.
func (f *File) Save(_ context.Context, slot string, blob []byte) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, slot+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o600); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, f.path(slot))
}

func (f *File) Delete(_ context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	if err := os.Remove(f.path(slot)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *File) Close() error { return nil }
