package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Filesystem persists entries under a directory so they survive between builds.
// Entries are sharded by the first two characters of the key.
type Filesystem struct {
	dir string
}

func NewFilesystem(dir string) (*Filesystem, error) {
	if dir == "" {
		return nil, errors.New("filesystem cache requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Filesystem{dir: dir}, nil
}

func (f *Filesystem) path(key string) string {
	if len(key) < 3 {
		return filepath.Join(f.dir, key)
	}
	return filepath.Join(f.dir, key[:2], key[2:])
}

func (f *Filesystem) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes through a temp file and renames it into place so readers never see partial entries.
func (f *Filesystem) Put(key string, value []byte) error {
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
