package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File stores one pretty-printed JSON document per key inside a
// directory. Human-readable, portable, and trivially inspectable.
// No locking; fine for a local single-user session.
type File struct {
	dir string
}

var _ Provider = (*File)(nil)

// NewFile returns a file-backed provider rooted at dir, creating the
// directory if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("storage: dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Path returns the file a key is stored in. Useful for external watchers.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *File) Get(key string, out any) bool {
	b, err := os.ReadFile(f.Path(key))
	if err != nil {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func (f *File) Set(key string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	if err := os.WriteFile(f.Path(key), b, 0o644); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (f *File) Remove(key string) error {
	err := os.Remove(f.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Error{Op: "remove", Key: key, Err: err}
	}
	return nil
}

func (f *File) Clear() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return &Error{Op: "clear", Err: err}
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil {
			return &Error{Op: "clear", Key: e.Name(), Err: err}
		}
	}
	return nil
}
