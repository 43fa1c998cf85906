package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/pretty"
)

var errNotArray = errors.New("top-level JSON value is not an array")

var prettyOptions = &pretty.Options{Width: 80, Indent: "    "}

// FileStorage keeps the collection in a single pretty-printed JSON file.
type FileStorage struct {
	path string
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage returns a storage backed by the file at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the collection file path.
func (s *FileStorage) Path() string { return s.path }

// Dir returns the directory holding the collection file.
func (s *FileStorage) Dir() string { return filepath.Dir(s.path) }

// Read parses the file. A blank file is an empty collection.
func (s *FileStorage) Read(_ context.Context) (Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &StorageReadError{Path: s.path, Err: err}
	}
	c, err := decodeCollection(data)
	if err != nil {
		return nil, &StorageReadError{Path: s.path, Err: err}
	}
	return c, nil
}

// Write replaces the file atomically, creating its directory when missing.
func (s *FileStorage) Write(_ context.Context, c Collection) error {
	data, err := encodeCollection(c)
	if err != nil {
		return &StorageWriteError{Path: s.path, Err: err}
	}
	if err := writeAtomic(s.path, data); err != nil {
		return &StorageWriteError{Path: s.path, Err: err}
	}
	return nil
}

// Repair rewrites a damaged collection file in place, keeping the original
// next to it with a ".bak" suffix. It reports whether anything was changed.
func (s *FileStorage) Repair(ctx context.Context) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, ErrNotFound
		}
		return false, &StorageReadError{Path: s.path, Err: err}
	}
	if _, err := decodeCollection(data); err == nil {
		return false, nil
	}

	fixed, err := jsonrepair.JSONRepair(string(data))
	if err != nil {
		return false, &StorageReadError{Path: s.path, Err: fmt.Errorf("repair: %w", err)}
	}
	raw := bytes.TrimSpace([]byte(fixed))
	if len(raw) > 0 && raw[0] == '{' {
		// a lone record
		raw = append(append([]byte{'['}, raw...), ']')
	}
	c, err := decodeCollection(raw)
	if err != nil {
		return false, &StorageReadError{Path: s.path, Err: fmt.Errorf("repair: %w", err)}
	}

	if err := os.WriteFile(s.path+".bak", data, 0o644); err != nil {
		return false, &StorageWriteError{Path: s.path + ".bak", Err: err}
	}
	if err := s.Write(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

func decodeCollection(data []byte) (Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Collection{}, nil
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, errors.New("invalid JSON")
		}
		return nil, errNotArray
	}
	var c Collection
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, err
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}

func encodeCollection(c Collection) ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return pretty.PrettyOptions(data, prettyOptions), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		return err
	}
	return os.Rename(name, path)
}
