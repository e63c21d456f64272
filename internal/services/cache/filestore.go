package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var validKey = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// FileStore reads and writes JSON cache files under one directory. Keys
// become filenames, so anything resembling a path component is rejected.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's directory.
func (fs *FileStore) Dir() string {
	return fs.dir
}

func (fs *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(fs.dir, key+".json"), nil
}

// ReadJSON loads the file for key into v. A missing file returns
// os.ErrNotExist via the wrapped error.
func (fs *FileStore) ReadJSON(key string, v any) error {
	path, err := fs.path(key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cache file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse cache file %s: %w", path, err)
	}
	return nil
}

// WriteJSON atomically replaces the file for key. The write goes to a
// temp file first so a crash mid-write never leaves a torn cache file.
func (fs *FileStore) WriteJSON(key string, v any) error {
	path, err := fs.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry %s: %w", key, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cache file %s: %w", path, err)
	}
	return nil
}

// Remove deletes the file for key. Missing files are not an error.
func (fs *FileStore) Remove(key string) error {
	path, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cache file %s: %w", path, err)
	}
	return nil
}

// ModTime returns the file's modification time, or a zero time when the
// file does not exist.
func (fs *FileStore) ModTime(key string) (modTime int64, err error) {
	path, err := fs.path(key)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.ModTime().UnixMilli(), nil
}
