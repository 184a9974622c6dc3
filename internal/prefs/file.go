package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	prefsFileName = "prefs.json"
	lockDirName   = ".prefs.lock"
)

// FileStore keeps preferences as a JSON object in a single file. Every
// operation re-reads the file under a directory lock so separate avisos
// processes sharing a state directory see each other's writes.
type FileStore struct {
	path    string
	lockDir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file prefs: directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file prefs: create directory: %w", err)
	}
	return &FileStore{
		path:    filepath.Join(dir, prefsFileName),
		lockDir: filepath.Join(dir, lockDirName),
	}, nil
}

// Path returns the location of the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	var (
		value string
		found bool
	)
	err := withLock(f.lockDir, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		value, found = values[key]
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("file prefs: get %s: %w", key, err)
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	err := f.update(func(values map[string]string) {
		values[key] = value
	})
	if err != nil {
		return fmt.Errorf("file prefs: set %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) Remove(_ context.Context, keys ...string) error {
	err := f.update(func(values map[string]string) {
		for _, k := range keys {
			delete(values, k)
		}
	})
	if err != nil {
		return fmt.Errorf("file prefs: remove: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) update(mutate func(map[string]string)) error {
	return withLock(f.lockDir, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		mutate(values)
		return f.write(values)
	})
}

func (f *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return values, nil
}

func (f *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), prefsFileName+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
