package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps short-lived files (generated reports) on disk under a
// base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "screen-admin-reports")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: abs}, nil
}

// SaveTemp writes data to a uniquely named file and returns its name relative
// to the base directory.
func (s *LocalStorage) SaveTemp(prefix, ext string, data []byte) (string, error) {
	file, err := os.CreateTemp(s.baseDir, prefix+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := filepath.Base(file.Name())
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files older than the provided TTL and returns deleted names.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup storage: %w", err)
	}
	return deleted, nil
}

// Path exposes the absolute path of a stored file.
func (s *LocalStorage) Path(filename string) (string, error) {
	return s.resolve(filename)
}

func (s *LocalStorage) resolve(filename string) (string, error) {
	path := filepath.Join(s.baseDir, filepath.Clean("/"+filename))
	if path != s.baseDir && !strings.HasPrefix(path, s.baseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes storage directory", filename)
	}
	return path, nil
}
