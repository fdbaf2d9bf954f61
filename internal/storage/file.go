package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/dreamer-zq/savekit/internal/common"
)

// DefaultExtension is the file extension used when none is configured
const DefaultExtension = ".sav"

// FileBackend stores every key as one file under a private directory.
type FileBackend struct {
	dir    string
	ext    string
	paths  *common.SafeMap[string, string]
	closed atomic.Bool
}

// NewFileBackend creates the directory if needed and returns a FileBackend rooted at dir
func NewFileBackend(dir, ext string) (*FileBackend, error) {
	if dir == "" {
		return nil, ioErr("open", "", errors.New("directory cannot be empty"))
	}
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, ioErr("open", "", err)
	}
	return &FileBackend{
		dir:   dir,
		ext:   ext,
		paths: common.NewSafeMap[string, string](),
	}, nil
}

// Dir returns the directory the backend writes to
func (s *FileBackend) Dir() string {
	return s.dir
}

// Path returns the file path used for key
func (s *FileBackend) Path(key string) string {
	return s.paths.GetOrCompute(key, func() string {
		return filepath.Join(s.dir, SanitizeKey(key)+s.ext)
	})
}

// Store writes data to a temp file in the same directory and renames it over the target.
func (s *FileBackend) Store(ctx context.Context, key string, data string) error {
	if err := s.check(ctx, "store", key); err != nil {
		return err
	}
	path := s.Path(key)
	return ioErr("store", key, writeFile(ctx, path, []byte(data), 0o600))
}

// Load reads the file for key; a missing file is reported as not found
func (s *FileBackend) Load(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx, "load", key); err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, ioErr("load", key, err)
	}
	return string(b), true, nil
}

// Exists checks if a file exists for key
func (s *FileBackend) Exists(ctx context.Context, key string) (bool, error) {
	if err := s.check(ctx, "exists", key); err != nil {
		return false, err
	}
	info, err := os.Stat(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, ioErr("exists", key, err)
	}
	return info.Mode().IsRegular(), nil
}

// Delete removes the file for key
func (s *FileBackend) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, "delete", key); err != nil {
		return err
	}
	err := os.Remove(s.Path(key))
	s.paths.Delete(key)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return ioErr("delete", key, err)
	}
	return nil
}

// List returns the storage names (sanitized keys) that start with prefix
func (s *FileBackend) List(ctx context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, ioErr("list", prefix, ErrStorageClosed)
	}
	if err := ctx.Err(); err != nil {
		return nil, ioErr("list", prefix, err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, ioErr("list", prefix, err)
	}
	sanitized := SanitizeKey(prefix)
	if prefix == "" {
		sanitized = ""
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, s.ext) {
			continue
		}
		stem := strings.TrimSuffix(name, s.ext)
		if strings.HasPrefix(stem, sanitized) {
			keys = append(keys, stem)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the backend closed; later calls fail with ErrStorageClosed
func (s *FileBackend) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *FileBackend) check(ctx context.Context, op, key string) error {
	if s.closed.Load() {
		return ioErr(op, key, ErrStorageClosed)
	}
	return checkKey(ctx, op, key)
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
// The context is checked once more before the rename so a cancelled write
// leaves the previous value untouched.
func writeFile(ctx context.Context, path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// Best-effort cleanup if anything fails before rename.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
