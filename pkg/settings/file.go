package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gitlab.com/tinyland/lab/quant-predict/pkg/diskfile"
)

// FileBackend stores each key in its own file under Dir. File names are a
// hash of the key so any key is filesystem-safe. Writes are atomic via
// temp-file-then-rename.
type FileBackend struct {
	dir string
	mu  sync.RWMutex
}

// NewFileBackend creates dir with 0755 permissions if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("settings: create directory %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the backing directory.
func (f *FileBackend) Dir() string { return f.dir }

func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("settings: read %q: %w", key, err)
	}
	return string(data), true, nil
}

func (f *FileBackend) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := diskfile.WriteAtomic(f.path(key), []byte(value), f.dir); err != nil {
		return fmt.Errorf("settings: write %q: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, diskfile.HashKey(key)+".setting")
}
