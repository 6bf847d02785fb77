package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
	KindMemory = "memory"
)

// OpenOptions selects and configures a backend.
type OpenOptions struct {
	Kind       string
	Dir        string // file backend directory
	SQLitePath string // defaults to Dir/settings.db
	Redis      RedisOptions
}

// Open constructs the backend named by opts.Kind.
func Open(ctx context.Context, opts OpenOptions) (Backend, error) {
	switch opts.Kind {
	case KindFile, "":
		return NewFileBackend(opts.Dir)
	case KindSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.Dir, "settings.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("settings: create directory for %s: %w", path, err)
		}
		return NewSQLiteBackend(ctx, path)
	case KindRedis:
		return NewRedisBackend(ctx, opts.Redis)
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("settings: unknown backend %q (supported: file, sqlite, redis, memory)", opts.Kind)
	}
}
