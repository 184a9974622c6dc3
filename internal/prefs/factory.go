package prefs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mobilize-transporte/avisos/internal/colors"
	"github.com/mobilize-transporte/avisos/internal/config"
)

const (
	// BackendFile selects the JSON file backend.
	BackendFile = "file"
	// BackendSQLite selects the SQLite backend.
	BackendSQLite = "sqlite"
	// BackendRedis selects the redis backend.
	BackendRedis = "redis"
	// BackendMemory selects the process-local backend.
	BackendMemory = "memory"

	prefsDBFileName = "prefs.db"
)

// Options carries backend settings.
type Options struct {
	StateDir string
	Redis    RedisOptions
}

// OptionsFromConfig reads backend settings from the global configuration.
func OptionsFromConfig() Options {
	return Options{
		StateDir: config.Get("state_dir", ""),
		Redis: RedisOptions{
			Addr:     config.Get("redis_addr", "localhost:6379"),
			Password: config.Get("redis_password", ""),
			DB:       config.GetInt("redis_db", 0),
		},
	}
}

// NewFromConfig creates the store selected by prefs_backend.
func NewFromConfig(ctx context.Context) (Store, error) {
	return NewForBackend(ctx, config.Get("prefs_backend", BackendFile), OptionsFromConfig())
}

// NewForBackend creates a store for the named backend. Backends that fail to
// initialize fall back to the file backend with a warning.
func NewForBackend(ctx context.Context, backend string, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(opts.StateDir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		store, err := NewSQLiteStore(filepath.Join(opts.StateDir, prefsDBFileName))
		if err != nil {
			colors.Warning(fmt.Sprintf("failed to initialize sqlite prefs, falling back to file: %v", err))
			return NewFileStore(opts.StateDir)
		}
		return store, nil
	case BackendRedis:
		store, err := NewRedisStore(ctx, opts.Redis)
		if err != nil {
			colors.Warning(fmt.Sprintf("failed to initialize redis prefs, falling back to file: %v", err))
			return NewFileStore(opts.StateDir)
		}
		return store, nil
	default:
		colors.Warning(fmt.Sprintf("%v '%s', falling back to file", ErrUnknownBackend, backend))
		return NewFileStore(opts.StateDir)
	}
}
