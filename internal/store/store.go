// Package store keeps serialized slime worlds by name. Every backend stores
// the encoded stream as an opaque value.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v3"

	"github.com/astei/slimeworld/internal/config"
)

var (
	ErrWorldNotFound = errors.New("store: world not found")
	ErrInvalidName   = errors.New("store: invalid world name")
)

// Store is a load/save strategy for named worlds.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	// List returns every stored name in ascending order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// ValidName rejects names that cannot be used as a file name or key.
func ValidName(name string) error {
	if name == "" || name == "." || name == ".." || len(name) > 255 ||
		strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Open connects the backend selected by cfg.Type.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger != nil {
		logger = logger.With("store", cfg.Type)
	}

	switch cfg.Type {
	case "", "file":
		return NewFileStore(cfg.Path)
	case "memory":
		return NewMemoryStore(), nil
	case "badger":
		return OpenBadger(badger.DefaultOptions(cfg.Path).WithLogger(nil))
	case "redis":
		return OpenRedis(ctx, RedisConfig{Addr: cfg.URL, KeyPrefix: cfg.KeyPrefix})
	case "mysql":
		return OpenMySQL(ctx, cfg.URL, cfg.Table)
	case "mongo":
		return OpenMongo(ctx, MongoConfig{URI: cfg.URL, Database: cfg.Database, Collection: cfg.Collection}, logger)
	default:
		return nil, fmt.Errorf("store: unknown store type %q", cfg.Type)
	}
}
