package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// KV is a durable string store keyed by string. Set overwrites.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Open builds the KV named by backend. dsn is a file path for sqlite,
// a connection string for postgres and an address for redis.
func Open(ctx context.Context, backend, dsn string) (KV, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendSQLite:
		s, err := NewSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendPostgres:
		db, err := NewDB(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendRedis:
		r := NewRedis(dsn)
		if !r.Healthy(ctx) {
			_ = r.Close()
			return nil, errors.Errorf("redis not reachable at %s", dsn)
		}
		return r, nil
	default:
		return nil, errors.Errorf("unknown store backend %q", backend)
	}
}
