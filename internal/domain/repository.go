package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded payloads so memory and redis backends behave the same.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SnapshotProvider hands out the dataset snapshot currently in use.
// Current returns nil until a dataset has been loaded.
type SnapshotProvider interface {
	Current() *Snapshot
}

// SnapshotLoader produces a fresh snapshot from the underlying dataset source
type SnapshotLoader interface {
	Load(ctx context.Context) (*Snapshot, error)
}
