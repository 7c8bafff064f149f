package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key or hash field is absent
var ErrMiss = errors.New("cache miss")

// Cache is the read-through store the services layer consults before hitting
// PostgreSQL. Three shapes are used:
//
//   - entity hashes: one hash per entity type, field = entity id, value =
//     serialized entity
//   - id sets: the set of ids the hash is known to fully cover
//   - plain values: whole serialized aggregates and derived query results,
//     stored under a single key with a TTL
//
// All operations are best-effort from the caller's point of view; a failure
// must degrade to a database read, never to an error surfaced to the client.
type Cache interface {
	GetHashField(ctx context.Context, key, field string) ([]byte, error)
	PutHashField(ctx context.Context, key, field string, value []byte) error
	DeleteHashFields(ctx context.Context, key string, fields ...string) error
	DeleteKey(ctx context.Context, keys ...string) error

	AddToSet(ctx context.Context, key string, members ...string) error
	RemoveFromSet(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)

	GetValue(ctx context.Context, key string) ([]byte, error)
	SetValue(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteByPrefix removes every key matching prefix*. Used to drop derived
	// query results whose parameters cannot be enumerated.
	DeleteByPrefix(ctx context.Context, prefix string) error

	Close() error
}
