package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/wordmate-app/backend/internal/apperrors"
)

// CacheRepository is a small typed-blob cache. Values are msgpack-encoded;
// a miss is apperrors.ErrNotFound, never a zero value. Recommendation and
// timeline entries live here keyed by a hash of the owner's friend set, so
// a friend-set change invalidates structurally (new hash, old entry ages
// out via TTL).
type CacheRepository interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisCacheRepository implements CacheRepository on Redis.
type RedisCacheRepository struct {
	rdb *redis.Client
}

// NewRedisCacheRepository creates a new RedisCacheRepository.
func NewRedisCacheRepository(rdb *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{rdb: rdb}
}

// Get decodes the cached blob into value.
func (r *RedisCacheRepository) Get(ctx context.Context, key string, value interface{}) error {
	payload, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(payload, value)
}

// Set encodes and stores value under key with the given TTL.
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, payload, ttl).Err()
}

// Delete removes a cache entry; deleting a missing key is a no-op.
func (r *RedisCacheRepository) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}
