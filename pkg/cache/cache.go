package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/redis"
)

// Store is the subset of the redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
	TagKey(tag string) string
}

// Cache is an explicit read-through cache: entries carry a TTL and a set of
// invalidation tags that mutations clear.
type Cache struct {
	store Store
}

func New(store Store) (*Cache, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cache store required")
	}
	return &Cache{store: store}, nil
}

// GetOrFill returns the cached JSON value for key, or runs fill, stores the
// result under the key with the provided TTL and tags, and decodes it into
// dest. A redis failure degrades to a direct fill rather than an error.
func (c *Cache) GetOrFill(ctx context.Context, key string, ttl time.Duration, tags []string, dest any, fill func(ctx context.Context) (any, error)) error {
	fullKey := c.store.CacheKey(key)

	raw, err := c.store.Get(ctx, fullKey)
	switch {
	case err == nil:
		return json.Unmarshal([]byte(raw), dest)
	case !errors.Is(err, redis.Nil):
		// fall through to fill; the cache is best-effort
	}

	value, err := fill(ctx)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cache value")
	}

	if err := c.store.Set(ctx, fullKey, string(encoded), ttl); err == nil {
		for _, tag := range tags {
			_ = c.store.SAdd(ctx, c.store.TagKey(tag), fullKey)
		}
	}

	return json.Unmarshal(encoded, dest)
}

// Invalidate drops every cached entry recorded under the provided tags.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := c.store.TagKey(tag)
		keys, err := c.store.SMembers(ctx, tagKey)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cache tag members")
		}
		if err := c.store.Del(ctx, append(keys, tagKey)...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate cache tag")
		}
	}
	return nil
}
