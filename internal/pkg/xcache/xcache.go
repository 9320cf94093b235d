// Package xcache is the typed cache facade of the unit, built on gocache.
// It backs the hot lookups of request handling, box-by-schema and ACL
// documents, with memory, redis or two-level backends chosen by config.
package xcache

import (
	"context"
	"fmt"
	"time"

	cachelib "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocache_store "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
	redis "github.com/redis/go-redis/v9"

	"github.com/looplj/cellhub/internal/pkg/xcache/redisstore"
	"github.com/looplj/cellhub/internal/pkg/xredis"
)

type (
	Cache[T any]       = cachelib.CacheInterface[T]
	SetterCache[T any] = cachelib.SetterCacheInterface[T]
	Option             = store.Option
)

func WithExpiration(expiration time.Duration) Option {
	return store.WithExpiration(expiration)
}

const (
	ModeMemory   = "memory"
	ModeRedis    = "redis"
	ModeTwoLevel = "two-level"
)

type Config struct {
	Mode   string        `conf:"mode" yaml:"mode" json:"mode"`
	Memory MemoryConfig  `conf:"memory" yaml:"memory" json:"memory"`
	Redis  xredis.Config `conf:"redis" yaml:"redis" json:"redis"`
}

type MemoryConfig struct {
	Expiration      time.Duration `conf:"expiration" yaml:"expiration" json:"expiration"`
	CleanupInterval time.Duration `conf:"cleanup_interval" yaml:"cleanup_interval" json:"cleanup_interval"`
}

// NewMemory wraps a patrickmn/go-cache client.
func NewMemory[T any](client *gocache.Cache, options ...Option) SetterCache[T] {
	return cachelib.New[T](gocache_store.NewGoCache(client, options...))
}

// NewRedis wraps a go-redis client with JSON value encoding.
func NewRedis[T any](client *redis.Client, options ...Option) SetterCache[T] {
	return cachelib.New[T](redisstore.New[T](client, options...))
}

// NewTwoLevel chains memory in front of redis.
func NewTwoLevel[T any](memory, redis SetterCache[T]) Cache[T] {
	return cachelib.NewChain[T](memory, redis)
}

// NewFromConfig builds the cache the config asks for. An empty or unknown
// mode yields a noop cache, so callers never need a nil check.
func NewFromConfig[T any](ctx context.Context, cfg Config) (Cache[T], error) {
	memExpiration := defaultIfZero(cfg.Memory.Expiration, 5*time.Minute)
	memCleanup := defaultIfZero(cfg.Memory.CleanupInterval, 10*time.Minute)

	newMemory := func() SetterCache[T] {
		return NewMemory[T](gocache.New(memExpiration, memCleanup), WithExpiration(memExpiration))
	}

	newRedis := func() (SetterCache[T], error) {
		client, err := xredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("cache redis backend: %w", err)
		}

		expiration := defaultIfZero(cfg.Redis.Expiration, 30*time.Minute)

		return NewRedis[T](client, WithExpiration(expiration)), nil
	}

	switch cfg.Mode {
	case ModeMemory:
		return newMemory(), nil
	case ModeRedis:
		return newRedis()
	case ModeTwoLevel:
		rds, err := newRedis()
		if err != nil {
			return nil, err
		}

		return NewTwoLevel[T](newMemory(), rds), nil
	default:
		return NewNoop[T](), nil
	}
}

func defaultIfZero(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}

	return d
}
