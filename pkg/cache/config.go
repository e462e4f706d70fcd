package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config selects a cache backend.
type Config struct {
	Backend string        `env:"CACHE_BACKEND" envDefault:"memory"`
	Prefix  string        `env:"CACHE_PREFIX" envDefault:"menumail"`
	TTL     time.Duration `env:"CACHE_TTL" envDefault:"30m"`
}

// New builds the configured cache. It returns nil, nil for the "none" backend.
// The redis backend requires a non-nil client.
func New[V any](cfg Config, client redis.UniversalClient) (Cache[V], error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendNone:
		return nil, nil
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("%w: redis backend requires REDIS_URL", ErrInvalidConfig)
		}
		return NewRedis[V](client, nil, cfg.Prefix, cfg.TTL), nil
	case BackendMemory, "":
		return NewMemory[V](WithDefaultTTL(cfg.TTL)), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
