package session

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tailored-agentic-units/procure/core/config"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

const defaultPath = ".procure/sessions"

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Config selects and configures the session backend.
type Config struct {
	Backend string          `json:"backend,omitempty" yaml:"backend,omitempty"`
	TTL     config.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	Redis   RedisConfig     `json:"redis,omitempty" yaml:"redis,omitempty"`
	Path    string          `json:"path,omitempty" yaml:"path,omitempty"`
}

// DefaultConfig returns an in-memory store with a 30 minute session lifetime.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		TTL:     config.Duration(30 * time.Minute),
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: defaultPrefix,
		},
		Path: defaultPath,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.TTL > 0 {
		c.TTL = source.TTL
	}
	if source.Redis.Addr != "" {
		c.Redis.Addr = source.Redis.Addr
	}
	if source.Redis.Password != "" {
		c.Redis.Password = source.Redis.Password
	}
	if source.Redis.DB > 0 {
		c.Redis.DB = source.Redis.DB
	}
	if source.Redis.Prefix != "" {
		c.Redis.Prefix = source.Redis.Prefix
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

// New creates a Store from configuration.
func New(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.TTL.Std()), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisStore(client,
			WithTTL(cfg.TTL.Std()),
			WithPrefix(cfg.Redis.Prefix),
		), nil
	case BackendFile:
		return NewFileStore(cfg.Path, cfg.TTL.Std()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
