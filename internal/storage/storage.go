package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the set of artwork ids that have already been posted.

// Store tracks posted artwork IDs. Entries are never removed.
type Store interface {
	Close() error
	Contains(id string) (bool, error)
	Add(id string) error
}

// Supported storage types.
const (
	TypeJSON  = "json"
	TypeBBolt = "bbolt"
	TypeRedis = "redis"
	TypeNone  = "none"
)

// Options carries backend specific settings.
type Options struct {
	RedisAddr    string
	RedisKey     string
	RedisTimeout time.Duration
}

const (
	defaultRedisKey     = "tomatobot:posted"
	defaultRedisTimeout = 5 * time.Second
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeJSON:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("json storage requires a path")
		}
		return openJSON(path)
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path)
	case TypeRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(opts)
	case TypeNone, "disabled":
		return noopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if strings.TrimSpace(opts.RedisKey) == "" {
		opts.RedisKey = defaultRedisKey
	}
	if opts.RedisTimeout <= 0 {
		opts.RedisTimeout = defaultRedisTimeout
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                  { return nil }
func (noopStore) Contains(string) (bool, error) { return false, nil }
func (noopStore) Add(string) error              { return nil }
