package store

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Option configures Open.
type Option func(*options)

type options struct {
	redisClient *redis.Client
	redisURL    string
	redisKey    string
}

// WithRedisClient supplies a ready Redis client.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) {
		o.redisClient = client
	}
}

// WithRedisURL makes Open dial Redis from a redis:// URL.
func WithRedisURL(url string) Option {
	return func(o *options) {
		o.redisURL = url
	}
}

// WithRedisKey overrides DefaultRedisKey.
func WithRedisKey(key string) Option {
	return func(o *options) {
		o.redisKey = key
	}
}

// Open creates a backend of the given kind. location is the file or database
// path for the file and sqlite kinds.
func Open(kind Kind, location string, opts ...Option) (Backend, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch Kind(strings.ToLower(string(kind))) {
	case KindFile, "":
		if location == "" {
			return nil, fmt.Errorf("file store: %w: empty path", ErrInvalidConfig)
		}
		return NewFileBackend(location), nil

	case KindSQLite:
		if location == "" {
			return nil, fmt.Errorf("sqlite store: %w: empty path", ErrInvalidConfig)
		}
		return NewSQLiteBackend(location)

	case KindRedis:
		client := o.redisClient
		if client == nil {
			if o.redisURL == "" {
				return nil, fmt.Errorf("redis store: %w: no client or URL", ErrInvalidConfig)
			}
			ropts, err := redis.ParseURL(o.redisURL)
			if err != nil {
				return nil, fmt.Errorf("redis store: parse url: %w", err)
			}
			client = redis.NewClient(ropts)
		}
		return NewRedisBackend(client, o.redisKey), nil
	}
	return nil, &UnknownKindError{Kind: kind}
}
