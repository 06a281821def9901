// Package store persists the bridge's session document. Every backend stores
// one opaque blob and replaces it whole on each save.
package store

import (
	"context"
)

// Kind selects a backend implementation.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindRedis  Kind = "redis"
)

// Store is the minimal interface all backends implement.
type Store interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases any resources held by the backend.
	Close() error
}

// Backend loads and saves a single document.
type Backend interface {
	Store
	// Load returns the stored document, or ErrNotFound when none exists.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored document. A failed save leaves the previous
	// document intact.
	Save(ctx context.Context, data []byte) error
	// Location describes where the document lives, for logs and status output.
	Location() string
}
