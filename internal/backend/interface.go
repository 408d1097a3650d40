package backend

import (
	"context"
	"slices"
	"time"

	"yeargrid/internal/session"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the session store and optional cleanup function
type BackendResult struct {
	Store   session.Store
	Cleanup CleanupFunc
}

// Factory creates session stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType
	TTL  time.Duration

	// Memory specific
	CacheSize       int
	CleanupInterval time.Duration

	// SQLite specific
	SQLiteDBPath string

	// Redis specific
	RedisAddr string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
