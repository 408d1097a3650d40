package backend

import (
	"fmt"
	"time"

	"yeargrid/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.SessionBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (want one of %v)", appConfig.SessionBackend, GetBackendTypes())
	}

	return Config{
		Type:            backendType,
		TTL:             appConfig.SessionTTL,
		CacheSize:       appConfig.SessionCacheSize,
		CleanupInterval: cleanupInterval(appConfig.SessionTTL),
		SQLiteDBPath:    appConfig.SQLiteDBPath,
		RedisAddr:       appConfig.RedisAddr,
	}, nil
}

// cleanupInterval sweeps a few times per TTL, bounded to [1m, 1h].
func cleanupInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Minute), time.Hour)
}

// sweepInterval is CleanupInterval, or one minute when unset.
func (c Config) sweepInterval() time.Duration {
	if c.CleanupInterval <= 0 {
		return time.Minute
	}
	return c.CleanupInterval
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (want one of %v)", c.Type, GetBackendTypes())
	}
	if c.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis backend")
		}
	case MemoryBackend:
		if c.CacheSize < 1 {
			return fmt.Errorf("cache size must be at least 1 for memory backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, RedisBackend}
}
