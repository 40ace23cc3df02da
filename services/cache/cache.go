package cache

import (
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned when a key is not present
	ErrCacheMiss = errors.New("cache miss")
	// ErrNotStored is returned by Add when the key already exists
	ErrNotStored = errors.New("item not stored")
)

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Add stores a value only if the key does not exist yet
	Add(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
