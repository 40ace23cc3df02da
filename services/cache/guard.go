package cache

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"sjsage522/jobworker/logger"
)

const lockKeyPrefix = "jobworker:run:"

// RunGuard keeps two workers from scraping the same board at once.
// The lock is a memcache key created with Add and expiring after ttl.
type RunGuard struct {
	cache CacheService
	ttl   time.Duration
	owner string
	log   *logger.Logger
}

// NewRunGuard creates a guard. A nil cache makes every Acquire succeed.
func NewRunGuard(cacheSvc CacheService, ttl time.Duration) *RunGuard {
	return &RunGuard{
		cache: cacheSvc,
		ttl:   ttl,
		owner: uuid.NewString(),
		log:   logger.ForCache(),
	}
}

// LockKey returns the memcache key guarding board
func LockKey(board string) string {
	return lockKeyPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(board)).String()
}

// Acquire takes the lock for board. It returns false when another worker
// holds it.
func (g *RunGuard) Acquire(board string) (bool, error) {
	if g.cache == nil {
		return true, nil
	}

	err := g.cache.Add(LockKey(board), []byte(g.owner), g.ttl)
	switch {
	case err == nil:
		g.log.Debug().Str("board", board).Str("owner", g.owner).Msg("Run lock acquired")
		return true, nil
	case errors.Is(err, ErrNotStored):
		g.log.Info().Str("board", board).Msg("Run lock held by another worker")
		return false, nil
	default:
		return false, err
	}
}

// Release drops the lock for board if this guard still owns it
func (g *RunGuard) Release(board string) error {
	if g.cache == nil {
		return nil
	}

	key := LockKey(board)
	value, err := g.cache.Get(key)
	if errors.Is(err, ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return err
	}
	if string(value) != g.owner {
		g.log.Warn().Str("board", board).Msg("Run lock taken over, not releasing")
		return nil
	}

	if err := g.cache.Delete(key); err != nil && !errors.Is(err, ErrCacheMiss) {
		return err
	}
	return nil
}
