package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"medlearn-service/internal/domain"
)

// BoardLoader recomputes a topic's ranked leaderboard from the backing store.
type BoardLoader interface {
	LoadBoard(ctx context.Context, topicID string) (domain.Leaderboard, error)
}

// BoardCache caches leaderboards with TTL to avoid recomputing on every read.
type BoardCache struct {
	loader BoardLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBoard
}

type cachedBoard struct {
	board     domain.Leaderboard
	expiresAt time.Time
}

func NewBoardCache(loader BoardLoader, ttl time.Duration) *BoardCache {
	return &BoardCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBoard),
	}
}

func (c *BoardCache) Leaderboard(ctx context.Context, topicID string) (domain.Leaderboard, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[topicID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.board, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(topicID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[topicID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.board, nil
		}
		c.mu.RUnlock()

		board, err := c.loader.LoadBoard(ctx, topicID)
		if err != nil {
			return domain.Leaderboard{}, err
		}

		c.mu.Lock()
		c.cache[topicID] = cachedBoard{
			board:     board,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return board, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

func (c *BoardCache) Invalidate(_ context.Context, topicID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, topicID)
	return nil
}

func (c *BoardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
