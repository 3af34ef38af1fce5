package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"medlearn-service/internal/domain"
)

// BoardLoader recomputes a topic's ranked leaderboard from the backing store.
type BoardLoader interface {
	LoadBoard(ctx context.Context, topicID string) (domain.Leaderboard, error)
}

// BoardCache caches serialized leaderboards in Redis and falls back to a
// loader on cache miss. Boards are stored as: SET topic:{topicID}:board {json}
type BoardCache struct {
	client *redis.Client
	loader BoardLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBoardCache(client *redis.Client, loader BoardLoader, ttl time.Duration) *BoardCache {
	return &BoardCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BoardCache) Leaderboard(ctx context.Context, topicID string) (domain.Leaderboard, error) {
	key := c.boardKey(topicID)

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var board domain.Leaderboard
		if json.Unmarshal([]byte(raw), &board) == nil {
			return board, nil
		}
	}

	result, err, _ := c.sf.Do(topicID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := c.client.Get(ctx, key).Result()
		if err == nil {
			var board domain.Leaderboard
			if json.Unmarshal([]byte(raw), &board) == nil {
				return board, nil
			}
		}

		board, err := c.loader.LoadBoard(ctx, topicID)
		if err != nil {
			return domain.Leaderboard{}, err
		}

		if encoded, err := json.Marshal(board); err == nil {
			_ = c.client.Set(ctx, key, encoded, c.ttlWithJitter()).Err()
		}
		return board, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

func (c *BoardCache) Invalidate(ctx context.Context, topicID string) error {
	return c.client.Del(ctx, c.boardKey(topicID)).Err()
}

func (c *BoardCache) boardKey(topicID string) string {
	return "topic:" + topicID + ":board"
}

func (c *BoardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
