package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

// HistoryCache fronts the per-user evaluation list. Entries are invalidated
// on every save and delete, so a miss falls through to Mongo.
type HistoryCache interface {
	Get(ctx context.Context, userID string) ([]*model.EvaluationResult, bool, error)
	Set(ctx context.Context, userID string, results []*model.EvaluationResult) error
	Invalidate(ctx context.Context, userID string) error
}

type historyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHistoryCache creates a new history cache
func NewHistoryCache(client *redis.Client) HistoryCache {
	return &historyCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *historyCache) key(userID string) string {
	return "history:" + userID
}

func (c *historyCache) Get(ctx context.Context, userID string) ([]*model.EvaluationResult, bool, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var results []*model.EvaluationResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, false, err
	}
	return results, true, nil
}

func (c *historyCache) Set(ctx context.Context, userID string, results []*model.EvaluationResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), data, c.ttl).Err()
}

func (c *historyCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}
