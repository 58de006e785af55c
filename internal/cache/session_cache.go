package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/evaluation"
)

// ErrSessionNotFound is returned when a session is absent or expired.
var ErrSessionNotFound = errors.New("evaluation session not found")

// SessionCache keeps in-flight evaluation sessions between requests.
// Snapshots are JSON values with a sliding TTL; an abandoned session simply
// expires.
type SessionCache interface {
	Set(ctx context.Context, session *evaluation.Session) error
	Get(ctx context.Context, id string) (*evaluation.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    time.Hour,
	}
}

func (c *sessionCache) key(id string) string {
	return "eval:session:" + id
}

func (c *sessionCache) Set(ctx context.Context, session *evaluation.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*evaluation.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session evaluation.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
