package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix is the Redis key prefix for console sessions.
const sessionKeyPrefix = "session:"

// SessionStore keeps encoded sessions in Redis. It satisfies session.Store.
type SessionStore struct {
	client *redis.Client
}

// Sessions returns the session store backed by c.
func (c *Cache) Sessions() *SessionStore {
	return &SessionStore{client: c.client}
}

// Save stores data under id with the given TTL.
func (s *SessionStore) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+id, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Load returns the data stored under id, or nil when it is missing.
func (s *SessionStore) Load(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Delete removes the session and every view state stored for it.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeys(id)...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func sessionKeys(id string) []string {
	keys := []string{sessionKeyPrefix + id}
	for _, view := range Views {
		keys = append(keys, viewKey(id, view), seqKey(id, view))
	}
	return keys
}
