package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	viewKeyPrefix = "view:"
	seqKeyPrefix  = "viewseq:"

	// DefaultViewStateTTL is used when no view state TTL is configured.
	DefaultViewStateTTL = 30 * time.Minute
)

// View names, also used as metric labels and view state key suffixes.
const (
	ViewBooks = "books"
	ViewLoans = "loans"
)

// Views lists every view whose state is kept per session.
var Views = []string{ViewBooks, ViewLoans}

func viewKey(sessionID, view string) string {
	return viewKeyPrefix + sessionID + ":" + view
}

func seqKey(sessionID, view string) string {
	return seqKeyPrefix + sessionID + ":" + view
}

// saveIfNewerScript writes a view state unless the stored one carries a
// higher sequence number.
var saveIfNewerScript = redis.NewScript(`
	local key = KEYS[1]
	local seq = tonumber(ARGV[1])
	local data = ARGV[2]
	local ttl = tonumber(ARGV[3])

	local current = tonumber(redis.call('HGET', key, 'seq') or '-1')
	if current ~= nil and seq < current then
		return 0
	end

	redis.call('HSET', key, 'seq', seq, 'data', data)
	redis.call('EXPIRE', key, ttl)
	return 1
`)

// ViewStore persists list view state per session. It satisfies
// listing.ViewStore; keys are built with ViewKey.
type ViewStore struct {
	client *redis.Client
	ttl    time.Duration
}

// Views returns a view state store whose entries live for ttl.
func (c *Cache) Views(ttl time.Duration) *ViewStore {
	if ttl <= 0 {
		ttl = DefaultViewStateTTL
	}
	return &ViewStore{client: c.client, ttl: ttl}
}

// ViewKey returns the key of view for a session.
func ViewKey(sessionID, view string) string {
	return viewKey(sessionID, view)
}

// Get returns the stored state, or nil when there is none.
func (s *ViewStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.HGet(ctx, key, "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}
	return data, nil
}

// SaveIfNewer stores data unless a state with a higher seq is stored.
func (s *ViewStore) SaveIfNewer(ctx context.Context, key string, seq int64, data []byte) (bool, error) {
	saved, err := saveIfNewerScript.Run(ctx, s.client,
		[]string{key},
		seq, data, int(s.ttl.Seconds()),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis save view failed: %w", err)
	}
	return saved == 1, nil
}

// Delete removes a stored state.
func (s *ViewStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Sequencer returns the load counter of view for a session.
func (s *ViewStore) Sequencer(sessionID, view string) *Sequencer {
	return &Sequencer{client: s.client, key: seqKey(sessionID, view), ttl: s.ttl}
}

// Sequencer is a Redis counter shared by every request of one view. It
// satisfies listing.Sequencer.
type Sequencer struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// Next increments and returns the counter.
func (s *Sequencer) Next(ctx context.Context) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, s.key)
	pipe.Expire(ctx, s.key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr failed: %w", err)
	}
	return incr.Val(), nil
}

// Latest returns the last value handed out, 0 when none.
func (s *Sequencer) Latest(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, s.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return n, nil
}
