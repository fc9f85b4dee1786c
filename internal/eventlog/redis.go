//
//
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisRecord is the JSON encoding of one list element.
type redisRecord struct {
	Timestamp string `json:"timestamp"`
	GroupSize int    `json:"group_size"`
}

// RedisStore keeps the log in a Redis list; RPUSH preserves arrival order.
type RedisStore struct {
	client *redis.Client
	key    string
	loc    *time.Location
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr string, db int, key string, loc *time.Location) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, key, loc), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, key string, loc *time.Location) *RedisStore {
	if loc == nil {
		loc = time.Local
	}
	return &RedisStore{client: client, key: key, loc: loc}
}

// Append pushes one record to the tail of the list.
func (s *RedisStore) Append(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(redisRecord{
		Timestamp: FormatTime(event.OccurredAt, s.loc),
		GroupSize: event.GroupSize,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.client.RPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ReadUntil reads the whole list.
func (s *RedisStore) ReadUntil(ctx context.Context, until time.Time) ([]Event, error) {
	values, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	events := make([]Event, 0, len(values))
	for _, value := range values {
		var record redisRecord
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		ts, err := ParseTime(record.Timestamp, s.loc)
		if err != nil {
			return nil, err
		}
		events = append(events, Event{OccurredAt: ts, GroupSize: record.GroupSize})
	}

	return filterUntil(events, until), nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
