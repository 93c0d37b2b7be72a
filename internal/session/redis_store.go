package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of redis with per-session TTLs.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client (shared with the rate
// limiter in the server wiring).
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *RedisStore) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKey(sessionID), userID, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
