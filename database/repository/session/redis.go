package sessionRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"glowdesk/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "chat:session:"

// RedisStore keeps sessions in Redis with a sliding inactivity TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	keys   *keyedMutex
}

// NewRedisStore returns a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, keys: newKeyedMutex()}
}

func (s *RedisStore) Get(ctx context.Context, customerID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+customerID).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.CustomerID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, customerID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+customerID).Err()
}

func (s *RedisStore) Lock(customerID string) func() {
	return s.keys.lock(customerID)
}
