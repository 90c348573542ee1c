package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTokenTTL = 30 * time.Minute

// RedisStore keeps tokens in Redis so multiple nodes can serve the same
// render/submit pair. Entries expire with the TTL, which bounds how long a
// rendered form stays submittable with its token.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a Redis client. A non-positive TTL falls back to the
// default of 30 minutes.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func tokenKey(sessionID string) string {
	return fmt.Sprintf("formguard:token:%s", sessionID)
}

// Save stores the token under the session key with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID, token string) error {
	if err := s.client.Set(ctx, tokenKey(sessionID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

// Get returns the issued token, or ErrNotIssued when the key is missing or
// expired.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	value, err := s.client.Get(ctx, tokenKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotIssued
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session token: %w", err)
	}
	return value, nil
}

// Delete removes the session's token.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, tokenKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}
