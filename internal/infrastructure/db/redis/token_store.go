package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

// TokenStore holds email verification tokens in Redis.
// Key format: verify:<token> -> user id, expiring after the configured TTL.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a TokenStore wrapping the given Redis client.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Save records the token for the user. Re-issuing overwrites any prior
// token with a fresh TTL.
func (s *TokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save verification token: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the token, so each token
// verifies at most once. Unknown or expired tokens map to
// domain.ErrTokenInvalid.
func (s *TokenStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrTokenInvalid
		}
		return "", fmt.Errorf("consume verification token: %w", err)
	}
	return userID, nil
}

func (s *TokenStore) key(token string) string {
	return "verify:" + token
}
