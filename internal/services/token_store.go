package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"practice-journal-api/internal/apperror"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	PurposeEmailConfirmation = "email_confirmation"
	PurposePasswordReset     = "password_reset"
)

// TokenStore keeps single-use email tokens and rate limits in Redis.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func tokenKey(purpose, token string) string {
	return fmt.Sprintf("token:%s:%s", purpose, token)
}

// IssueToken stores a random token for the user that expires after ttl.
func (s *TokenStore) IssueToken(ctx context.Context, purpose string, userID uint, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, tokenKey(purpose, token), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", purpose, err)
	}
	return token, nil
}

// ConsumeToken returns the user id for the token and deletes it. Unknown or
// expired tokens are a validation error.
func (s *TokenStore) ConsumeToken(ctx context.Context, purpose, token string) (uint, error) {
	if _, err := uuid.Parse(token); err != nil {
		return 0, apperror.ValidationFailed("token", "Invalid or expired token")
	}

	val, err := s.client.GetDel(ctx, tokenKey(purpose, token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperror.ValidationFailed("token", "Invalid or expired token")
		}
		return 0, err
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt %s token value %q", purpose, val)
	}
	return uint(id), nil
}

// AcquireRateLimit reports whether the caller may proceed. It returns false
// while an earlier call for the same key is younger than window.
func (s *TokenStore) AcquireRateLimit(ctx context.Context, action string, userID uint, window time.Duration) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s:%d", action, userID)
	return s.client.SetNX(ctx, key, "1", window).Result()
}
