package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civigo/civigo/internal/models"
)

const redisTokenPrefix = "civigo:login-token:"

// RedisTokenStore keeps tokens in Redis. GETDEL makes redemption a single
// atomic operation, and key TTLs expire unredeemed tokens without a sweep.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore wraps an already-connected client.
func NewRedisTokenStore(client *redis.Client) (*RedisTokenStore, error) {
	if client == nil {
		return nil, errors.New("token store: redis client is required")
	}
	return &RedisTokenStore{client: client}, nil
}

type redisTokenPayload struct {
	UserID     string    `json:"user_id"`
	ClaimedUIN string    `json:"claimed_uin"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s *RedisTokenStore) Save(ctx context.Context, token models.LoginToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return errors.New("token store: token already expired")
	}

	payload, err := json.Marshal(redisTokenPayload{
		UserID:     token.UserID,
		ClaimedUIN: token.ClaimedUIN,
		ExpiresAt:  token.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("token store: encode: %w", err)
	}

	if err := s.client.Set(ctx, redisTokenPrefix+token.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("token store: save: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Redeem(ctx context.Context, token string, now time.Time) (*models.LoginToken, error) {
	raw, err := s.client.GetDel(ctx, redisTokenPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("token store: getdel: %w", err)
	}

	var payload redisTokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("token store: decode: %w", err)
	}

	// The key TTL normally handles expiry; the explicit check guards against
	// clock skew between the issuing process and Redis.
	if !now.Before(payload.ExpiresAt) {
		return nil, errTokenNotFound
	}

	return &models.LoginToken{
		Token:      token,
		UserID:     payload.UserID,
		ClaimedUIN: payload.ClaimedUIN,
		ExpiresAt:  payload.ExpiresAt,
	}, nil
}

// PurgeExpired is a no-op for Redis: key TTLs already reclaim expired tokens.
func (s *RedisTokenStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
