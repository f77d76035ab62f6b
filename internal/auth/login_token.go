package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civigo/civigo/internal/models"
	"github.com/civigo/civigo/pkg/crypto"
	"github.com/civigo/civigo/pkg/metrics"
)

// DefaultLoginTokenTTL is the validity window for one-time login tokens.
const DefaultLoginTokenTTL = 10 * time.Minute

// tokenByteLength yields 256 bits of entropy per token.
const tokenByteLength = 32

// ErrTokenInvalid is the single failure returned to redeemers. Unknown,
// expired, and already-redeemed tokens are indistinguishable to the caller so
// the response leaks nothing about which tokens exist.
var ErrTokenInvalid = errors.New("login token is invalid or expired")

// TokenBrokerConfig configures a TokenBroker.
type TokenBrokerConfig struct {
	TTL   time.Duration
	Clock func() time.Time
}

// TokenBroker issues and redeems one-time login tokens. Redemption is
// strictly single-use regardless of the backing store.
type TokenBroker struct {
	store TokenStore
	ttl   time.Duration
	now   func() time.Time
}

// NewTokenBroker builds a broker over the given store.
func NewTokenBroker(store TokenStore, cfg TokenBrokerConfig) (*TokenBroker, error) {
	if store == nil {
		return nil, errors.New("token broker: store is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultLoginTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &TokenBroker{store: store, ttl: ttl, now: now}, nil
}

// Issue mints a fresh token for the authenticated holder and persists it with
// the configured TTL.
func (b *TokenBroker) Issue(ctx context.Context, userID, claimedUIN string) (string, error) {
	if userID == "" {
		return "", errors.New("token broker: user id is required")
	}

	token, err := crypto.GenerateToken(tokenByteLength)
	if err != nil {
		return "", fmt.Errorf("token broker: generate: %w", err)
	}

	record := models.LoginToken{
		Token:      token,
		UserID:     userID,
		ClaimedUIN: claimedUIN,
		ExpiresAt:  b.now().Add(b.ttl),
	}
	if err := b.store.Save(ctx, record); err != nil {
		return "", err
	}

	return token, nil
}

// Redeem exchanges a token for its record exactly once. Every failure mode
// surfaces as ErrTokenInvalid except store transport errors, which wrap.
func (b *TokenBroker) Redeem(ctx context.Context, token string) (*models.LoginToken, error) {
	if token == "" {
		metrics.TokenRedemptions.WithLabelValues("invalid").Inc()
		return nil, ErrTokenInvalid
	}

	record, err := b.store.Redeem(ctx, token, b.now())
	if errors.Is(err, errTokenNotFound) {
		metrics.TokenRedemptions.WithLabelValues("invalid").Inc()
		return nil, ErrTokenInvalid
	}
	if err != nil {
		metrics.TokenRedemptions.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.TokenRedemptions.WithLabelValues("success").Inc()
	return record, nil
}

// SweepExpired removes expired tokens from the store. It exists for hygiene
// and metrics only; expired tokens are already unredeemable.
func (b *TokenBroker) SweepExpired(ctx context.Context) (int64, error) {
	return b.store.PurgeExpired(ctx, b.now())
}
