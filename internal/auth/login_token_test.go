package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civigo/civigo/internal/database/testutil"
)

func newTestBroker(t *testing.T, clock func() time.Time) *TokenBroker {
	t.Helper()

	store, err := NewDatabaseTokenStore(testutil.MustOpenTestDB(t))
	require.NoError(t, err)

	broker, err := NewTokenBroker(store, TokenBrokerConfig{Clock: clock})
	require.NoError(t, err)
	return broker
}

func TestTokenIssueAndRedeem(t *testing.T) {
	broker := newTestBroker(t, nil)
	ctx := context.Background()

	token, err := broker.Issue(ctx, "user-1", "UIN-TEST12345678")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(token), 43) // 256 bits, base64url without padding

	record, err := broker.Redeem(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "user-1", record.UserID)
	require.Equal(t, "UIN-TEST12345678", record.ClaimedUIN)
}

func TestTokenSecondRedemptionFails(t *testing.T) {
	broker := newTestBroker(t, nil)
	ctx := context.Background()

	token, err := broker.Issue(ctx, "user-1", "UIN-TEST12345678")
	require.NoError(t, err)

	_, err = broker.Redeem(ctx, token)
	require.NoError(t, err)

	_, err = broker.Redeem(ctx, token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenConcurrentRedemptionHasOneWinner(t *testing.T) {
	broker := newTestBroker(t, nil)
	ctx := context.Background()

	token, err := broker.Issue(ctx, "user-1", "UIN-TEST12345678")
	require.NoError(t, err)

	const redeemers = 8
	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := broker.Redeem(ctx, token); err == nil {
				wins.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	require.Equal(t, int64(1), wins.Load())
}

// Expired tokens must be unredeemable even when no sweep has run.
func TestTokenExpiredWithoutSweep(t *testing.T) {
	current := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	broker := newTestBroker(t, clock)
	ctx := context.Background()

	token, err := broker.Issue(ctx, "user-1", "UIN-TEST12345678")
	require.NoError(t, err)

	mu.Lock()
	current = current.Add(DefaultLoginTokenTTL + time.Second)
	mu.Unlock()

	_, err = broker.Redeem(ctx, token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenUnknownIsInvalid(t *testing.T) {
	broker := newTestBroker(t, nil)

	_, err := broker.Redeem(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = broker.Redeem(context.Background(), "")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenSweepRemovesOnlyExpired(t *testing.T) {
	current := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	broker := newTestBroker(t, clock)
	ctx := context.Background()

	stale, err := broker.Issue(ctx, "user-1", "UIN-TEST12345678")
	require.NoError(t, err)

	mu.Lock()
	current = current.Add(DefaultLoginTokenTTL + time.Second)
	mu.Unlock()

	fresh, err := broker.Issue(ctx, "user-2", "UIN-TEST87654321")
	require.NoError(t, err)

	removed, err := broker.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, err = broker.Redeem(ctx, stale)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = broker.Redeem(ctx, fresh)
	require.NoError(t, err)
}
