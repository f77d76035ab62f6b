package maintenance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	iauth "github.com/civigo/civigo/internal/auth"
	"github.com/civigo/civigo/internal/database/testutil"
	"github.com/civigo/civigo/internal/models"
	"github.com/civigo/civigo/internal/services"
)

func TestRunOnceSweepsExpiredTokensAndOldAudit(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	ctx := context.Background()

	current := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	store, err := iauth.NewDatabaseTokenStore(db)
	require.NoError(t, err)
	broker, err := iauth.NewTokenBroker(store, iauth.TokenBrokerConfig{Clock: clock})
	require.NoError(t, err)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	// One token that will expire, one that stays fresh after the clock moves.
	stale, err := broker.Issue(ctx, "user-1", "UIN-TEST12345678")
	require.NoError(t, err)

	mu.Lock()
	current = current.Add(iauth.DefaultLoginTokenTTL + time.Minute)
	mu.Unlock()

	fresh, err := broker.Issue(ctx, "user-2", "UIN-TEST87654321")
	require.NoError(t, err)

	// One audit row beyond retention, one recent.
	old := models.AuditLog{Action: "old.event", Result: "ok", CreatedAt: current.AddDate(0, 0, -120)}
	require.NoError(t, db.Create(&old).Error)
	audit.Record(ctx, services.AuditEntry{Action: "fresh.event", Result: "ok"})

	cleaner := NewCleaner(broker, audit, WithNow(clock), WithAuditRetentionDays(90))
	require.NoError(t, cleaner.RunOnce(ctx))

	var tokens []models.LoginToken
	require.NoError(t, db.Find(&tokens).Error)
	require.Len(t, tokens, 1)
	require.NotEqual(t, stale, tokens[0].Token)
	require.Equal(t, fresh, tokens[0].Token)

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.Equal(t, int64(1), auditCount)
}

func TestCleanerStartRegistersJobs(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	store, err := iauth.NewDatabaseTokenStore(db)
	require.NoError(t, err)
	broker, err := iauth.NewTokenBroker(store, iauth.TokenBrokerConfig{})
	require.NoError(t, err)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(broker, audit,
		WithTokenSchedule("@every 1h"),
		WithAuditSchedule("@daily"))
	require.NoError(t, cleaner.Start())

	<-cleaner.Stop().Done()
}

func TestCleanerWithNothingToDo(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
}
