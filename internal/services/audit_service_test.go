package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civigo/civigo/internal/auditctx"
	"github.com/civigo/civigo/internal/database/testutil"
	"github.com/civigo/civigo/internal/models"
)

func TestAuditRecordAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	ctx := context.Background()

	svc.Record(ctx, AuditEntry{
		UserID:   "user-1",
		Action:   AuditActionLoginAttempt,
		Resource: "UIN-TEST12345678",
		Result:   "denied",
		Metadata: map[string]any{"reason": "confidence too low for authentication"},
	})
	svc.Record(ctx, AuditEntry{
		Action: AuditActionApplicationSubmitted,
		Result: "accepted",
	})

	entries, total, err := svc.List(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, entries, 2)

	byAction, total, err := svc.List(ctx, AuditFilter{Action: AuditActionLoginAttempt})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Contains(t, byAction[0].Metadata, "confidence too low")
	require.NotNil(t, byAction[0].UserID)
	require.Equal(t, "user-1", *byAction[0].UserID)
}

func TestAuditPurgeOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	ctx := context.Background()

	old := models.AuditLog{Action: "old.event", Result: "ok", CreatedAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, db.Create(&old).Error)
	svc.Record(ctx, AuditEntry{Action: "fresh.event", Result: "ok"})

	removed, err := svc.PurgeOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, total, err := svc.List(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestAuditRecordBackfillsActorFromContext(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := auditctx.WithActor(context.Background(), auditctx.Actor{
		UserID:    "user-9",
		IPAddress: "203.0.113.9",
	})

	svc.Record(ctx, AuditEntry{Action: "login.attempt", Result: "denied"})

	var record models.AuditLog
	require.NoError(t, db.First(&record, "action = ?", "login.attempt").Error)
	require.NotNil(t, record.UserID)
	require.Equal(t, "user-9", *record.UserID)
	require.Equal(t, "203.0.113.9", record.IPAddress)

	// Explicit entry fields win over the context actor.
	svc.Record(ctx, AuditEntry{Action: "login.completed", Result: "ok", UserID: "user-2", IPAddress: "198.51.100.4"})
	record = models.AuditLog{}
	require.NoError(t, db.First(&record, "action = ?", "login.completed").Error)
	require.Equal(t, "user-2", *record.UserID)
	require.Equal(t, "198.51.100.4", record.IPAddress)
}
