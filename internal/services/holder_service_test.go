package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civigo/civigo/internal/models"
	"github.com/civigo/civigo/internal/vision"
	apperrors "github.com/civigo/civigo/pkg/errors"
)

func approveApplication(t *testing.T, env *testEnv, userID string) *models.Application {
	t.Helper()

	env.fake.CompareResult = vision.CompareResult{Similarity: 85, Matched: true, Confidence: 99}
	app, err := env.apps.Submit(context.Background(), testSubmission(userID))
	require.NoError(t, err)
	require.Equal(t, models.ApplicationApproved, app.Status)
	return app
}

func TestVerifyActiveCredential(t *testing.T) {
	env := newTestEnv(t)
	app := approveApplication(t, env, "citizen-1")

	result, err := env.holders.Verify(context.Background(), *app.UIN)
	require.NoError(t, err)

	require.True(t, result.Valid)
	require.Equal(t, models.HolderActive, result.Status)
	require.Equal(t, "Amina Diallo", result.FullName)
}

func TestVerifyUnknownUIN(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.holders.Verify(context.Background(), "UIN-DOESNOTEXIST")
	require.NoError(t, err)
	require.False(t, result.Valid)
}

// A stored active status never outlives the expiry date; verification also
// flips the stale row so later reads agree.
func TestVerifyExpiryOverridesStoredStatus(t *testing.T) {
	env := newTestEnv(t)
	app := approveApplication(t, env, "citizen-1")

	require.NoError(t, env.db.Model(&models.Holder{}).
		Where("uin = ?", *app.UIN).
		Update("expiry_date", time.Now().Add(-time.Hour)).Error)

	result, err := env.holders.Verify(context.Background(), *app.UIN)
	require.NoError(t, err)

	require.False(t, result.Valid)
	require.Equal(t, models.HolderExpired, result.Status)

	var stored models.Holder
	require.NoError(t, env.db.First(&stored, "uin = ?", *app.UIN).Error)
	require.Equal(t, models.HolderExpired, stored.Status)
}

func TestSuspendCredential(t *testing.T) {
	env := newTestEnv(t)
	app := approveApplication(t, env, "citizen-1")
	ctx := context.Background()

	holder, err := env.holders.Suspend(ctx, *app.UIN, "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.HolderSuspended, holder.Status)

	result, err := env.holders.Verify(ctx, *app.UIN)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, models.HolderSuspended, result.Status)

	_, err = env.holders.Suspend(ctx, *app.UIN, "reviewer-1")
	require.Error(t, err)
	require.Equal(t, apperrors.ErrConflict.Code, apperrors.FromError(err).Code)
}

func TestQRCodeForValidCredential(t *testing.T) {
	env := newTestEnv(t)
	app := approveApplication(t, env, "citizen-1")

	png, err := env.holders.QRCode(context.Background(), *app.UIN)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestQRCodeRefusedForInvalidCredential(t *testing.T) {
	env := newTestEnv(t)
	app := approveApplication(t, env, "citizen-1")

	_, err := env.holders.Suspend(context.Background(), *app.UIN, "reviewer-1")
	require.NoError(t, err)

	_, err = env.holders.QRCode(context.Background(), *app.UIN)
	require.Error(t, err)
}
