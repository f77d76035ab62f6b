package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/civigo/civigo/internal/auth"
	"github.com/civigo/civigo/internal/database/testutil"
	"github.com/civigo/civigo/internal/storage"
	"github.com/civigo/civigo/internal/verification"
	"github.com/civigo/civigo/internal/vision/visiontest"
)

// testEnv wires the full service stack over fakes and an in-memory database.
type testEnv struct {
	db      *gorm.DB
	fake    *visiontest.Fake
	objects *storage.MemoryStore
	apps    *ApplicationService
	login   *LoginService
	holders *HolderService
	users   *UserService
	audit   *AuditService
	broker  *auth.TokenBroker
	jwt     *auth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	fake := visiontest.NewFake()
	objects := storage.NewMemoryStore()
	policy := verification.DefaultPolicy()
	gate := verification.NewQualityGate(fake, verification.DefaultQualityBounds())
	scorer := verification.NewScorer(fake, policy)

	audit, err := NewAuditService(db)
	require.NoError(t, err)

	users, err := NewUserService(db)
	require.NoError(t, err)

	holders, err := NewHolderService(db)
	require.NoError(t, err)

	apps, err := NewApplicationService(ApplicationServiceConfig{
		DB:             db,
		Gate:           gate,
		Scorer:         scorer,
		Policy:         policy,
		Objects:        objects,
		Holders:        holders,
		Users:          users,
		Audit:          audit,
		HolderValidity: 5 * 365 * 24 * time.Hour,
	})
	require.NoError(t, err)

	store, err := auth.NewDatabaseTokenStore(db)
	require.NoError(t, err)

	broker, err := auth.NewTokenBroker(store, auth.TokenBrokerConfig{})
	require.NoError(t, err)

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{
		Secret: "test-secret-at-least-32-bytes-long!!",
		Issuer: "civigo-test",
	})
	require.NoError(t, err)

	login, err := NewLoginService(LoginServiceConfig{
		Gate:    gate,
		Scorer:  scorer,
		Policy:  policy,
		Holders: holders,
		Users:   users,
		Broker:  broker,
		JWT:     jwtSvc,
		Audit:   audit,
	})
	require.NoError(t, err)

	return &testEnv{
		db:      db,
		fake:    fake,
		objects: objects,
		apps:    apps,
		login:   login,
		holders: holders,
		users:   users,
		audit:   audit,
		broker:  broker,
		jwt:     jwtSvc,
	}
}

func testSubmission(userID string) SubmitApplicationInput {
	return SubmitApplicationInput{
		UserID:         userID,
		Document:       []byte("document-image"),
		Selfie:         []byte("selfie-image"),
		FullName:       "Amina Diallo",
		DateOfBirth:    "1990-04-12",
		DocumentNumber: "P1234567",
		Nationality:    "SN",
		DocumentType:   "passport",
	}
}
