package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.False(t, cfg.Redis.Enabled)

	require.Equal(t, float64(70), cfg.Verification.AutoApprove)
	require.Equal(t, float64(50), cfg.Verification.ManualReview)
	require.Equal(t, float64(60), cfg.Verification.Login)
	require.Equal(t, float64(50), cfg.Verification.CompareFloor)

	require.Equal(t, 10*time.Minute, cfg.Auth.LoginToken.TTL)
	require.Equal(t, "@every 5m", cfg.Auth.LoginToken.SweepSchedule)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
}

func TestVerificationConfigConversions(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	policy := cfg.Verification.Policy()
	require.NoError(t, policy.Validate())

	bounds := cfg.Verification.QualityBounds()
	require.Equal(t, float64(20), bounds.MinBrightness)
	require.Equal(t, float64(80), bounds.MaxBrightness)
	require.Equal(t, float64(90), bounds.MinConfidence)
}

func TestDatabaseServiceConfigPostgres(t *testing.T) {
	dc := DatabaseConfig{
		Driver: "postgres",
		Postgres: DBAuthConfig{
			Host:     "db.internal",
			Port:     5433,
			Database: "civigo",
			Username: "portal",
			Password: "secret",
		},
	}

	out := dc.DatabaseServiceConfig()
	require.Equal(t, "db.internal", out.Host)
	require.Equal(t, 5433, out.Port)
	require.Equal(t, "civigo", out.Name)
	require.Equal(t, "portal", out.User)
}
