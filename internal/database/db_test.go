package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civigo/civigo/internal/models"
)

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	var count int64
	require.NoError(t, db.Model(&models.Application{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mongodb"})
	require.Error(t, err)
}

func TestMigrateRejectsNilHandle(t *testing.T) {
	require.Error(t, Migrate(nil))
}
