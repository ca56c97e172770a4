package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tempoview/tempoview/internal/database"
)

// MigrateFunc applies a schema migration to the test database.
type MigrateFunc func(*gorm.DB) error

// MustOpenTestDB opens an in-memory SQLite database for tests and applies the
// given migrations. The connection is closed via t.Cleanup.
func MustOpenTestDB(t *testing.T, migrations ...MigrateFunc) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)

	for _, migrate := range migrations {
		require.NoError(t, migrate(db))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
