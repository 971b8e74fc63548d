package storetables

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"imagehost/models"
)

// newTestRepo opens a fresh database under the test's temp dir with the
// same DSN options the application uses.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_fk=1&_txlock=immediate&_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Store{}))
	return NewRepo(gdb, zap.NewNop())
}

func mustIdent(t *testing.T, raw string) StoreIdent {
	t.Helper()
	ident, err := SanitizeStoreID(raw)
	require.NoError(t, err)
	return ident
}

// tableNames lists the user tables currently in the database.
func tableNames(t *testing.T, r *Repo) []string {
	t.Helper()
	var names []string
	err := r.db.Raw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'",
	).Scan(&names).Error
	require.NoError(t, err)
	return names
}
