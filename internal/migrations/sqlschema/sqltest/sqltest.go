// Package sqltest opens throwaway migrated SQLite databases for tests.
package sqltest

import (
	"context"
	"path/filepath"
	"smartrentals/internal/migrations/sqlschema"
	"smartrentals/pkg/db/sqldb"
	"testing"
)

// NewDB opens a migrated SQLite database in a per-test directory. A file
// rather than :memory: lets every pooled connection see the same data.
func NewDB(t testing.TB) *sqldb.DB {
	t.Helper()

	db, err := sqldb.Open(string(sqldb.SQLite), filepath.Join(t.TempDir(), "rentals.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := sqlschema.RunMigration(context.Background(), db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}
