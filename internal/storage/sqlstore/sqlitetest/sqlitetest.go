// Package sqlitetest provides a migrated, file-backed SQLite store for tests.
package sqlitetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"localbiz/internal/storage/sqlstore"
)

// New returns a repo and its pool over a fresh database in t.TempDir().
func New(t testing.TB) (*sqlstore.Repo, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "localbiz.db")

	if err := sqlstore.MigrateUp("sqlite3", path); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	db, err := sqlstore.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo, err := sqlstore.New(db, "sqlite3")
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo, db
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
