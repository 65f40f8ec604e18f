// Package testdb builds throwaway in-memory SQLite databases for package
// tests. Each database lives on a single connection so the :memory: store is
// shared by every query in the test.
package testdb

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"tienda/database"
)

// Open returns a migrated in-memory database that is closed when the test
// finishes.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	// A second pool connection would see a different empty :memory: database.
	conn.SetMaxOpenConns(1)
	conn.MustExec(`PRAGMA foreign_keys = ON`)

	if err := database.ApplyMigrations(conn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}
