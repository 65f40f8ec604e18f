package database

import (
	"embed"
	"os"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/db"
	"github.com/umakantv/go-utils/db/migrations"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// InitializeDatabase opens the SQLite database and brings the schema up to
// date. Foreign keys are enforced so the cascade/set-null rules in the schema
// actually apply.
func InitializeDatabase(path string) *sqlx.DB {
	config := db.DatabaseConfig{
		DRIVER: "sqlite3",
		DB:     path,
	}

	dbConn := db.GetDBConnection(config)
	dbConn.MustExec(`PRAGMA foreign_keys = ON`)

	err := migrations.Migrate(dbConn, "./database/migrations")
	if err != nil {
		logger.Error("Error while running migration", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Database initialized successfully")
	return dbConn
}

// ApplyMigrations executes every embedded migration in filename order against
// an already-open connection. Test fixtures use it to build throwaway
// in-memory databases without touching the migrations directory on disk.
func ApplyMigrations(conn *sqlx.DB) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		if _, err := conn.Exec(string(sql)); err != nil {
			return err
		}
	}
	return nil
}
