package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// connPragmas are applied to every fresh connection. The engine and the HTTP
// layer share one database file, so writers need a busy timeout rather than
// an immediate SQLITE_BUSY.
var connPragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA timezone = 'UTC'",
	"PRAGMA busy_timeout = 5000",
}

// Open opens the SQLite database file and applies the connection pragmas.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range connPragmas {
		if _, err := db.Exec(pragma); err != nil {
			//nolint:errcheck // Close error is secondary to the pragma failure
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// HealthCheck reports whether the database connection is usable.
func HealthCheck(db *sql.DB) error {
	return db.Ping()
}
