// Package sqlstore implements the repositories on a SQL database. It runs
// against PostgreSQL in deployment and against a local SQLite file when no
// DATABASE_URL is configured, which is the zero-setup default. All queries
// use ? placeholders and go through sqlx's Rebind so both dialects are
// served by the same code.
package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Store owns the database handle and creates the schema on connect.
type Store struct {
	db *sqlx.DB
}

// Connect opens the database and ensures all tables exist. A non-empty
// databaseURL selects PostgreSQL; otherwise the store opens the SQLite file
// at sqlitePath.
func Connect(databaseURL, sqlitePath string) (*Store, error) {
	driver, dsn := "sqlite3", sqlitePath
	if databaseURL != "" {
		driver, dsn = "postgres", databaseURL
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", driver, err)
	}

	if driver == "postgres" {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	} else {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY
		// under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset empties every table. Children go first so the deletes also work on
// databases with foreign keys enforced.
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"events", "guesses", "votes", "actions", "players", "games", "sessions", "users"}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("reset %s: %w", t, err)
		}
	}
	return nil
}
