package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"

	"satbridge/internal/constants"

	_ "github.com/mattn/go-sqlite3"
)

// Database is a read-only view of the device app's sqlite datastore. The
// companion app writes it concurrently, so the connection is opened in
// read-only mode with a busy timeout and never issues a write.
type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("datastore path is empty")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("datastore not accessible: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&cache=shared&_busy_timeout=%d",
		url.PathEscape(dbPath), constants.DatastoreBusyTimeoutMs)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping datastore: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping datastore: %w", err)
	}

	// A single connection keeps the shared-cache read view stable.
	db.SetMaxOpenConns(1)

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
