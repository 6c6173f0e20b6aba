// Package lkg persists last-known-good content snapshots in SQLite. When
// the upstream API is unreachable and the cache has nothing, the gateway
// serves the most recent snapshot instead of an error page.
package lkg

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store defines snapshot persistence. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type Store interface {
	Put(key string, v any) error
	Get(key string, v any) (time.Time, error)
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with snapshot operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the snapshot database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("lkg: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("lkg: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("lkg: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Put stores v as the snapshot for key, replacing any previous one.
func (db *DB) Put(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("lkg: encode %s: %w", key, err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO snapshots (key, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("lkg: put %s: %w", key, err)
	}
	return nil
}

// Get decodes the snapshot for key into v and returns when it was fetched.
// A missing key reports apperr.ErrNotFound.
func (db *DB) Get(key string, v any) (time.Time, error) {
	var payload []byte
	var fetchedAt time.Time
	err := db.conn.QueryRow(
		`SELECT payload, fetched_at FROM snapshots WHERE key = ?`, key,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, apperr.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("lkg: get %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return time.Time{}, fmt.Errorf("lkg: decode %s: %w", key, err)
	}
	return fetchedAt, nil
}

// Delete removes the snapshot for key. Deleting an absent key is not an
// error.
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("lkg: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists all snapshot keys.
func (db *DB) Keys() ([]string, error) {
	rows, err := db.conn.Query(`SELECT key FROM snapshots ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("lkg: list keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("lkg: scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lkg: iterate keys: %w", err)
	}
	return keys, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
