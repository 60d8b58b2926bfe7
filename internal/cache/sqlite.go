package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const createPreferences = `CREATE TABLE IF NOT EXISTS preferences (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLite stores the word list in a key/value table.
type SQLite struct {
	db    *sql.DB
	owned bool
}

// NewSQLite wraps db, creating the preferences table if needed. Close does
// not close a database that was passed in.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(createPreferences); err != nil {
		return nil, fmt.Errorf("create preferences: %w", err)
	}
	return &SQLite{db: db}, nil
}

// OpenSQLite opens (or creates) a dedicated SQLite file for the cache.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	c, err := NewSQLite(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

func (c *SQLite) Load(ctx context.Context) ([]string, error) {
	var v string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key=?`, WordsKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", WordsKey, err)
	}
	return decodeSet([]byte(v))
}

func (c *SQLite) Save(ctx context.Context, words []string) error {
	b, err := encodeSet(words)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, WordsKey, string(b))
	if err != nil {
		return fmt.Errorf("save %s: %w", WordsKey, err)
	}
	return nil
}

func (c *SQLite) Close() error {
	if c.owned {
		return c.db.Close()
	}
	return nil
}
