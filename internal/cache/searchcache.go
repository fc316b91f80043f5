// Package cache persists search results in SQLite so repeated link suggestions
// for the same expression do not hit the search API again.
package cache

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"scribe/internal/search"
)

//go:embed schema.sql
var schemaSQL string

// SearchCache implements search.Cache using a SQLite database.
type SearchCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSearchCache opens (or creates) the SQLite database at dbPath, enables WAL mode and
// initializes the schema. Entries older than ttl are treated as missing; ttl <= 0 keeps
// entries forever.
func NewSearchCache(dbPath string, ttl time.Duration) (*SearchCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SearchCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns cached results for expression.
func (c *SearchCache) Get(expression string) ([]search.Result, bool, error) {
	var raw string
	var fetchedAt int64
	err := c.db.QueryRow(`
        SELECT results, fetched_at
        FROM search_results
        WHERE expression = ?
    `, expression).Scan(&raw, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to query cache: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}

	var results []search.Result
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached results: %w", err)
	}
	return results, true, nil
}

// Put stores results for expression, replacing any previous entry.
func (c *SearchCache) Put(expression string, results []search.Result) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	_, err = c.db.Exec(`
        INSERT INTO search_results (expression, results, fetched_at) VALUES (?, ?, ?)
        ON CONFLICT(expression) DO UPDATE SET results = excluded.results, fetched_at = excluded.fetched_at
    `, expression, string(data), c.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store results: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *SearchCache) Prune() (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.ttl).Unix()
	res, err := c.db.Exec(`DELETE FROM search_results WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (c *SearchCache) Close() error {
	return c.db.Close()
}
