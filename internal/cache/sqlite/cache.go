// Package sqlite persists provider outputs in a local SQLite file so repeated
// runs over identical pages skip the provider call.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"housingreview/internal/port"
)

const schema = `
CREATE TABLE IF NOT EXISTS extraction_cache (
	cache_key  TEXT PRIMARY KEY,
	output     TEXT NOT NULL,
	stored_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extraction_cache_expires_at ON extraction_cache(expires_at);
`

// Cache implements port.ExtractionCache on modernc.org/sqlite.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ port.ExtractionCache = (*Cache)(nil)

// Option customizes a Cache.
type Option func(*Cache)

// WithNow replaces the clock used for expiry.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Open opens (or creates) the cache at dsn and applies the schema. A zero
// ttl keeps entries forever.
func Open(ctx context.Context, dsn string, ttl time.Duration, opts ...Option) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}

	c := &Cache{db: db, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (*port.AnalyzeOutput, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT output FROM extraction_cache WHERE cache_key = ? AND expires_at > ?`,
		key, c.now().UnixNano(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get cached extraction")
	}

	var out port.AnalyzeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: unmarshal cached extraction")
	}
	return &out, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, out *port.AnalyzeOutput) error {
	raw, err := json.Marshal(out)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal extraction")
	}

	now := c.now()
	expires := int64(1<<63 - 1)
	if c.ttl > 0 {
		expires = now.Add(c.ttl).UnixNano()
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO extraction_cache (cache_key, output, stored_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET output = excluded.output,
		 stored_at = excluded.stored_at, expires_at = excluded.expires_at`,
		key, string(raw), now.UnixNano(), expires,
	)
	return eris.Wrap(err, "sqlite: put cached extraction")
}

// Purge deletes expired entries and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM extraction_cache WHERE expires_at <= ?`, c.now().UnixNano())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge extraction cache")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
