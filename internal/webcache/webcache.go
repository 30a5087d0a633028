// Package webcache deduplicates fetches of external resources by
// canonical URL. Content is cached once per URL regardless of which
// search query produced it; query-to-URL lineage is kept separately for
// analytics and never read on the hit path.
package webcache

import (
	"database/sql"
	"log"
	"time"

	"github.com/danielpatrickdp/creativity-controller/internal/state"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS url_cache (
	url_hash       TEXT PRIMARY KEY,
	url            TEXT NOT NULL UNIQUE,
	content        TEXT NOT NULL,
	content_length INTEGER,
	status_code    INTEGER,
	timestamp      TEXT NOT NULL,
	hit_count      INTEGER DEFAULT 0,
	last_accessed  TEXT,
	domain         TEXT
);

CREATE TABLE IF NOT EXISTS query_url_map (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	query          TEXT NOT NULL,
	url_hash       TEXT NOT NULL,
	search_backend TEXT,
	timestamp      TEXT NOT NULL,
	FOREIGN KEY (url_hash) REFERENCES url_cache(url_hash),
	UNIQUE(query, url_hash, search_backend)
);

CREATE INDEX IF NOT EXISTS idx_url_domain ON url_cache(domain);
CREATE INDEX IF NOT EXISTS idx_query_map ON query_url_map(query);
CREATE INDEX IF NOT EXISTS idx_url_map_hash ON query_url_map(url_hash);
`
// #endregion schema

// #region cache-struct
// Cache is a URL-keyed persistent content cache backed by SQLite.
type Cache struct {
	db *sql.DB
}
// #endregion cache-struct

// #region constructor
// New opens the cache database and runs migrations.
func New(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, state.Errorf(state.KindStorage, "open cache db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, state.Errorf(state.KindStorage, "pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, state.Errorf(state.KindStorage, "migrate: %w", err)
	}
	return &Cache{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. runlog).
func (c *Cache) DB() *sql.DB {
	return c.db
}
// #endregion close

// #region lookup
// Lookup returns the cached content for url. On a hit the entry's hit
// count and last-accessed time are bumped. A miss returns ok=false with
// no error; the caller fetches and calls Store.
func (c *Cache) Lookup(url string) (string, bool, error) {
	hash := Key(url)

	var content string
	err := c.db.QueryRow(`SELECT content FROM url_cache WHERE url_hash = ?`, hash).Scan(&content)
	if err == sql.ErrNoRows {
		log.Printf("[CACHE] miss %s", truncate(url, 60))
		return "", false, nil
	}
	if err != nil {
		return "", false, state.Errorf(state.KindStorage, "cache lookup: %w", err)
	}

	_, err = c.db.Exec(
		`UPDATE url_cache SET hit_count = hit_count + 1, last_accessed = ? WHERE url_hash = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), hash,
	)
	if err != nil {
		return "", false, state.Errorf(state.KindStorage, "cache hit update: %w", err)
	}

	log.Printf("[CACHE] hit %s", truncate(url, 60))
	return content, true, nil
}
// #endregion lookup

// #region store
// Store caches content for url. Storing an already-present URL replaces
// the content and metadata in one atomic statement; the hit count is
// preserved and no duplicate entry is created.
func (c *Cache) Store(url, content string, statusCode int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := c.db.Exec(
		`INSERT INTO url_cache
		 (url_hash, url, content, content_length, status_code, timestamp, hit_count, last_accessed, domain)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(url_hash) DO UPDATE SET
		   content        = excluded.content,
		   content_length = excluded.content_length,
		   status_code    = excluded.status_code,
		   timestamp      = excluded.timestamp,
		   last_accessed  = excluded.last_accessed`,
		Key(url), Normalize(url), content, len(content), statusCode, now, now, Domain(url),
	)
	if err != nil {
		return state.Errorf(state.KindStorage, "cache store: %w", err)
	}
	return nil
}
// #endregion store

// #region link
// Link records query->URL lineage for analytics. Duplicate links are
// ignored. Correctness of Lookup/Store never depends on this table.
func (c *Cache) Link(query string, urls []string, backend string) error {
	if len(urls) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := c.db.Begin()
	if err != nil {
		return state.Errorf(state.KindStorage, "link begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, u := range urls {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO query_url_map (query, url_hash, search_backend, timestamp)
			 VALUES (?, ?, ?, ?)`,
			query, Key(u), backend, now,
		)
		if err != nil {
			return state.Errorf(state.KindStorage, "link insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return state.Errorf(state.KindStorage, "link commit: %w", err)
	}

	log.Printf("[CACHE] linked query %q to %d urls (%s)", truncate(query, 40), len(urls), backend)
	return nil
}
// #endregion link

// #region bulk
// BulkLookup looks up many URLs at once. Hits land in the returned map;
// URLs absent from the cache come back in missing, in input order.
func (c *Cache) BulkLookup(urls []string) (map[string]string, []string, error) {
	hits := make(map[string]string, len(urls))
	var missing []string
	for _, u := range urls {
		content, ok, err := c.Lookup(u)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			hits[u] = content
		} else {
			missing = append(missing, u)
		}
	}
	log.Printf("[CACHE] bulk lookup: %d/%d hits", len(hits), len(urls))
	return hits, missing, nil
}

// BulkStore caches many URL/content pairs with Store semantics per entry.
func (c *Cache) BulkStore(contents map[string]string) error {
	for u, body := range contents {
		if err := c.Store(u, body, 200); err != nil {
			return err
		}
	}
	return nil
}
// #endregion bulk

// #region clear-old
// ClearOlderThan deletes cache entries and lineage rows older than the
// given number of days. Returns (entries, links) deleted.
func (c *Cache) ClearOlderThan(days int) (int64, int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339Nano)

	res, err := c.db.Exec(`DELETE FROM url_cache WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, 0, state.Errorf(state.KindStorage, "clear url_cache: %w", err)
	}
	entries, _ := res.RowsAffected()

	res, err = c.db.Exec(`DELETE FROM query_url_map WHERE timestamp < ?`, cutoff)
	if err != nil {
		return entries, 0, state.Errorf(state.KindStorage, "clear query_url_map: %w", err)
	}
	links, _ := res.RowsAffected()

	log.Printf("[CACHE] cleared %d entries and %d links older than %d days", entries, links, days)
	return entries, links, nil
}
// #endregion clear-old

// #region helpers
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
// #endregion helpers
