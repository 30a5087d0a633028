package webcache

import (
	"path/filepath"
	"testing"
)

func tempCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewRejectsUnusableDBPath(t *testing.T) {
	// A directory path makes the first Exec fail while sql.Open, which
	// connects lazily, still succeeds.
	if _, err := New(t.TempDir()); err == nil {
		t.Fatal("expected error for a directory db path")
	}
}

func TestKeyDeterminism(t *testing.T) {
	cases := []struct {
		a, b  string
		equal bool
	}{
		{"http://Example.com/x", "http://example.com/x", true},
		{"http://example.com:80/x", "http://example.com/x", true},
		{"https://example.com:443/x", "https://example.com/x", true},
		{"http://example.com/x/", "http://example.com/x", true},
		{"http://example.com/", "http://example.com", true},
		{"http://example.com/x", "http://example.com/y", false},
		{"http://example.com/x", "https://example.com/x", false},
	}
	for _, tc := range cases {
		got := Key(tc.a) == Key(tc.b)
		if got != tc.equal {
			t.Errorf("Key(%q) == Key(%q): got %v, want %v", tc.a, tc.b, got, tc.equal)
		}
	}
}

func TestDomain(t *testing.T) {
	if d := Domain("https://News.Example.com:8080/path"); d != "news.example.com" {
		t.Fatalf("unexpected domain %q", d)
	}
	if d := Domain("garbage"); d != "unknown" {
		t.Fatalf("expected unknown, got %q", d)
	}
}

func TestLookupMissThenStoreThenHit(t *testing.T) {
	c := tempCache(t)

	_, ok, err := c.Lookup("http://example.com/a")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Store("http://example.com/a", "body-a", 200); err != nil {
		t.Fatalf("Store: %v", err)
	}

	content, ok, err := c.Lookup("http://Example.com/a") // equivalent URL
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok || content != "body-a" {
		t.Fatalf("expected hit with body-a, got ok=%v content=%q", ok, content)
	}
}

func TestStoreIdempotent(t *testing.T) {
	c := tempCache(t)

	if err := c.Store("http://example.com/a", "v1", 200); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Store("http://example.com/a", "v1", 200); err != nil {
		t.Fatalf("second Store: %v", err)
	}

	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM url_cache`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one entry, got %d", count)
	}
}

func TestHitCountIncrements(t *testing.T) {
	c := tempCache(t)
	url := "http://example.com/hot"

	if err := c.Store(url, "body", 200); err != nil {
		t.Fatalf("Store: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := c.Lookup(url); err != nil {
			t.Fatalf("Lookup %d: %v", i, err)
		}
	}

	var hits int64
	if err := c.db.QueryRow(`SELECT hit_count FROM url_cache WHERE url_hash = ?`, Key(url)).Scan(&hits); err != nil {
		t.Fatalf("hit count: %v", err)
	}
	if hits != 3 {
		t.Fatalf("expected 3 hits, got %d", hits)
	}
}

func TestRestorePreservesHitCount(t *testing.T) {
	c := tempCache(t)
	url := "http://example.com/a"

	if err := c.Store(url, "v1", 200); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, _, err := c.Lookup(url); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := c.Store(url, "v2", 200); err != nil {
		t.Fatalf("re-Store: %v", err)
	}

	content, ok, err := c.Lookup(url)
	if err != nil || !ok {
		t.Fatalf("Lookup after re-store: ok=%v err=%v", ok, err)
	}
	if content != "v2" {
		t.Fatalf("expected refreshed content, got %q", content)
	}
	var hits int64
	c.db.QueryRow(`SELECT hit_count FROM url_cache WHERE url_hash = ?`, Key(url)).Scan(&hits)
	if hits != 2 {
		t.Fatalf("hit count should survive re-store, got %d", hits)
	}
}

func TestBulkLookupAndStore(t *testing.T) {
	c := tempCache(t)

	if err := c.BulkStore(map[string]string{
		"http://example.com/1": "one",
		"http://example.com/2": "two",
	}); err != nil {
		t.Fatalf("BulkStore: %v", err)
	}

	hits, missing, err := c.BulkLookup([]string{
		"http://example.com/1",
		"http://example.com/2",
		"http://example.com/3",
	})
	if err != nil {
		t.Fatalf("BulkLookup: %v", err)
	}
	if len(hits) != 2 || hits["http://example.com/1"] != "one" {
		t.Fatalf("unexpected hits %v", hits)
	}
	if len(missing) != 1 || missing[0] != "http://example.com/3" {
		t.Fatalf("unexpected missing %v", missing)
	}
}

func TestLinkAndQueryAnalytics(t *testing.T) {
	c := tempCache(t)
	urls := []string{"http://example.com/1", "http://example.com/2"}

	for _, u := range urls {
		if err := c.Store(u, "body", 200); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	if err := c.Link("solar energy", urls, "duckduckgo"); err != nil {
		t.Fatalf("Link: %v", err)
	}
	// Duplicate link is ignored, not an error.
	if err := c.Link("solar energy", urls, "duckduckgo"); err != nil {
		t.Fatalf("duplicate Link: %v", err)
	}

	got, err := c.URLsForQuery("solar energy")
	if err != nil {
		t.Fatalf("URLsForQuery: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 urls for query, got %d", len(got))
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalURLs != 2 || stats.UniqueQueries != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestClearOlderThan(t *testing.T) {
	c := tempCache(t)

	if err := c.Store("http://example.com/old", "body", 200); err != nil {
		t.Fatalf("Store: %v", err)
	}
	// Nothing is older than 30 days in a fresh cache.
	entries, links, err := c.ClearOlderThan(30)
	if err != nil {
		t.Fatalf("ClearOlderThan: %v", err)
	}
	if entries != 0 || links != 0 {
		t.Fatalf("expected nothing cleared, got %d/%d", entries, links)
	}
	// Everything is older than -1 days.
	entries, _, err = c.ClearOlderThan(-1)
	if err != nil {
		t.Fatalf("ClearOlderThan: %v", err)
	}
	if entries != 1 {
		t.Fatalf("expected 1 entry cleared, got %d", entries)
	}
}
