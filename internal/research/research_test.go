package research

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/creativity-controller/internal/webcache"
)

// countingFetcher serves canned bodies and counts live fetches.
type countingFetcher struct {
	bodies  map[string]string
	fetches int
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) (string, int, error) {
	f.fetches++
	body, ok := f.bodies[url]
	if !ok {
		return "", 404, nil
	}
	return body, 200, nil
}

func testResearcher(t *testing.T, fetcher Fetcher) (*Researcher, *webcache.Cache) {
	t.Helper()
	cache, err := webcache.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("webcache.New: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	cfg := Config{Enabled: true, MaxURLs: 5, Timeout: time.Second}
	return NewResearcher(cache, fetcher, cfg), cache
}

func TestGatherFetchesOnMissThenServesFromCache(t *testing.T) {
	fetcher := &countingFetcher{bodies: map[string]string{
		"http://example.com/a": "alpha content",
	}}
	r, _ := testResearcher(t, fetcher)

	block, err := r.Gather(context.Background(), "alpha", []string{"http://example.com/a"})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if !strings.Contains(block, "alpha content") {
		t.Fatalf("evidence missing content:\n%s", block)
	}
	if fetcher.fetches != 1 {
		t.Fatalf("expected 1 live fetch, got %d", fetcher.fetches)
	}

	// Second gather must be served entirely from the cache.
	block, err = r.Gather(context.Background(), "alpha again", []string{"http://example.com/a"})
	if err != nil {
		t.Fatalf("second Gather: %v", err)
	}
	if !strings.Contains(block, "alpha content") {
		t.Fatalf("cached evidence missing content:\n%s", block)
	}
	if fetcher.fetches != 1 {
		t.Fatalf("cache hit should not refetch, got %d fetches", fetcher.fetches)
	}
}

func TestGatherSkipsFailedURLs(t *testing.T) {
	fetcher := &countingFetcher{bodies: map[string]string{
		"http://example.com/good": "fine",
	}}
	r, _ := testResearcher(t, fetcher)

	block, err := r.Gather(context.Background(), "q", []string{
		"http://example.com/good",
		"http://example.com/404",
	})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if !strings.Contains(block, "fine") {
		t.Fatalf("good URL missing:\n%s", block)
	}
	if strings.Contains(block, "404") && strings.Contains(block, "Source: http://example.com/404") {
		t.Fatalf("failed URL should not appear as evidence:\n%s", block)
	}
}

func TestGatherRecordsLineage(t *testing.T) {
	fetcher := &countingFetcher{bodies: map[string]string{
		"http://example.com/a": "x",
	}}
	r, cache := testResearcher(t, fetcher)

	if _, err := r.Gather(context.Background(), "my query", []string{"http://example.com/a"}); err != nil {
		t.Fatalf("Gather: %v", err)
	}
	urls, err := cache.URLsForQuery("my query")
	if err != nil {
		t.Fatalf("URLsForQuery: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("expected lineage row, got %v", urls)
	}
}

func TestGatherFallsBackToLiveFetchWhenCacheUnreadable(t *testing.T) {
	fetcher := &countingFetcher{bodies: map[string]string{
		"http://example.com/a": "alpha content",
	}}
	r, cache := testResearcher(t, fetcher)

	// A closed database makes every cache read fail.
	cache.Close()

	block, err := r.Gather(context.Background(), "q", []string{"http://example.com/a"})
	if err != nil {
		t.Fatalf("unreadable cache must not fail the gather: %v", err)
	}
	if !strings.Contains(block, "alpha content") {
		t.Fatalf("live-fetched content missing:\n%s", block)
	}
	if fetcher.fetches != 1 {
		t.Fatalf("expected 1 live fetch, got %d", fetcher.fetches)
	}
}

func TestGatherDisabled(t *testing.T) {
	fetcher := &countingFetcher{}
	r, _ := testResearcher(t, fetcher)
	r.cfg.Enabled = false

	block, err := r.Gather(context.Background(), "q", []string{"http://example.com/a"})
	if err != nil || block != "" {
		t.Fatalf("disabled research should be a no-op, got %q, %v", block, err)
	}
	if fetcher.fetches != 0 {
		t.Fatal("disabled research must not fetch")
	}
}

func TestFormatAsEvidenceEmpty(t *testing.T) {
	if out := FormatAsEvidence(nil); out != "" {
		t.Fatalf("expected empty block, got %q", out)
	}
}

func TestDefaultConfigEnv(t *testing.T) {
	t.Setenv("RESEARCH_ENABLED", "false")
	t.Setenv("RESEARCH_MAX_URLS", "2")
	t.Setenv("RESEARCH_TIMEOUT", "3")

	cfg := DefaultConfig()
	if cfg.Enabled || cfg.MaxURLs != 2 || cfg.Timeout != 3*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
