// Package research gathers background evidence for divergence and
// refinement prompts. Every URL goes through the content cache first;
// only misses reach the live fetcher, and fetched bodies are stored back
// so later queries hitting the same URL never refetch.
package research

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/creativity-controller/internal/webcache"
)

// #region types

// Evidence is one piece of fetched background content.
type Evidence struct {
	URL     string
	Content string
}

// Config holds research parameters.
type Config struct {
	Enabled bool
	MaxURLs int
	Timeout time.Duration
}

// #endregion types

// #region config

// DefaultConfig returns default research configuration.
// Reads from env vars: RESEARCH_ENABLED, RESEARCH_MAX_URLS, RESEARCH_TIMEOUT.
func DefaultConfig() Config {
	cfg := Config{
		Enabled: true,
		MaxURLs: 5,
		Timeout: 10 * time.Second,
	}
	if v := os.Getenv("RESEARCH_ENABLED"); v != "" {
		cfg.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("RESEARCH_MAX_URLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxURLs = n
		}
	}
	if v := os.Getenv("RESEARCH_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.Timeout = time.Duration(sec) * time.Second
		}
	}
	return cfg
}

// #endregion config

// #region researcher

// Researcher resolves URLs to content through the cache.
type Researcher struct {
	cache   *webcache.Cache
	fetcher Fetcher
	cfg     Config
}

// NewResearcher wires a cache and a fetcher.
func NewResearcher(cache *webcache.Cache, fetcher Fetcher, cfg Config) *Researcher {
	return &Researcher{cache: cache, fetcher: fetcher, cfg: cfg}
}

// Gather returns a formatted evidence block for the given URLs. Cached
// content is served from the cache; misses are fetched live and stored.
// A failed cache read degrades to fetching every URL live without
// storing. Individual fetch failures are logged and skipped, never
// fatal: the evidence block is best-effort. query is recorded as lineage.
func (r *Researcher) Gather(ctx context.Context, query string, urls []string) (string, error) {
	if !r.cfg.Enabled || len(urls) == 0 {
		return "", nil
	}
	if len(urls) > r.cfg.MaxURLs {
		urls = urls[:r.cfg.MaxURLs]
	}

	hits, missing, err := r.cache.BulkLookup(urls)
	cacheDown := err != nil
	if cacheDown {
		// The cache stays out of the rest of this call; writes would
		// fail the same way the read just did.
		log.Printf("[RESEARCH] cache read failed, fetching all %d urls live: %v", len(urls), err)
		hits = nil
		missing = urls
	}

	fetched := make(map[string]string)
	for _, u := range missing {
		fctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		body, status, err := r.fetcher.Fetch(fctx, u)
		cancel()
		if err != nil {
			log.Printf("[RESEARCH] fetch failed for %s: %v", u, err)
			continue
		}
		if status < 200 || status >= 300 {
			log.Printf("[RESEARCH] skipping %s: status %d", u, status)
			continue
		}
		if !cacheDown {
			if err := r.cache.Store(u, body, status); err != nil {
				// A failed store degrades to uncached content for this call.
				log.Printf("[RESEARCH] cache store failed for %s: %v", u, err)
			}
		}
		fetched[u] = body
	}

	if !cacheDown {
		if err := r.cache.Link(query, urls, "direct"); err != nil {
			log.Printf("[RESEARCH] lineage link failed: %v", err)
		}
	}

	var items []Evidence
	for _, u := range urls {
		if body, ok := hits[u]; ok {
			items = append(items, Evidence{URL: u, Content: body})
		} else if body, ok := fetched[u]; ok {
			items = append(items, Evidence{URL: u, Content: body})
		}
	}
	return FormatAsEvidence(items), nil
}

// #endregion researcher

// #region format

// maxEvidenceBytes bounds each item so prompts stay a sane size.
const maxEvidenceBytes = 2000

// FormatAsEvidence converts fetched content to a string suitable for
// injection into a stage prompt.
func FormatAsEvidence(items []Evidence) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[Background Research]\n")
	for i, item := range items {
		content := item.Content
		if len(content) > maxEvidenceBytes {
			content = content[:maxEvidenceBytes] + "..."
		}
		fmt.Fprintf(&b, "%d. Source: %s\n", i+1, item.URL)
		fmt.Fprintf(&b, "   %s\n", content)
	}
	return b.String()
}

// #endregion format
