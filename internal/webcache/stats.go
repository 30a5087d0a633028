package webcache

import (
	"github.com/danielpatrickdp/creativity-controller/internal/state"
)

// #region types
// URLHits pairs a URL with its lookup hit count.
type URLHits struct {
	URL      string `json:"url"`
	Domain   string `json:"domain,omitempty"`
	HitCount int64  `json:"hit_count"`
}

// DomainStats aggregates cache entries per origin domain.
type DomainStats struct {
	Domain  string `json:"domain"`
	Entries int64  `json:"entries"`
	Hits    int64  `json:"hits"`
}

// Stats summarizes the cache for reporting.
type Stats struct {
	TotalURLs      int64         `json:"total_urls_cached"`
	TotalHits      int64         `json:"total_hits"`
	TotalSizeBytes int64         `json:"total_size_bytes"`
	UniqueQueries  int64         `json:"total_unique_queries"`
	TopURLs        []URLHits     `json:"top_urls"`
	TopDomains     []DomainStats `json:"top_domains"`
}
// #endregion types

// #region stats
// Stats computes cache-wide analytics from both tables.
func (c *Cache) Stats() (Stats, error) {
	var s Stats

	err := c.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(hit_count), 0), COALESCE(SUM(content_length), 0) FROM url_cache`,
	).Scan(&s.TotalURLs, &s.TotalHits, &s.TotalSizeBytes)
	if err != nil {
		return Stats{}, state.Errorf(state.KindStorage, "cache stats: %w", err)
	}

	err = c.db.QueryRow(`SELECT COUNT(DISTINCT query) FROM query_url_map`).Scan(&s.UniqueQueries)
	if err != nil {
		return Stats{}, state.Errorf(state.KindStorage, "query stats: %w", err)
	}

	top, err := c.TopURLs(5)
	if err != nil {
		return Stats{}, err
	}
	s.TopURLs = top

	rows, err := c.db.Query(
		`SELECT domain, COUNT(*), COALESCE(SUM(hit_count), 0)
		 FROM url_cache GROUP BY domain ORDER BY SUM(hit_count) DESC LIMIT 10`,
	)
	if err != nil {
		return Stats{}, state.Errorf(state.KindStorage, "domain stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d DomainStats
		if err := rows.Scan(&d.Domain, &d.Entries, &d.Hits); err != nil {
			return Stats{}, state.Errorf(state.KindStorage, "scan domain stats: %w", err)
		}
		s.TopDomains = append(s.TopDomains, d)
	}
	return s, rows.Err()
}
// #endregion stats

// #region top-urls
// TopURLs returns the most frequently hit cache entries.
func (c *Cache) TopURLs(limit int) ([]URLHits, error) {
	rows, err := c.db.Query(
		`SELECT url, domain, hit_count FROM url_cache ORDER BY hit_count DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, state.Errorf(state.KindStorage, "top urls: %w", err)
	}
	defer rows.Close()

	var out []URLHits
	for rows.Next() {
		var u URLHits
		if err := rows.Scan(&u.URL, &u.Domain, &u.HitCount); err != nil {
			return nil, state.Errorf(state.KindStorage, "scan top urls: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
// #endregion top-urls

// #region urls-for-query
// URLsForQuery returns the URLs a query resolved to, busiest first.
func (c *Cache) URLsForQuery(query string) ([]URLHits, error) {
	rows, err := c.db.Query(
		`SELECT DISTINCT uc.url, uc.domain, uc.hit_count
		 FROM url_cache uc
		 JOIN query_url_map qum ON uc.url_hash = qum.url_hash
		 WHERE qum.query = ?
		 ORDER BY uc.hit_count DESC`, query,
	)
	if err != nil {
		return nil, state.Errorf(state.KindStorage, "urls for query: %w", err)
	}
	defer rows.Close()

	var out []URLHits
	for rows.Next() {
		var u URLHits
		if err := rows.Scan(&u.URL, &u.Domain, &u.HitCount); err != nil {
			return nil, state.Errorf(state.KindStorage, "scan urls for query: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
// #endregion urls-for-query
