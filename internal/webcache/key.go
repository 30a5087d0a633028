package webcache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// #region normalize
// Normalize returns the canonical form of rawURL used for deduplication:
// scheme and host lower-cased, default ports stripped, trailing slash
// stripped. Unparseable input falls back to the raw string so it still
// gets a stable key.
func Normalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host

	if u.Path == "/" {
		u.Path = ""
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}
// #endregion normalize

// #region key
// Key derives the cache key: the SHA-256 hex digest of the canonical URL.
// Deterministic, so trivially-equivalent URLs collide intentionally.
func Key(rawURL string) string {
	sum := sha256.Sum256([]byte(Normalize(rawURL)))
	return hex.EncodeToString(sum[:])
}
// #endregion key

// #region domain
// Domain extracts the host for analytics grouping.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
// #endregion domain
