package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// #region fetcher
// Fetcher retrieves the body of a URL. The cache layer above it decides
// when a live fetch is actually needed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body string, statusCode int, err error)
}
// #endregion fetcher

// #region http-fetcher
// maxFetchBytes caps a single response body.
const maxFetchBytes = 1 << 20

// HTTPFetcher is the live implementation over net/http.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch performs a GET and returns the body and status code.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read body %s: %w", url, err)
	}
	return string(body), resp.StatusCode, nil
}
// #endregion http-fetcher
