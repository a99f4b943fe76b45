package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher retrieves the upstream feed. One attempt per call; retry policy
// belongs to the caller.
type Fetcher struct {
	httpClient *http.Client
	url        string
	userAgent  string
	timeout    time.Duration
}

func NewFetcher(httpClient *http.Client, url, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		url:        url,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Run fetches the configured feed URL and returns the raw body bytes along
// with the upstream Content-Type header.
func (f *Fetcher) Run(ctx context.Context) ([]byte, string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", f.url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
