// Package sources holds the news provider clients and the pure normalizers
// that map each provider's response shape onto core.SourceItem.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newsforge/internal/logger"
	"newsforge/internal/retry"
)

const (
	requestTimeout = 12 * time.Second
	pageDelay      = time.Second // pause between paginated requests
	maxPageSize    = 100
)

// Quota is the rate-limit budget a provider reported on its last response.
// Zero Limit means the provider did not send quota headers.
type Quota struct {
	Remaining int
	Limit     int
}

// Low reports whether 10% or less of the quota remains.
func (q Quota) Low() bool {
	return q.Limit > 0 && float64(q.Remaining)/float64(q.Limit) <= 0.10
}

// httpClient is the shared retrying GET/JSON transport for all providers.
type httpClient struct {
	client *http.Client
	retry  retry.Options
	quota  Quota
}

func newHTTPClient() *httpClient {
	return &httpClient{
		client: &http.Client{Timeout: requestTimeout},
		retry:  retry.DefaultOptions(),
	}
}

// getJSON fetches u and decodes the body into out. HTTP 429 and network
// errors are retried with exponential backoff; other non-2xx statuses fail
// immediately with the status and body text.
func (h *httpClient) getJSON(ctx context.Context, u string, out any) error {
	body, err := retry.DoValue(ctx, h.retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		h.captureQuota(resp)

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(data), 200))
		}

		return data, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (h *httpClient) captureQuota(resp *http.Response) {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	limit := resp.Header.Get("X-RateLimit-Limit")
	if remaining == "" || limit == "" {
		return
	}

	r, err1 := strconv.Atoi(remaining)
	l, err2 := strconv.Atoi(limit)
	if err1 != nil || err2 != nil {
		return
	}

	h.quota = Quota{Remaining: r, Limit: l}
	if h.quota.Low() {
		logger.Warn("Provider rate-limit quota running low", "remaining", r, "limit", l)
	}
}

// Quota returns the most recently observed rate-limit budget.
func (h *httpClient) Quota() Quota {
	return h.quota
}

func buildURL(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// sleepPage waits the inter-page delay, giving up early on cancellation.
func sleepPage(ctx context.Context) error {
	select {
	case <-time.After(pageDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
