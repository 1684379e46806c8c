// Package fetch provides the shared outbound HTTP client for catalog queries
// and page scrapes, with user-agent rotation, a minimum-delay rate limiter,
// and bounded retry with exponential backoff.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corpix/uarand"

	"github.com/oulookup/oubot/internal/config"
	domerrors "github.com/oulookup/oubot/internal/errors"
)

// Client is an HTTP client for catalog endpoints with rate limiting and retries.
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	userAgents  []string
	maxRetries  int
}

// NewClient creates a new fetch client.
func NewClient(timeout time.Duration, maxRetries int, minDelay time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: NewRateLimiter(minDelay),
		userAgents:  generateUserAgents(),
		maxRetries:  maxRetries,
	}
}

// Get performs a GET request with rate limiting and retries.
// Caller is responsible for closing the response body.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	err := RetryWithBackoff(ctx, c.maxRetries, config.CatalogRetryInitial, func() error {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		req.Header.Set("User-Agent", c.randomUserAgent())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			lastErr = domerrors.NewQueryError(url, 0, err)
			return lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Close body for non-success responses since we won't return it
			_ = resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusTooManyRequests,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				lastErr = domerrors.NewQueryError(url, resp.StatusCode, fmt.Errorf("retryable status"))
				return lastErr
			default:
				// Client errors and everything else: don't retry
				return Permanent(domerrors.NewQueryError(url, resp.StatusCode, fmt.Errorf("unexpected status")))
			}
		}

		// Success - caller must close response body
		return nil
	})

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// GetBody performs a GET request and reads the full response body.
func (c *Client) GetBody(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := c.Get(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domerrors.NewQueryError(url, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

// randomUserAgent returns a random user agent string
func (c *Client) randomUserAgent() string {
	if len(c.userAgents) == 0 {
		return uarand.GetRandom()
	}
	return c.userAgents[time.Now().UnixNano()%int64(len(c.userAgents))]
}

// generateUserAgents returns a list of common user agent strings
func generateUserAgents() []string {
	return []string{
		// Chrome on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		// Chrome on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		// Firefox on Windows
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		// Safari on macOS
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		// Chrome on Linux
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
