package chartapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/infra"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	maxAttempts    = 3
)

// Client fetches raw daily-history documents from the chart HTTP endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the public chart endpoint
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithConfig creates a client with custom configuration
func NewClientWithConfig(baseURL string, timeoutSec int) *Client {
	client := NewClient()
	if baseURL != "" {
		client.baseURL = baseURL
	}
	if timeoutSec > 0 {
		client.httpClient.Timeout = time.Duration(timeoutSec) * time.Second
	}
	return client
}

// Fetch retrieves the chart document for symbol over r with retry logic.
// Non-retriable failures (bad symbol, client errors) abort immediately.
func (c *Client) Fetch(ctx context.Context, symbol string, r domain.TimeRange) ([]byte, error) {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s
			delay := time.Duration(1<<uint(i-1)) * time.Second
			slog.Info("Retrying chart fetch",
				slog.String("symbol", symbol),
				slog.Int("attempt", i),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.doFetch(ctx, symbol, r)
		if err == nil {
			return body, nil
		}
		lastErr = err
		slog.Warn("Chart fetch attempt failed",
			slog.String("symbol", symbol),
			slog.Int("attempt", i+1),
			slog.Any("error", err),
		)
		if !domain.IsRetriable(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) doFetch(ctx context.Context, symbol string, r domain.TimeRange) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.chartURL(symbol, r), nil)
	if err != nil {
		return nil, domain.NewFatalFetchError("chart request", err)
	}

	// Browser-like User-Agent avoids bot rejection on the public endpoint
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewFetchError("chart request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, domain.NewFetchError("chart request",
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	default:
		return nil, domain.NewFatalFetchError("chart request",
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError("chart response", err)
	}
	return body, nil
}

func (c *Client) chartURL(symbol string, r domain.TimeRange) string {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(r.Start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(r.End.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,split")
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())
}
