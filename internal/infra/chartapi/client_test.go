package chartapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stock_go/internal/domain"
)

var _ domain.FetchBackend = (*Client)(nil)

const mockChartDoc = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL"},"timestamp":[1577889000],"indicators":{"quote":[{"open":[10],"high":[12],"low":[9],"close":[11],"volume":[500]}]}}],"error":null}}`

func testRange() domain.TimeRange {
	return domain.NewTimeRange(
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC),
	)
}

func TestClient_Fetch(t *testing.T) {
	var gotPath, gotUA string
	var gotQuery map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotQuery = map[string]string{
			"period1":  r.URL.Query().Get("period1"),
			"period2":  r.URL.Query().Get("period2"),
			"interval": r.URL.Query().Get("interval"),
			"events":   r.URL.Query().Get("events"),
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(mockChartDoc))
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, 5)
	r := testRange()

	body, err := client.Fetch(context.Background(), "AAPL", r)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != mockChartDoc {
		t.Errorf("unexpected body: %s", body)
	}

	if gotPath != "/v8/finance/chart/AAPL" {
		t.Errorf("path = %q, want /v8/finance/chart/AAPL", gotPath)
	}
	if gotUA == "" {
		t.Error("User-Agent header not set")
	}
	if gotQuery["period1"] != "1577836800" {
		t.Errorf("period1 = %q, want 1577836800", gotQuery["period1"])
	}
	if gotQuery["period2"] != "1578614400" {
		t.Errorf("period2 = %q, want 1578614400", gotQuery["period2"])
	}
	if gotQuery["interval"] != "1d" {
		t.Errorf("interval = %q, want 1d", gotQuery["interval"])
	}
	if gotQuery["events"] != "div,split" {
		t.Errorf("events = %q, want div,split", gotQuery["events"])
	}
}

func TestClient_RetryOnRateLimit(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if callCount < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(mockChartDoc))
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, 5)

	// Should retry twice and succeed on the 3rd attempt
	body, err := client.Fetch(context.Background(), "AAPL", testRange())
	if err != nil {
		t.Fatalf("Fetch should succeed after retries: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected non-empty body after retries")
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, 5)

	_, err := client.Fetch(context.Background(), "NOSUCH", testRange())
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if domain.IsRetriable(err) {
		t.Error("client error should not be retriable")
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call for non-retriable error, got %d", callCount)
	}
}

func TestClient_ExhaustsRetriesOnServerError(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, 5)

	_, err := client.Fetch(context.Background(), "AAPL", testRange())
	if err == nil {
		t.Fatal("expected error when every attempt fails")
	}
	if !domain.IsRetriable(err) {
		t.Error("server error should be retriable")
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestClient_ContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithConfig(server.URL, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Fetch(ctx, "AAPL", testRange())
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancellation took %v, should abort backoff promptly", elapsed)
	}
}
