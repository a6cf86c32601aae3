package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MJE43/lilyhop/internal/store"
)

func fastClient(url string) *Client {
	return NewClient(Config{
		BaseURL:        url,
		BaseRetryDelay: time.Millisecond,
		MaxRetryDelay:  5 * time.Millisecond,
	})
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{})
	if c.config.BaseURL != "http://localhost:8080" {
		t.Errorf("default base url: %s", c.config.BaseURL)
	}
	if c.config.MaxRetries != 3 {
		t.Errorf("default retries: %d", c.config.MaxRetries)
	}
}

func TestRetryDelayCapped(t *testing.T) {
	c := NewClient(Config{BaseRetryDelay: time.Second, MaxRetryDelay: 3 * time.Second})
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := c.retryDelay(i + 1); got != w {
			t.Errorf("retryDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestSubmitScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/score" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing Content-Type header")
		}
		if r.Header.Get(submitTokenHeader) != "tok" {
			t.Errorf("missing submit token")
		}
		var body struct {
			Name  string `json:"name"`
			Score int64  `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"entry":   store.Entry{ID: "id-1", Name: body.Name, Score: body.Score, Date: time.Unix(0, 0).UTC()},
		})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, SubmitToken: "tok"})
	entry, err := c.SubmitScore(context.Background(), "frog", 42)
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if entry.ID != "id-1" || entry.Name != "frog" || entry.Score != 42 {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestLeaderboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/leaderboard" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "3" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`[{"name":"a","score":3,"date":"2024-01-01T00:00:00Z"},{"name":"b","score":1,"date":"2024-01-01T00:00:00Z"}]`))
	}))
	defer server.Close()

	entries, err := fastClient(server.URL).LeaderboardN(context.Background(), 3)
	if err != nil {
		t.Fatalf("LeaderboardN: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "a" || entries[1].Score != 1 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestValidationErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Valid name is required","type":"invalid_name"}`))
	}))
	defer server.Close()

	_, err := fastClient(server.URL).SubmitScore(context.Background(), "", 1)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if !httpErr.IsValidation() || httpErr.Message != "Valid name is required" {
		t.Fatalf("httpErr = %+v", httpErr)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, 4xx must not be retried", n)
	}
}

func TestServerErrorRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	entries, err := fastClient(server.URL).Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 0 || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("entries=%v calls=%d", entries, calls)
	}
}

func TestMaxRetriesExceeded(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := fastClient(server.URL).Leaderboard(context.Background())
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 {
		t.Fatalf("expected wrapped 500, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("calls = %d, want 1 + 3 retries", n)
	}
}

func TestTransportErrorRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(Config{BaseURL: url, MaxRetries: 2, BaseRetryDelay: time.Millisecond})
	_, err := c.Leaderboard(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
}

func TestSubmitNotRetriedAfterBrokenConnection(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// the request arrived; drop the connection without answering
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}))
	defer server.Close()

	_, err := fastClient(server.URL).SubmitScore(context.Background(), "frog", 7)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, a submission must not be resent", n)
	}

	atomic.StoreInt32(&calls, 0)
	if _, err := fastClient(server.URL).Leaderboard(context.Background()); err == nil {
		t.Fatal("expected Leaderboard to fail")
	}
	if n := atomic.LoadInt32(&calls); n < 4 {
		t.Fatalf("calls = %d, reads should be retried", n)
	}
}

func TestContextCancelStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := NewClient(Config{BaseURL: server.URL, BaseRetryDelay: time.Second})
	_, err := c.Leaderboard(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
