// Package client talks to a lilyhop leaderboard server.
//
//	c := client.NewClient(client.Config{BaseURL: "http://localhost:8080"})
//	entry, err := c.SubmitScore(ctx, "frog", 42)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MJE43/lilyhop/internal/store"
)

const submitTokenHeader = "X-Submit-Token"

// Config holds configuration for the leaderboard client.
type Config struct {
	// BaseURL is the server root. Defaults to http://localhost:8080.
	BaseURL string

	// SubmitToken is sent as X-Submit-Token on submissions. Optional.
	SubmitToken string

	// MaxRetries is the maximum number of retry attempts for retryable errors.
	// Defaults to 3 if zero.
	MaxRetries int

	// BaseRetryDelay is the initial delay before the first retry.
	// Defaults to 500ms if zero.
	BaseRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff delay.
	// Defaults to 5 seconds if zero.
	MaxRetryDelay time.Duration

	// HTTPClient allows injecting a custom HTTP client.
	// Defaults to a client with 10s timeout.
	HTTPClient *http.Client

	UserAgent string
}

// Client is a leaderboard API client.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = 500 * time.Millisecond
	}
	if cfg.MaxRetryDelay == 0 {
		cfg.MaxRetryDelay = 5 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{config: cfg, http: httpClient}
}

type submitResponse struct {
	Success bool        `json:"success"`
	Entry   store.Entry `json:"entry"`
}

// SubmitScore posts a score and returns the stored entry.
func (c *Client) SubmitScore(ctx context.Context, name string, score int64) (store.Entry, error) {
	body := map[string]any{"name": name, "score": score}
	var resp submitResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/api/score", body, &resp); err != nil {
		return store.Entry{}, err
	}
	if !resp.Success {
		return store.Entry{}, fmt.Errorf("lilyhop: submission not accepted")
	}
	return resp.Entry, nil
}

// Leaderboard returns the server's default top list.
func (c *Client) Leaderboard(ctx context.Context) ([]store.Entry, error) {
	return c.LeaderboardN(ctx, 0)
}

// LeaderboardN returns at most limit entries; limit <= 0 uses the server default.
func (c *Client) LeaderboardN(ctx context.Context, limit int) ([]store.Entry, error) {
	path := "/api/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var entries []store.Entry
	if err := c.doRequestWithRetry(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// doRequest sends a single request and decodes a 2xx JSON body into out.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	url := strings.TrimRight(c.config.BaseURL, "/") + path

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("lilyhop: marshal request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return fmt.Errorf("lilyhop: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.SubmitToken != "" && method == http.MethodPost {
		req.Header.Set(submitTokenHeader, c.config.SubmitToken)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			httpErr.Message = apiErr.Error
		}
		return httpErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("lilyhop: invalid response JSON: %w", err)
	}
	return nil
}

// doRequestWithRetry retries retryable statuses, and transport failures on
// GET, with exponential backoff. Other errors fail immediately.
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.doRequest(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsRetryable() {
			continue
		}
		// A POST may have been committed before the connection broke, so
		// only reads are retried on transport failures.
		var transportErr *TransportError
		if errors.As(err, &transportErr) && method == http.MethodGet {
			continue
		}
		return err
	}

	return fmt.Errorf("lilyhop: max retries exceeded: %w", lastErr)
}

// retryDelay calculates the backoff delay for a given attempt number.
func (c *Client) retryDelay(attempt int) time.Duration {
	delay := c.config.BaseRetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > c.config.MaxRetryDelay {
		delay = c.config.MaxRetryDelay
	}
	return delay
}
