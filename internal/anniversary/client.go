// Package anniversary provides a Go client for the Mofid anniversary40
// promotional game API.
//
// The client covers the three session-lifecycle endpoints (can-start,
// start-game, finish-game) with automatic retry on transient failures
// and structured error types. Submitted scores are signed and encoded
// by scorecodec before they leave the process.
//
// # Authentication
//
// All requests carry a caller-supplied bearer token and the "session"
// cookie captured from the browser. There is no token refresh; users
// must provide fresh credentials when the current ones expire.
//
// # Usage
//
//	client := anniversary.NewClient(anniversary.Config{
//	    BearerToken:   "your-token",
//	    SessionCookie: "your-session-cookie",
//	})
//
//	eligibility, err := client.CanStart(ctx, "shooter")
package anniversary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mofidlab/anniversary40-go/internal/scorecodec"
)

// DefaultSecret is the shared score-signing secret compiled into the
// game's web client. Override it via Config.Secret when the game
// rotates it.
const DefaultSecret = "A40@2025-ASDasd!@#123CCCvvvaaa"

// apiPrefix is the path prefix for all game API endpoints.
const apiPrefix = "api-service/anniversary40"

// Config holds configuration for the anniversary40 API client.
type Config struct {
	// BaseURL is the landing site to talk to.
	// Defaults to "https://landing.emofid.com" if empty.
	BaseURL string

	// BearerToken is the Authorization bearer value extracted from the
	// logged-in browser session. Required for all API calls.
	BearerToken string

	// SessionCookie is the value of the "session" cookie. Required.
	SessionCookie string

	// Secret overrides the score-signing secret.
	// Defaults to DefaultSecret if empty.
	Secret string

	// Proxy routes all requests through the given intermediary
	// (e.g. a local intercept server). Optional.
	Proxy *url.URL

	// MaxRetries is the maximum number of retry attempts for retryable
	// errors. Defaults to 3 if zero.
	MaxRetries int

	// BaseRetryDelay is the initial delay before the first retry.
	// Defaults to 2 seconds if zero.
	BaseRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff delay.
	// Defaults to 10 seconds if zero.
	MaxRetryDelay time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for
	// testing). Defaults to a client with 30s timeout honoring Proxy.
	HTTPClient *http.Client

	// UserAgent overrides the User-Agent header. Optional.
	UserAgent string
}

// Client is an anniversary40 game API client.
type Client struct {
	config Config
	http   *http.Client
	codec  *scorecodec.Codec
	mu     sync.RWMutex
}

// NewClient creates a new API client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://landing.emofid.com"
	}
	if cfg.Secret == "" {
		cfg.Secret = DefaultSecret
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = 2 * time.Second
	}
	if cfg.MaxRetryDelay == 0 {
		cfg.MaxRetryDelay = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.Proxy != nil {
			transport.Proxy = http.ProxyURL(cfg.Proxy)
		}
		httpClient = &http.Client{Timeout: 30 * time.Second, Transport: transport}
	}

	return &Client{
		config: cfg,
		http:   httpClient,
		codec:  scorecodec.New(cfg.Secret),
	}
}

// SetCredentials updates the bearer token and session cookie
// (thread-safe). Call this when the user provides fresh values.
func (c *Client) SetCredentials(token, cookie string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.BearerToken = token
	c.config.SessionCookie = cookie
}

// BearerToken returns the current bearer token (thread-safe).
func (c *Client) BearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.BearerToken
}

// SessionCookie returns the current session cookie (thread-safe).
func (c *Client) SessionCookie() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.SessionCookie
}

// BaseURL returns the configured landing site.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Codec returns the score codec this client submits with.
func (c *Client) Codec() *scorecodec.Codec {
	return c.codec
}

// --- Core request methods ---

// doRequest sends a single request to the game API and decodes the JSON
// response into out (when out is non-nil).
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any, extra map[string]string, out any) error {
	base := strings.TrimRight(c.config.BaseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	endpoint := fmt.Sprintf("%s/%s/%s", base, apiPrefix, strings.TrimPrefix(path, "/"))
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("anniversary: marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("anniversary: create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.BearerToken())
	req.Header.Set("Cookie", "session="+c.SessionCookie())
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("anniversary: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anniversary: read response: %w", err)
	}

	if resp.StatusCode == 401 {
		return &AuthError{StatusCode: 401, Message: "bearer token or session cookie expired"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
		if httpErr.IsRetryable() {
			// Rate limits and server errors keep their HTTP
			// classification even when the body carries a message
			// envelope, so backoff still applies.
			return httpErr
		}
		// The API reports failures as {"message": "..."} with a non-2xx
		// status; anything else surfaces as a raw HTTP error.
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
		}
		return httpErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("anniversary: invalid response JSON: %w", err)
		}
	}
	return nil
}

// doRequestWithRetry sends a request with automatic retry on retryable
// errors (rate limits and server errors).
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, query url.Values, body any, extra map[string]string, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.doRequest(ctx, method, path, query, body, extra, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if httpErr, ok := err.(*HTTPError); ok && httpErr.IsRetryable() {
			continue
		}

		// Auth and API errors fail immediately.
		return err
	}

	return fmt.Errorf("anniversary: max retries exceeded: %w", lastErr)
}

// retryDelay calculates the backoff delay for a given attempt number.
func (c *Client) retryDelay(attempt int) time.Duration {
	delay := c.config.BaseRetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > c.config.MaxRetryDelay {
		delay = c.config.MaxRetryDelay
	}
	return delay
}
