// Package client is the transport wrapper callers use to reach an
// Atrium server across an unreliable network. Transport failures are
// retried a bounded number of times with a flat delay; application
// failures and malformed responses are never retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Atrium HTTP API. It remembers the session token
// returned by Login and sends it on every subsequent call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	token      string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetries sets the transport-failure attempt budget.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the flat delay between transport retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// NewClient constructs a new client. Defaults: 3 attempts, 1 second
// flat backoff, 10 second request timeout.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retries:    3,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs a session token obtained out of band.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current session token, empty when logged out.
func (c *Client) Token() string { return c.token }

// do performs one API call. The attempt loop only covers transport
// errors: an HTTP response, whatever its status, ends the loop.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = encoded
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return &ConnectivityError{Attempts: attempt, Err: ctx.Err()}
			}
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("client: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Token "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		return c.handleResponse(resp, out)
	}
	return &ConnectivityError{Attempts: c.retries, Err: lastErr}
}

func (c *Client) handleResponse(resp *http.Response, out any) error {
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{Err: err}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: raw}
		var problem struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if jsonErr := json.Unmarshal(raw, &problem); jsonErr == nil && (problem.Detail != "" || problem.Title != "") {
			apiErr.Title = problem.Title
			apiErr.Detail = problem.Detail
		} else {
			apiErr.Detail = fmt.Sprintf("server error (status %d)", resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
