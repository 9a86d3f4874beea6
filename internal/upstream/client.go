// Package upstream is the HTTP client for the main trading backend. The
// admin backend forwards trade-mode changes there and proxies a small set of
// routes it does not own.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/pkg/logger"
)

// Client calls the main trading backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

// Option configures the client.
type Option func(*Client)

// WithAPIKey sends key as a bearer token on every backend call.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger, opts ...Option) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Post sends body as JSON to path and returns the response body. Upstream
// error payloads are surfaced with their own message when one is present.
func (c *Client) Post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Internal("encode upstream request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Internal("build upstream request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Upstream("main backend unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Upstream("read upstream response", err)
	}

	if resp.StatusCode >= 400 {
		c.log.WithField("path", path).WithField("status", resp.StatusCode).Warn("upstream call failed")
		return nil, errors.Upstream(upstreamMessage(data, resp.StatusCode), nil).
			WithDetails("status", resp.StatusCode)
	}
	return data, nil
}

// upstreamMessage extracts a human-readable message from an error payload.
func upstreamMessage(body []byte, status int) string {
	for _, key := range []string{"message", "error.message", "error"} {
		if v := gjson.GetBytes(body, key); v.Exists() && v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return fmt.Sprintf("main backend returned status %d", status)
}

// Proxy returns a handler forwarding the request to path on the main backend
// and relaying the response untouched.
func (c *Client) Proxy(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := c.baseURL + path
		if r.URL.RawQuery != "" {
			url += "?" + r.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
		if err != nil {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		c.authorize(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.WithError(err).WithField("path", path).Warn("proxy request failed")
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		io.Copy(w, resp.Body)
	}
}
