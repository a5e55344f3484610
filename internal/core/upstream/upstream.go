// Package upstream fetches JSON documents from the countries API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammed-shakir/country-catalog/internal/core/observability"
)

// TransportError reports a request that never produced a response.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Fetcher interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

type Client struct {
	logger   *slog.Logger
	http     *http.Client
	base     *url.URL
	name     string
	startNow func() time.Time // for tests
}

func New(logger *slog.Logger, client *http.Client, base string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported upstream scheme %q", u.Scheme)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		logger:   logger,
		http:     client,
		base:     u,
		name:     "countries",
		startNow: time.Now,
	}, nil
}

// URL resolves an escaped path against the base url.
func (c *Client) URL(path string, query url.Values) string {
	u := c.base.JoinPath(path)
	u.RawQuery = query.Encode()
	return u.String()
}

// GetJSON issues a GET and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.URL(path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := c.startNow()
	resp, err := c.http.Do(req)
	dur := time.Since(start)
	if err != nil {
		observability.ObserveUpstream(c.name, "transport_error", dur.Seconds())
		c.logger.Warn("upstream request failed", "url", target, "err", err)
		return &TransportError{URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.ObserveUpstream(c.name, "http_error", dur.Seconds())
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("upstream non-2xx", "url", target, "status", resp.StatusCode)
		return &HTTPError{URL: target, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observability.ObserveUpstream(c.name, "decode_error", dur.Seconds())
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &TransportError{URL: target, Err: err}
		}
		return &DecodeError{URL: target, Err: err}
	}

	observability.ObserveUpstream(c.name, "ok", dur.Seconds())
	c.logger.Debug("upstream fetch done",
		"url", target,
		"status", resp.StatusCode,
		"duration", dur.String())
	return nil
}
