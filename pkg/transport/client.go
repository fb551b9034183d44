package transport

import (
	"bytes"
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
)

// DefaultTimeout bounds a single device request when ClientConfig.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// maxErrorBody limits how much of a failed response body is kept.
const maxErrorBody = 512

// ErrNoAddress is returned by NewClient when no device address is configured.
var ErrNoAddress = errors.New("device address is required")

// StatusError reports a non-success response from the device.
type StatusError struct {
	Op         Operation
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: device returned %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ClientConfig configures a device client.
type ClientConfig struct {
	// Address is the device address, "host[:port]". A "scheme://" prefix
	// overrides Scheme.
	Address string

	// Scheme is the URL scheme (default: "http").
	Scheme string

	// Timeout bounds each request (default: DefaultTimeout).
	// Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient is an optional preconfigured client.
	HTTPClient *http.Client

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultClientConfig returns a ClientConfig for address with default settings.
func DefaultClientConfig(address string) ClientConfig {
	return ClientConfig{
		Address: address,
		Scheme:  "http",
		Timeout: DefaultTimeout,
	}
}

// Client talks to one RetroFrame device over HTTP.
type Client struct {
	base   url.URL
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client for the configured device.
func NewClient(config ClientConfig) (*Client, error) {
	addr := strings.TrimSpace(config.Address)
	if addr == "" {
		return nil, ErrNoAddress
	}
	if config.Scheme == "" {
		config.Scheme = "http"
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	if !strings.Contains(addr, "://") {
		addr = config.Scheme + "://" + addr
	}
	base, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid device address %q: %w", config.Address, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid device address %q: missing host", config.Address)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		base:   *base,
		http:   hc,
		logger: config.Logger,
	}, nil
}

// BaseURL returns the device base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ClearBuffers sends DELETE /api/buffers.
func (c *Client) ClearBuffers(ctx context.Context) error {
	return c.do(ctx, OpClear, http.MethodDelete, PathBuffers, nil, "")
}

// UploadBuffer sends POST /api/buffers with buf as the raw body.
func (c *Client) UploadBuffer(ctx context.Context, buf []byte) error {
	return c.do(ctx, OpUpload, http.MethodPost, PathBuffers, buf, ContentTypeBinary)
}

// Show sends POST /api/show/image. The delay is sent in whole milliseconds.
func (c *Client) Show(ctx context.Context, delay time.Duration) error {
	body, err := json.Marshal(ShowRequest{Delay: delay.Milliseconds()})
	if err != nil {
		return fmt.Errorf("encode show request: %w", err)
	}
	return c.do(ctx, OpShow, http.MethodPost, PathShow, body, ContentTypeJSON)
}

func (c *Client) do(ctx context.Context, op Operation, method, path string, body []byte, contentType string) error {
	u := c.base
	u.Path += path

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.debugLog("device request failed", "op", op.String(), "url", u.String(), "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.debugLog("device request",
		"op", op.String(),
		"url", u.String(),
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:         op,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// debugLog logs a debug message if logging is enabled.
func (c *Client) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
