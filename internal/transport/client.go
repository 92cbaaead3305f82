package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-crudform/pkg/auth"
)

// ErrNoBaseURL is returned when a relative endpoint is resolved without a
// configured base URL.
var ErrNoBaseURL = errors.New("transport: base URL is not configured")

// Client is the shared HTTP client every backend call goes through. It
// resolves relative paths against the base URL and attaches the bearer token.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  auth.TokenSource
	timeout time.Duration
	headers http.Header
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL sets the base URL used for relative endpoints.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			c.base = nil
			return nil
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("transport: invalid base URL %q: %w", raw, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("transport: unsupported base URL scheme %q", parsed.Scheme)
		}
		c.base = parsed
		return nil
	}
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client != nil {
			c.http = client
		}
		return nil
	}
}

// WithTokenSource attaches bearer tokens to every request.
func WithTokenSource(tokens auth.TokenSource) Option {
	return func(c *Client) error {
		c.tokens = tokens
		return nil
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout < 0 {
			return fmt.Errorf("transport: negative timeout %s", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) error {
		c.headers.Add(key, value)
		return nil
	}
}

// New constructs a Client.
func New(options ...Option) (*Client, error) {
	c := &Client{
		http:    &http.Client{},
		headers: http.Header{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// HasBaseURL reports whether relative endpoints can be resolved.
func (c *Client) HasBaseURL() bool {
	return c != nil && c.base != nil
}

// BaseURL returns the configured base URL or an empty string.
func (c *Client) BaseURL() string {
	if !c.HasBaseURL() {
		return ""
	}
	return c.base.String()
}

// Resolve turns endpoint into an absolute URL. Absolute http(s) endpoints are
// returned unchanged; relative ones are appended to the base URL path.
func (c *Client) Resolve(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("transport: endpoint is required")
	}
	lower := strings.ToLower(endpoint)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return endpoint, nil
	}
	if !c.HasBaseURL() {
		return "", ErrNoBaseURL
	}
	base := strings.TrimRight(c.base.String(), "/")
	return base + "/" + strings.TrimLeft(endpoint, "/"), nil
}

// Response is a fully read backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, endpoint string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, nil)
}

// Do issues a request and reads the whole body. A non-nil body is encoded as
// JSON unless it is already a []byte. Non-2xx statuses are not errors here;
// callers decide via Response.OK.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	if c == nil {
		return nil, errors.New("transport: client is nil")
	}
	target, err := c.Resolve(endpoint)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, ok := body.([]byte)
		if !ok {
			payload, err = json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("transport: encode body: %w", err)
			}
		}
		reader = bytes.NewReader(payload)
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(reqCtx)
		if err != nil {
			return nil, fmt.Errorf("transport: token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %s %s: %w", method, target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read body: %w", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
