// Package fetch retrieves backend document schemas. Endpoints are resolved
// against an injected base URL; every remote call goes through the shared
// transport so the bearer token and timeout apply uniformly. The fetcher never
// retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-crudform/internal/loader"
	"github.com/goliatone/go-crudform/internal/transport"
	"github.com/goliatone/go-crudform/pkg/auth"
	"github.com/goliatone/go-crudform/pkg/schema"
)

// ErrNoBaseURL is returned for relative endpoints when no base URL is
// configured and the file fallback is disabled.
var ErrNoBaseURL = transport.ErrNoBaseURL

// Fetcher resolves endpoints and decodes schema payloads.
type Fetcher struct {
	client       *transport.Client
	loader       *loader.Loader
	fileFallback bool
}

type options struct {
	baseURL      string
	httpClient   *http.Client
	tokens       auth.TokenSource
	timeout      time.Duration
	files        fs.FS
	client       *transport.Client
	fileFallback bool
}

// Option configures a Fetcher.
type Option func(*options)

// WithBaseURL sets the base URL relative endpoints resolve against.
func WithBaseURL(raw string) Option {
	return func(o *options) {
		o.baseURL = raw
	}
}

// WithHTTPClient overrides the *http.Client used by the transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTokenSource attaches bearer tokens to schema requests.
func WithTokenSource(tokens auth.TokenSource) Option {
	return func(o *options) {
		o.tokens = tokens
	}
}

// WithTimeout bounds each schema request. Zero (the default) waits forever.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithFS enables fs.FS sources for FetchSource.
func WithFS(files fs.FS) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithTransport shares an existing transport client. Base URL, HTTP client,
// token, and timeout options are ignored when set.
func WithTransport(client *transport.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithFileFallback controls whether relative endpoints are read from disk
// when no base URL is configured. Enabled by default.
func WithFileFallback(enabled bool) Option {
	return func(o *options) {
		o.fileFallback = enabled
	}
}

// New constructs a Fetcher.
func New(opts ...Option) (*Fetcher, error) {
	cfg := options{fileFallback: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	client := cfg.client
	if client == nil {
		var err error
		client, err = transport.New(
			transport.WithBaseURL(cfg.baseURL),
			transport.WithHTTPClient(cfg.httpClient),
			transport.WithTokenSource(cfg.tokens),
			transport.WithTimeout(cfg.timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
	}

	return &Fetcher{
		client:       client,
		loader:       loader.New(cfg.files, client),
		fileFallback: cfg.fileFallback,
	}, nil
}

// Transport exposes the shared client so CRUD calls reuse it.
func (f *Fetcher) Transport() *transport.Client {
	return f.client
}

// Resolve maps an endpoint onto a Source. Absolute http(s) endpoints are
// used as-is, relative ones join the base URL, and without a base URL they
// name a file.
func (f *Fetcher) Resolve(endpoint string) (schema.Source, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("fetch: endpoint is required")
	}
	if strings.HasPrefix(endpoint, "file://") {
		return schema.SourceFromFile(endpoint), nil
	}
	if schema.IsRemote(endpoint) || f.client.HasBaseURL() {
		target, err := f.client.Resolve(endpoint)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		return schema.SourceFromURL(target)
	}
	if !f.fileFallback {
		return nil, fmt.Errorf("fetch: resolve %q: %w", endpoint, ErrNoBaseURL)
	}
	return schema.SourceFromFile(endpoint), nil
}

// Fetch resolves endpoint and returns the decoded schema.
func (f *Fetcher) Fetch(ctx context.Context, endpoint string) (schema.RawSchema, error) {
	src, err := f.Resolve(endpoint)
	if err != nil {
		return schema.RawSchema{}, err
	}
	return f.FetchSource(ctx, src)
}

// FetchSource loads and decodes the schema behind src.
func (f *Fetcher) FetchSource(ctx context.Context, src schema.Source) (schema.RawSchema, error) {
	if src == nil {
		return schema.RawSchema{}, errors.New("fetch: source is nil")
	}
	doc, err := f.loader.Load(ctx, src)
	if err != nil {
		return schema.RawSchema{}, fmt.Errorf("fetch: %s: %w", src.Location(), err)
	}
	raw, err := doc.Schema()
	if err != nil {
		return schema.RawSchema{}, fmt.Errorf("fetch: %s: %w", src.Location(), err)
	}
	return raw, nil
}
