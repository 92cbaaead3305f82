package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-crudform/internal/server"
	"github.com/goliatone/go-crudform/pkg/auth"
	"github.com/goliatone/go-crudform/pkg/config"
	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/fetch"
	"github.com/goliatone/go-crudform/pkg/logger"
	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/openapi"
	"github.com/goliatone/go-crudform/pkg/page"
	"github.com/goliatone/go-crudform/pkg/render"
	"github.com/goliatone/go-crudform/pkg/renderers/tui"
	"github.com/goliatone/go-crudform/pkg/renderers/vanilla"
)

const defaultRendererName = "vanilla"

// ErrUnknownPage is returned for page names missing from the configuration.
var ErrUnknownPage = errors.New("orchestrator: unknown page")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLogger sets the logger handed to pages.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithFetcher injects a schema fetcher. Its transport is reused for CRUD
// calls.
func WithFetcher(fetcher *fetch.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithHTTPClient sets the HTTP client of the default fetcher.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Orchestrator) {
		o.httpClient = client
	}
}

// WithFS lets the default fetcher read schema files from fsys.
func WithFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.files = fsys
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer applied to props before
// rendering.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// Orchestrator builds pages from configuration and renders them.
type Orchestrator struct {
	cfg             config.Config
	log             *logger.Logger
	fetcher         *fetch.Fetcher
	httpClient      *http.Client
	files           fs.FS
	records         *crud.Client
	registry        *render.Registry
	themes          *render.Themes
	defaultRenderer string
	transformer     Transformer
}

// New wires the fetcher, CRUD client, renderers and themes described by
// cfg.
func New(cfg config.Config, options ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:             cfg,
		log:             logger.Nop(),
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}

	if o.fetcher == nil {
		fetcher, err := o.newFetcher()
		if err != nil {
			return nil, err
		}
		o.fetcher = fetcher
	}
	o.records = crud.NewClient(o.fetcher.Transport())

	if o.registry == nil {
		registry, err := defaultRegistry()
		if err != nil {
			return nil, err
		}
		o.registry = registry
	}

	if cfg.Theme.Name != "" {
		themes, err := render.NewThemes(cfg.Theme.Name, cfg.Theme.Variant,
			render.ManifestFromTokens(cfg.Theme.Name, cfg.Theme.Tokens, cfg.Theme.Variants))
		if err != nil {
			return nil, fmt.Errorf("orchestrator: themes: %w", err)
		}
		o.themes = themes
	}
	return o, nil
}

func (o *Orchestrator) newFetcher() (*fetch.Fetcher, error) {
	tokens, err := auth.FromSettings(o.cfg.AuthSettings())
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	opts := []fetch.Option{fetch.WithTimeout(o.cfg.API.Timeout)}
	if o.cfg.API.BaseURL != "" {
		opts = append(opts, fetch.WithBaseURL(o.cfg.API.BaseURL))
	}
	if tokens != nil {
		opts = append(opts, fetch.WithTokenSource(tokens))
	}
	if o.httpClient != nil {
		opts = append(opts, fetch.WithHTTPClient(o.httpClient))
	}
	if o.files != nil {
		opts = append(opts, fetch.WithFS(o.files))
	}

	fetcher, err := fetch.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: fetcher: %w", err)
	}
	return fetcher, nil
}

func defaultRegistry() (*render.Registry, error) {
	registry := render.NewRegistry()
	html, err := vanilla.New()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: default renderer: %w", err)
	}
	registry.MustRegister(html)

	terminal, err := tui.New()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: tui renderer: %w", err)
	}
	registry.MustRegister(terminal)
	return registry, nil
}

// Config returns the configuration the orchestrator was built from.
func (o *Orchestrator) Config() config.Config { return o.cfg }

// Logger returns the configured logger.
func (o *Orchestrator) Logger() *logger.Logger { return o.log }

// Fetcher returns the schema fetcher.
func (o *Orchestrator) Fetcher() *fetch.Fetcher { return o.fetcher }

// Records returns the CRUD client sharing the fetcher's transport.
func (o *Orchestrator) Records() *crud.Client { return o.records }

// Registry returns the renderer registry.
func (o *Orchestrator) Registry() *render.Registry { return o.registry }

// Themes returns the configured themes, or nil.
func (o *Orchestrator) Themes() *render.Themes { return o.themes }

// Page mounts a fresh, idle page. Callers close it.
func (o *Orchestrator) Page(name string) (*page.Page, error) {
	pc, ok := o.cfg.Page(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, name)
	}
	return page.New(pc, o.fetcher, page.WithLogger(o.log)), nil
}

// Pages mounts every configured page in configuration order.
func (o *Orchestrator) Pages() []*page.Page {
	pages := make([]*page.Page, 0, len(o.cfg.Pages))
	for _, pc := range o.cfg.Pages {
		pages = append(pages, page.New(pc, o.fetcher, page.WithLogger(o.log)))
	}
	return pages
}

// Request describes one render.
type Request struct {
	// Page names a configured page.
	Page string
	// Renderer names the renderer to use. Empty uses the default.
	Renderer string
	// Theme and Variant select a configured theme when RenderOptions.Theme is
	// unset.
	Theme   string
	Variant string
	// LoadRows fetches list rows for the list view when the page is ready.
	LoadRows      bool
	RenderOptions render.RenderOptions
}

// Generate mounts the page, loads its schema and renders it.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := o.Page(req.Page)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	if _, err := p.Load(ctx); err != nil {
		return nil, fmt.Errorf("orchestrator: load page: %w", err)
	}

	props, err := o.Props(ctx, p)
	if err != nil {
		return nil, err
	}

	opts := req.RenderOptions
	if req.LoadRows && props.Ready() && opts.Rows == nil && (opts.Mode == "" || opts.Mode == render.ModeList) {
		rows, err := o.records.List(ctx, props.FormAPI)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: list rows: %w", err)
		}
		opts.Rows = rows
	}
	if opts.Theme == nil && o.themes != nil {
		selected, err := o.themes.Resolve(req.Theme, req.Variant)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: theme: %w", err)
		}
		opts.Theme = selected
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	output, err := render.Render(ctx, renderer, props, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Props returns the page props with the schema transformer applied.
func (o *Orchestrator) Props(ctx context.Context, p *page.Page) (render.Props, error) {
	props := p.Props()
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &props); err != nil {
			return render.Props{}, fmt.Errorf("orchestrator: transform props: %w", err)
		}
	}
	return props, nil
}

// Normalize loads one page and returns its derived state.
func (o *Orchestrator) Normalize(ctx context.Context, name string) (normalize.Result, page.State, error) {
	p, err := o.Page(name)
	if err != nil {
		return normalize.Result{}, "", err
	}
	defer p.Close()
	state, err := p.Load(ctx)
	if err != nil {
		return normalize.Result{}, state, err
	}
	return p.Result(), state, p.Err()
}

// OpenAPI builds the OpenAPI document for one page.
func (o *Orchestrator) OpenAPI(ctx context.Context, name string) (*openapi3.T, error) {
	p, err := o.Page(name)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	if _, err := p.Load(ctx); err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("orchestrator: %s: %w", name, err)
	}

	props, err := o.Props(ctx, p)
	if err != nil {
		return nil, err
	}
	pc := p.Config()
	var opts []openapi.Option
	if o.cfg.API.BaseURL != "" {
		opts = append(opts, openapi.WithServer(o.cfg.API.BaseURL))
	}
	return openapi.Build(ctx, openapi.PageFromProps(pc.Name, pc.DisplayTitle(), props), opts...)
}

// Server builds the preview server sharing this orchestrator's fetcher,
// CRUD client, logger and themes.
func (o *Orchestrator) Server(opts ...server.Option) (*server.Server, error) {
	base := []server.Option{server.WithLogger(o.log)}
	if o.themes != nil {
		base = append(base, server.WithThemes(o.themes))
	}
	return server.New(o.cfg, o.fetcher, o.records, append(base, opts...)...)
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	renderer, err := o.registry.Get("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: no renderers registered: %w", err)
	}
	return renderer, nil
}
