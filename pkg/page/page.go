// Package page mounts one CRUD page: it fetches the schema once, normalizes
// it, and hands renderers props built from a single completed fetch.
package page

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-crudform/pkg/config"
	"github.com/goliatone/go-crudform/pkg/logger"
	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/render"
	"github.com/goliatone/go-crudform/pkg/schema"
)

// ErrClosed is returned by Load once the page has been closed.
var ErrClosed = errors.New("page: closed")

// State is the lifecycle state of a page.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateReady    State = "ready"
	StateEmpty    State = "empty"
	StateClosed   State = "closed"
)

// Fetcher retrieves the raw schema for an endpoint. *fetch.Fetcher
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) (schema.RawSchema, error)
}

// Option configures a Page.
type Option func(*Page)

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *logger.Logger) Option {
	return func(p *Page) {
		if l != nil {
			p.log = l
		}
	}
}

// Page owns the derived state of one mounted page.
type Page struct {
	cfg     config.PageConfig
	fetcher Fetcher
	log     *logger.Logger

	mu     sync.Mutex
	state  State
	result normalize.Result
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns an idle page.
func New(cfg config.PageConfig, fetcher Fetcher, opts ...Option) *Page {
	p := &Page{
		cfg:     cfg,
		fetcher: fetcher,
		state:   StateIdle,
		result:  normalize.Empty(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Name returns the configured page name.
func (p *Page) Name() string {
	return p.cfg.Name
}

// Config returns the page configuration.
func (p *Page) Config() config.PageConfig {
	return p.cfg
}

// Load fetches and normalizes the schema. Only the first call fetches; later
// calls wait for it and return the resulting state. Fetch failures are
// logged and leave the page Empty without returning an error.
func (p *Page) Load(ctx context.Context) (State, error) {
	p.mu.Lock()
	switch p.state {
	case StateClosed:
		p.mu.Unlock()
		return StateClosed, ErrClosed
	case StateFetching:
		done := p.done
		p.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return StateFetching, ctx.Err()
		}
		return p.currentState()
	case StateReady, StateEmpty:
		state := p.state
		p.mu.Unlock()
		return state, nil
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.state = StateFetching
	p.cancel = cancel
	p.done = done
	fetcher := p.fetcher
	p.mu.Unlock()

	var (
		raw schema.RawSchema
		err error
	)
	if fetcher == nil {
		err = errors.New("page: fetcher is nil")
	} else {
		raw, err = fetcher.Fetch(fetchCtx, p.cfg.Schema)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	defer close(done)
	cancel()
	p.cancel = nil

	if p.state == StateClosed {
		return StateClosed, ErrClosed
	}

	switch {
	case err != nil:
		p.logger(ctx).Errorw("schema fetch failed", "page", p.cfg.Name, "schema", p.cfg.Schema, "error", err)
		p.err = err
		p.state = StateEmpty
		p.result = normalize.Empty()
	case raw.Empty():
		p.logger(ctx).Debugw("schema is empty", "page", p.cfg.Name)
		p.state = StateEmpty
		p.result = normalize.Empty()
	default:
		p.result = normalize.Normalize(raw)
		p.state = StateReady
	}
	return p.state, nil
}

func (p *Page) currentState() (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateClosed {
		return StateClosed, ErrClosed
	}
	return p.state, nil
}

// Close cancels an in-flight fetch. A result that arrives afterwards is
// discarded.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateClosed {
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.state = StateClosed
	p.result = normalize.Empty()
}

// State reports the current lifecycle state.
func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Result returns the published normalization result.
func (p *Page) Result() normalize.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Err returns the fetch error that left the page Empty, if any.
func (p *Page) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Props builds renderer props from the published result.
func (p *Page) Props() render.Props {
	formName := strings.TrimSpace(p.cfg.FormName)
	if formName == "" {
		formName = p.cfg.DisplayTitle()
	}
	return render.NewProps(p.Result(), p.cfg.FormAPI,
		render.WithFormName(formName),
		render.WithMultipleEntry(p.cfg.MultipleEntry),
	)
}

// Render renders the page through the readiness gate.
func (p *Page) Render(ctx context.Context, renderer render.Renderer, opts render.RenderOptions) ([]byte, error) {
	return render.Render(ctx, renderer, p.Props(), opts)
}

func (p *Page) logger(ctx context.Context) *logger.Logger {
	if p.log != nil {
		return p.log.WithContext(ctx).WithComponent("page")
	}
	return logger.FromContext(ctx).WithComponent("page")
}
