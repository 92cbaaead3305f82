// Package server is the HTTP preview server: it mounts configured pages,
// renders them as HTML, and relays form posts to the CRUD backend.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-crudform/pkg/config"
	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/logger"
	"github.com/goliatone/go-crudform/pkg/page"
	"github.com/goliatone/go-crudform/pkg/render"
	"github.com/goliatone/go-crudform/pkg/renderers/vanilla"
)

// AssetsPath is where the embedded stylesheet is served.
const AssetsPath = "/assets"

const shutdownTimeout = 10 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithThemes enables ?theme= and ?variant= selection.
func WithThemes(themes *render.Themes) Option {
	return func(s *Server) {
		s.themes = themes
	}
}

// WithRenderer replaces the HTML renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// Server serves configured pages.
type Server struct {
	cfg      config.Config
	fetcher  page.Fetcher
	records  *crud.Client
	renderer render.Renderer
	themes   *render.Themes
	log      *logger.Logger
	engine   *gin.Engine
}

// New wires routes for cfg.Pages.
func New(cfg config.Config, fetcher page.Fetcher, records *crud.Client, opts ...Option) (*Server, error) {
	if fetcher == nil {
		return nil, errors.New("server: fetcher is required")
	}
	if records == nil {
		return nil, errors.New("server: crud client is required")
	}

	s := &Server{
		cfg:     cfg,
		fetcher: fetcher,
		records: records,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderer == nil {
		html, err := vanilla.New(vanilla.WithStylesheetURL(AssetsPath + "/" + vanilla.StylesheetName))
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.renderer = html
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.engine.Use(RequestID(s.log), Logger(s.log), Recovery(), ErrorHandler())
	s.routes()
	return s, nil
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Server.Addr until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
