// Package crudform turns backend-served field schemas into CRUD screens: a
// list table, an entry form and a print view per configured page.
package crudform

import (
	"context"

	"github.com/goliatone/go-crudform/pkg/config"
	"github.com/goliatone/go-crudform/pkg/orchestrator"
	"github.com/goliatone/go-crudform/pkg/render"
)

// Config is the root configuration document.
type Config = config.Config

// PageConfig describes one CRUD screen.
type PageConfig = config.PageConfig

// Request describes one render.
type Request = orchestrator.Request

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// Props is what a renderer receives for one page.
type Props = render.Props

// LoadConfig reads a YAML configuration file and applies environment
// overrides.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// New exposes the orchestrator constructor from the top-level module.
func New(cfg Config, options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(cfg, options...)
}

// GenerateHTML fetches the named page's schema and renders its list view
// with the vanilla renderer. It is the simplest entry point for callers that
// just want HTML output.
func GenerateHTML(ctx context.Context, cfg Config, pageName string, options ...orchestrator.Option) ([]byte, error) {
	gen, err := orchestrator.New(cfg, options...)
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, orchestrator.Request{
		Page:     pageName,
		Renderer: "vanilla",
		LoadRows: true,
	})
}

// WithSchemaTransformer forwards a props transformer to the orchestrator.
func WithSchemaTransformer(t orchestrator.Transformer) orchestrator.Option {
	return orchestrator.WithSchemaTransformer(t)
}
