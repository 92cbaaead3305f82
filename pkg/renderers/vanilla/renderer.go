package vanilla

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-crudform/pkg/render"
	rendertemplate "github.com/goliatone/go-crudform/pkg/render/template"
	"github.com/goliatone/go-crudform/pkg/render/template/pongo"
	"github.com/goliatone/go-crudform/pkg/renderers/vanilla/components"
)

const pageTemplate = "templates/page.tmpl"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	templateRenderer rendertemplate.TemplateRenderer
	components       *components.Registry
	stylesheets      []string
	partials         map[string]string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir layers a directory on disk over the template bundle. It
// mirrors the bundle layout (templates/page.tmpl, templates/components/...)
// and only needs the files a deployment overrides.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = path
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponents replaces the component registry used for form controls.
func WithComponents(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithStylesheetURL links a stylesheet from every rendered page. Pass the URL
// the embedded AssetsFS is served under to pick up the default styles. The
// links are template globals of the default engine; a custom
// WithTemplateRenderer has to provide its own.
func WithStylesheetURL(href string) Option {
	return func(cfg *config) {
		if href != "" {
			cfg.stylesheets = append(cfg.stylesheets, href)
		}
	}
}

// WithPartials overrides component templates by partial key (forms.input,
// forms.textarea, forms.select).
func WithPartials(partials map[string]string) Option {
	return func(cfg *config) {
		if len(partials) == 0 {
			return
		}
		if cfg.partials == nil {
			cfg.partials = make(map[string]string, len(partials))
		}
		for key, value := range partials {
			cfg.partials[key] = value
		}
	}
}

// Renderer produces server-rendered HTML for list, form and print views.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	components *components.Registry
	partials   map[string]string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.components == nil {
		cfg.components = components.NewDefaultRegistry()
	}

	if cfg.stylesheets == nil {
		cfg.stylesheets = []string{}
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithDir(cfg.templateDir),
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".tmpl"),
			pongo.WithGlobals(map[string]any{"stylesheets": cfg.stylesheets}),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:  renderer,
		components: cfg.components,
		partials:   cfg.partials,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the page for options.Mode. Props that are not ready produce
// no output.
func (r *Renderer) Render(_ context.Context, props render.Props, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if !props.Ready() {
		return nil, nil
	}
	options = options.WithDefaults(props)

	view, err := r.buildPage(props, options)
	if err != nil {
		return nil, err
	}

	result, err := r.templates.RenderTemplate(pageTemplate, view)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}
