// Package pongo implements the template seam on top of pongo2.
package pongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-crudform/pkg/render/template"
)

// DefaultExtension is appended to template names that carry none.
const DefaultExtension = ".tmpl"

// Option configures New.
type Option func(*Engine)

// WithFS adds an fs.FS template source. Sources are searched in the order
// they were added.
func WithFS(files fs.FS) Option {
	return func(e *Engine) {
		if files != nil {
			e.sources = append(e.sources, source{files: files})
		}
	}
}

// WithDir adds a directory on disk as a template source. Used ahead of an
// embedded bundle, a file in dir overrides the embedded one of the same name.
func WithDir(dir string) Option {
	return func(e *Engine) {
		if dir = strings.TrimSpace(dir); dir != "" {
			e.sources = append(e.sources, source{dir: dir})
		}
	}
}

// WithExtension overrides DefaultExtension.
func WithExtension(ext string) Option {
	return func(e *Engine) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.ext = ext
	}
}

// WithGlobals makes values available to every template. Values passed at
// render time shadow globals of the same name.
func WithGlobals(globals map[string]any) Option {
	return func(e *Engine) {
		for key, value := range globals {
			if key = strings.TrimSpace(key); key != "" {
				e.globals[key] = value
			}
		}
	}
}

type source struct {
	dir   string
	files fs.FS
}

// Engine renders named templates and caches them once parsed.
type Engine struct {
	sources []source
	ext     string
	globals map[string]any

	set   *pongo2.TemplateSet
	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine. At least one template source is required.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		ext:     DefaultExtension,
		globals: map[string]any{},
		cache:   map[string]*pongo2.Template{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if len(e.sources) == 0 {
		return nil, errors.New("pongo: no template source configured")
	}

	loaders := make([]pongo2.TemplateLoader, 0, len(e.sources))
	for _, src := range e.sources {
		if src.files != nil {
			loaders = append(loaders, pongo2.NewFSLoader(src.files))
			continue
		}
		loader, err := pongo2.NewLocalFileSystemLoader(src.dir)
		if err != nil {
			return nil, fmt.Errorf("pongo: template dir %s: %w", src.dir, err)
		}
		loaders = append(loaders, loader)
	}
	e.set = pongo2.NewSet("crudform", loaders...)

	globals, err := toContext(e.globals)
	if err != nil {
		return nil, fmt.Errorf("pongo: globals: %w", err)
	}
	e.set.Globals = globals
	return e, nil
}

// RenderTemplate executes the named template with data and copies the
// output to every writer in out.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("pongo: engine is nil")
	}
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}

	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("pongo: %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("pongo: execute %s: %w", name, err)
	}
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("pongo: load %s: %w", name, err)
	}
	e.cache[name] = tmpl
	return tmpl, nil
}

// toContext round-trips data through JSON so templates address struct fields
// by their JSON names and see plain maps, slices and scalars.
func toContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("template data must encode to an object: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return pongo2.Context(out), nil
}
