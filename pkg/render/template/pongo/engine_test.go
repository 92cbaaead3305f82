package pongo_test

import (
	"embed"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/render/template/pongo"
	"github.com/goliatone/go-crudform/pkg/testsupport"
)

//go:embed testdata/templates/*.tmpl
var embeddedTemplates embed.FS

func templatesFS(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	return sub
}

func newEngine(t *testing.T, opts ...pongo.Option) *pongo.Engine {
	t.Helper()
	engine, err := pongo.New(append(opts, pongo.WithFS(templatesFS(t)))...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	want := "Hello Ada!\n"
	if result != want || written != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q / %q", want, result, written)
	}
}

func TestEngine_StructDataUsesJSONNames(t *testing.T) {
	engine := newEngine(t)

	data := struct {
		FormAPI crud.FormAPI   `json:"formApi"`
		Values  map[string]any `json:"values"`
	}{
		FormAPI: crud.FormAPI{Read: "/api/sales"},
		Values:  map[string]any{"name": "Acme"},
	}
	got, err := engine.RenderTemplate("record.tmpl", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(got) != "/api/sales|Acme" {
		t.Fatalf("unexpected output %q", got)
	}

	data.Values = map[string]any{}
	got, _ = engine.RenderTemplate("record", data)
	if strings.TrimSpace(got) != "/api/sales|missing" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_GlobalsAndShadowing(t *testing.T) {
	engine := newEngine(t, pongo.WithGlobals(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}))

	got, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(got) != "env=staging" {
		t.Fatalf("unexpected output %q", got)
	}

	got, err = engine.RenderTemplate("use-global", map[string]any{"settings": map[string]any{"env": "prod"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(got) != "env=prod" {
		t.Fatalf("render data should shadow globals, got %q", got)
	}
}

func TestEngine_DirOverridesFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.tmpl"), []byte("Hi {{ name }}"), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}
	engine := newEngine(t, pongo.WithDir(dir))

	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hi Ada" {
		t.Fatalf("expected override, got %q", got)
	}

	// Templates missing from the directory still come from the bundle.
	got, err = engine.RenderTemplate("record", map[string]any{"formApi": map[string]any{"read": "/r"}})
	if err != nil {
		t.Fatalf("render fallback: %v", err)
	}
	if strings.TrimSpace(got) != "/r|missing" {
		t.Fatalf("unexpected fallback output %q", got)
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("nope", nil); err == nil {
		t.Fatal("expected error for a missing template")
	}
}

func TestEngine_RejectsNonObjectData(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("hello", []string{"a"}); err == nil {
		t.Fatal("expected error for slice data")
	}
}

func TestEngine_ConcurrentRenders(t *testing.T) {
	engine := newEngine(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("render: %v", err)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatalf("expected error without template source")
	}
	if _, err := pongo.New(pongo.WithDir("   ")); err == nil {
		t.Fatalf("expected error for a blank directory")
	}
}
