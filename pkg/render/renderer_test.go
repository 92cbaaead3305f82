package render_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/render"
)

type countingRenderer struct {
	calls   int
	options render.RenderOptions
	props   render.Props
}

func (r *countingRenderer) Name() string        { return "counting" }
func (r *countingRenderer) ContentType() string { return "text/plain" }

func (r *countingRenderer) Render(_ context.Context, props render.Props, opts render.RenderOptions) ([]byte, error) {
	r.calls++
	r.options = opts
	r.props = props
	return []byte("ok"), nil
}

var salesAPI = crud.FormAPI{Create: "/api/sales/new", Read: "/api/sales", Update: "/api/sales", Delete: "/api/sales"}

func readyProps() render.Props {
	result := normalize.Result{
		Columns: []normalize.Column{{Key: "name", Label: "Name"}},
		GroupedFields: []normalize.FieldGroup{
			{Title: "General", SectionKey: "general", Fields: []normalize.FormField{{ID: "name", Label: "Name", Type: "textinput", ErrMsg: "Enter Name"}}},
			{Title: "Extra", SectionKey: "extra", Fields: []normalize.FormField{{ID: "memo", Label: "Memo", Type: "textinput", ErrMsg: "Enter Memo"}}},
		},
		PrintableFields: []normalize.PrintableField{},
	}
	return render.NewProps(result, salesAPI, render.WithFormName("Sales"))
}

func TestRender_GatesOnEmptyGroupsOrHead(t *testing.T) {
	cases := map[string]render.Props{
		"no groups": {Head: []normalize.Column{{Key: "name"}}},
		"no head":   {GroupedFields: []normalize.FieldGroup{{SectionKey: "a"}}},
		"zero":      {},
	}
	for name, props := range cases {
		t.Run(name, func(t *testing.T) {
			renderer := &countingRenderer{}
			out, err := render.Render(context.Background(), renderer, props, render.RenderOptions{})
			if err != nil {
				t.Fatalf("gated render should not fail: %v", err)
			}
			if len(out) != 0 {
				t.Fatalf("gated render should be empty, got %q", out)
			}
			if renderer.calls != 0 {
				t.Fatalf("renderer must not be called for non-ready props")
			}
			if err := props.Check(); err != render.ErrNotReady {
				t.Fatalf("expected ErrNotReady, got %v", err)
			}
		})
	}
}

func TestRender_AppliesDefaults(t *testing.T) {
	renderer := &countingRenderer{}
	out, err := render.Render(context.Background(), renderer, readyProps(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "ok" || renderer.calls != 1 {
		t.Fatalf("expected one delegated call, got %d (%q)", renderer.calls, out)
	}
	if renderer.options.Mode != render.ModeList {
		t.Fatalf("default mode should be list, got %q", renderer.options.Mode)
	}
	if renderer.options.Action != salesAPI.Create {
		t.Fatalf("default action should be the create endpoint, got %q", renderer.options.Action)
	}
	if renderer.options.EntryRows != render.DefaultEntryRows {
		t.Fatalf("default entry rows should be %d", render.DefaultEntryRows)
	}
	if renderer.props.MultipleEntry {
		t.Fatalf("multiple entry should default to false")
	}
}

func TestRender_SectionSubset(t *testing.T) {
	renderer := &countingRenderer{}
	_, err := render.Render(context.Background(), renderer, readyProps(), render.RenderOptions{Sections: []string{"Extra"}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(renderer.props.GroupedFields) != 1 || renderer.props.GroupedFields[0].SectionKey != "extra" {
		t.Fatalf("expected only the extra section, got %+v", renderer.props.GroupedFields)
	}

	renderer = &countingRenderer{}
	out, _ := render.Render(context.Background(), renderer, readyProps(), render.RenderOptions{Sections: []string{"missing"}})
	if len(out) != 0 || renderer.calls != 0 {
		t.Fatalf("a subset without groups should be gated")
	}
}

func TestRegistry(t *testing.T) {
	registry := render.NewRegistry()
	first := &countingRenderer{}
	registry.MustRegister(first)

	if err := registry.Register(&countingRenderer{}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil renderer error")
	}

	got, err := registry.Get("")
	if err != nil || got != first {
		t.Fatalf("empty name should return the first renderer, got %v %v", got, err)
	}
	if _, err := registry.Get("missing"); err == nil {
		t.Fatalf("expected missing renderer error")
	}
	if names := registry.List(); len(names) != 1 || names[0] != "counting" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestProps_FieldLookup(t *testing.T) {
	props := readyProps()
	if _, ok := props.Field("memo"); !ok {
		t.Fatalf("expected memo field")
	}
	if _, ok := props.Field("nope"); ok {
		t.Fatalf("unexpected field")
	}
	if len(props.Fields()) != 2 {
		t.Fatalf("expected two fields")
	}
}
