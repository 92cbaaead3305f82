package orchestrator

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/render"
)

func sampleProps() render.Props {
	return render.Props{
		GroupedFields: []normalize.FieldGroup{{
			Title: "General",
			Fields: []normalize.FormField{
				{ID: "name", Label: "Name", Type: "textinput"},
				{ID: "status", Label: "Status", Type: "dropdown"},
			},
		}},
		Head:            []normalize.Column{{Key: "name", Label: "Name"}, {Key: "action", Label: "Action"}},
		PrintableFields: []normalize.PrintableField{{Key: "name", Label: "Name"}},
		FormAPI:         crud.FormAPI{Read: "/api/sales"}.WithDefaults(),
		FormName:        "Sales",
	}
}

func TestJSONPresetTransformer_PatchesFieldsWithoutMutatingInput(t *testing.T) {
	preset, err := NewJSONPresetTransformer([]byte(`{
		"formName": "Orders",
		"fields": {"name": {"label": "Customer", "errMsg": "Pick one", "className": "w-half"}}
	}`))
	if err != nil {
		t.Fatalf("NewJSONPresetTransformer: %v", err)
	}

	original := sampleProps()
	props := sampleProps()
	if err := preset.Transform(context.Background(), &props); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if props.FormName != "Orders" {
		t.Fatalf("form name = %q", props.FormName)
	}
	want := normalize.FormField{ID: "name", Label: "Customer", Type: "textinput", ErrMsg: "Pick one", ClassName: "w-half"}
	if diff := cmp.Diff(want, props.GroupedFields[0].Fields[0]); diff != "" {
		t.Fatalf("field mismatch (-want +got):\n%s", diff)
	}
	if props.Head[0].Label != "Customer" || props.PrintableFields[0].Label != "Customer" {
		t.Fatalf("columns not relabeled: %+v %+v", props.Head, props.PrintableFields)
	}
	if props.Head[1].Label != "Action" {
		t.Fatalf("unpatched column changed: %+v", props.Head[1])
	}

	// The source slices stay untouched.
	fresh := sampleProps()
	if diff := cmp.Diff(fresh, original); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestJSONPresetTransformer_SharedSlicesStayIntact(t *testing.T) {
	preset, err := NewJSONPresetTransformer([]byte(`{"fields": {"name": {"label": "Customer"}}}`))
	if err != nil {
		t.Fatalf("NewJSONPresetTransformer: %v", err)
	}
	source := sampleProps()
	props := source
	if err := preset.Transform(context.Background(), &props); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if source.GroupedFields[0].Fields[0].Label != "Name" || source.Head[0].Label != "Name" {
		t.Fatalf("shared slices mutated: %+v", source)
	}
}

func TestJSONPresetTransformer_Errors(t *testing.T) {
	if _, err := NewJSONPresetTransformer([]byte("  ")); err == nil {
		t.Fatal("expected error for empty document")
	}
	if _, err := NewJSONPresetTransformer([]byte("{")); err == nil {
		t.Fatal("expected error for malformed document")
	}
	if _, err := NewJSONPresetTransformerFromFS(nil, "preset.json"); err == nil {
		t.Fatal("expected error for nil filesystem")
	}
}

func TestJSONPresetTransformerFromFS(t *testing.T) {
	fsys := fstest.MapFS{"presets/sales.json": {Data: []byte(`{"formName": "Tenant Sales"}`)}}
	preset, err := NewJSONPresetTransformerFromFS(fsys, "presets/sales.json")
	if err != nil {
		t.Fatalf("NewJSONPresetTransformerFromFS: %v", err)
	}
	props := sampleProps()
	if err := preset.Transform(context.Background(), &props); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if props.FormName != "Tenant Sales" {
		t.Fatalf("form name = %q", props.FormName)
	}
}

func TestTransformerFunc_NilIsNoop(t *testing.T) {
	var fn TransformerFunc
	props := sampleProps()
	if err := fn.Transform(context.Background(), &props); err != nil {
		t.Fatalf("Transform: %v", err)
	}
}
