package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/render"
)

// Transformer mutates page props after normalization and before rendering.
type Transformer interface {
	Transform(ctx context.Context, props *render.Props) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, props *render.Props) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, props *render.Props) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, props)
}

// JSONPresetTransformer applies declarative per-tenant overrides:
//
//	{
//	  "formName": "Sales Orders",
//	  "fields": {
//	    "name": {"label": "Customer", "errMsg": "Pick a customer", "className": "w-half"}
//	  }
//	}
//
// Field patches match form fields, table columns and printable fields by key.
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	FormName string                    `json:"formName"`
	Fields   map[string]jsonFieldPatch `json:"fields"`
}

type jsonFieldPatch struct {
	Label     string `json:"label"`
	ErrMsg    string `json:"errMsg"`
	ClassName string `json:"className"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the preset. Slices are copied so the page's published
// result is never mutated.
func (t *JSONPresetTransformer) Transform(_ context.Context, props *render.Props) error {
	if t == nil || props == nil {
		return nil
	}
	doc := t.document
	if name := strings.TrimSpace(doc.FormName); name != "" {
		props.FormName = name
	}
	if len(doc.Fields) == 0 {
		return nil
	}

	groups := make([]normalize.FieldGroup, len(props.GroupedFields))
	copy(groups, props.GroupedFields)
	for i := range groups {
		fields := append(groups[i].Fields[:0:0], groups[i].Fields...)
		for j := range fields {
			patch, ok := doc.Fields[fields[j].ID]
			if !ok {
				continue
			}
			if patch.Label != "" {
				fields[j].Label = patch.Label
			}
			if patch.ErrMsg != "" {
				fields[j].ErrMsg = patch.ErrMsg
			}
			if patch.ClassName != "" {
				fields[j].ClassName = patch.ClassName
			}
		}
		groups[i].Fields = fields
	}
	props.GroupedFields = groups

	props.Head = relabel(props.Head, doc.Fields)
	props.PrintableFields = relabel(props.PrintableFields, doc.Fields)
	return nil
}

func relabel(fields []normalize.Column, patches map[string]jsonFieldPatch) []normalize.Column {
	out := append(fields[:0:0], fields...)
	for i := range out {
		if patch, ok := patches[out[i].Key]; ok && patch.Label != "" {
			out[i].Label = patch.Label
		}
	}
	return out
}
