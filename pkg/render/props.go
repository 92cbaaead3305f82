package render

import (
	"strings"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/normalize"
)

// Props is everything a renderer receives for one page.
type Props struct {
	GroupedFields   []normalize.FieldGroup     `json:"groupedFields"`
	Head            []normalize.Column         `json:"head"`
	FormAPI         crud.FormAPI               `json:"formApi"`
	PrintableFields []normalize.PrintableField `json:"printableFields"`
	MultipleEntry   bool                       `json:"multipleEntry"`
	FormName        string                     `json:"formName,omitempty"`
}

// PropsOption configures NewProps.
type PropsOption func(*Props)

// WithFormName sets the display name of the form.
func WithFormName(name string) PropsOption {
	return func(p *Props) {
		p.FormName = strings.TrimSpace(name)
	}
}

// WithMultipleEntry toggles multi-row creation.
func WithMultipleEntry(enabled bool) PropsOption {
	return func(p *Props) {
		p.MultipleEntry = enabled
	}
}

// NewProps builds props from one normalization result so columns, groups,
// and printable fields always come from the same schema.
func NewProps(result normalize.Result, api crud.FormAPI, opts ...PropsOption) Props {
	props := Props{
		GroupedFields:   result.GroupedFields,
		Head:            result.Columns,
		FormAPI:         api,
		PrintableFields: result.PrintableFields,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&props)
		}
	}
	return props
}

// Ready reports whether there is at least one field group and one column.
func (p Props) Ready() bool {
	return len(p.GroupedFields) > 0 && len(p.Head) > 0
}

// Check returns ErrNotReady when the props are not ready.
func (p Props) Check() error {
	if !p.Ready() {
		return ErrNotReady
	}
	return nil
}

// Fields flattens the groups in order.
func (p Props) Fields() []normalize.FormField {
	var out []normalize.FormField
	for _, group := range p.GroupedFields {
		out = append(out, group.Fields...)
	}
	return out
}

// Field looks up a form field by id.
func (p Props) Field(id string) (normalize.FormField, bool) {
	for _, group := range p.GroupedFields {
		for _, field := range group.Fields {
			if field.ID == id {
				return field, true
			}
		}
	}
	return normalize.FormField{}, false
}
