package normalize

import "github.com/goliatone/go-crudform/pkg/schema"

// DefaultFieldType is assigned to form fields that omit a type.
const DefaultFieldType = "textinput"

// DefaultClassName is applied to every generated form field.
const DefaultClassName = "w-full"

// Column is a table column descriptor. It keeps the raw field shape so table
// renderers can read per-field endpoints and flags directly.
type Column = schema.RawField

// PrintableField is a field selected for the printable subset.
type PrintableField = schema.RawField

// FormField is one input inside a create/edit form.
type FormField struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Type      string          `json:"type"`
	ClassName string          `json:"className"`
	ErrMsg    string          `json:"errMsg"`
	Options   []schema.Option `json:"options,omitzero"`
	ReadAPI   string          `json:"readApi,omitempty"`
	UpdateAPI string          `json:"updateApi,omitempty"`
	APIKey    string          `json:"apiKey,omitempty"`
	CreateKey string          `json:"createKey,omitempty"`
}

// FieldGroup is the form section derived from one schema section.
type FieldGroup struct {
	Title      string      `json:"title"`
	SectionKey string      `json:"sectionKey"`
	Fields     []FormField `json:"fields"`
}

// Result bundles every structure derived from one schema value.
type Result struct {
	Columns         []Column         `json:"columns"`
	GroupedFields   []FieldGroup     `json:"groupedFields"`
	PrintableFields []PrintableField `json:"printableFields"`
}

// Normalize derives table columns, form groups, and printable fields from raw.
// It has no side effects and never fails; an empty schema yields empty lists.
func Normalize(raw schema.RawSchema) Result {
	out := Empty()
	for _, section := range raw.Sections {
		group := FieldGroup{
			Title:      section.DisplayTitle(),
			SectionKey: section.Key,
			Fields:     make([]FormField, 0, len(section.Fields)),
		}
		for _, field := range section.Fields {
			if field.InTable {
				out.Columns = append(out.Columns, field)
			}
			if field.IsPrint {
				out.PrintableFields = append(out.PrintableFields, field)
			}
			if bool(field.IsForm) && !field.Reserved() {
				group.Fields = append(group.Fields, formField(field))
			}
		}
		out.GroupedFields = append(out.GroupedFields, group)
	}
	return out
}

// Empty returns a Result whose lists are empty but non-nil so encoders emit
// [] rather than null.
func Empty() Result {
	return Result{
		Columns:         []Column{},
		GroupedFields:   []FieldGroup{},
		PrintableFields: []PrintableField{},
	}
}

func formField(field schema.RawField) FormField {
	fieldType := field.Type
	if fieldType == "" {
		fieldType = DefaultFieldType
	}
	out := FormField{
		ID:        field.Key,
		Label:     field.Label,
		Type:      fieldType,
		ClassName: DefaultClassName,
		ErrMsg:    "Enter " + field.Label,
		ReadAPI:   field.ReadAPI,
		UpdateAPI: field.UpdateAPI,
		APIKey:    field.APIKey,
		CreateKey: field.CreateKey,
	}
	if field.IsDropdown() && field.HasOptions() {
		out.Options = append([]schema.Option{}, field.Options...)
	}
	return out
}

// Ready reports whether the result can drive a form and table: at least one
// group and one column.
func (r Result) Ready() bool {
	return len(r.GroupedFields) > 0 && len(r.Columns) > 0
}

// FormFields flattens the groups into a single ordered list.
func (r Result) FormFields() []FormField {
	var out []FormField
	for _, group := range r.GroupedFields {
		out = append(out, group.Fields...)
	}
	return out
}

// PrintableKeys returns the keys of the printable fields in order.
func (r Result) PrintableKeys() []string {
	keys := make([]string, 0, len(r.PrintableFields))
	for _, field := range r.PrintableFields {
		keys = append(keys, field.Key)
	}
	return keys
}
