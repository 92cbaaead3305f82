package render

import (
	"github.com/goliatone/go-crudform/pkg/crud"
)

// Mode selects the view a renderer produces.
type Mode string

const (
	ModeList  Mode = "list"
	ModeForm  Mode = "form"
	ModePrint Mode = "print"
)

// RenderOptions carry per-request data so renderers can vary their output
// without touching the props.
type RenderOptions struct {
	Mode Mode
	// Rows is the list data shown in the table view.
	Rows []crud.Record
	// Record is the record being edited or printed.
	Record crud.Record
	// RecordID identifies Record for update and delete targets.
	RecordID string
	// Values pre-populates controls by field id. In multiple-entry mode keys
	// follow the rows[i].<id> convention.
	Values map[string]any
	// Errors holds field-level messages keyed like Values.
	Errors     map[string][]string
	FormErrors []string
	// Action is the form post target. Defaults to FormAPI.Create.
	Action string
	// BasePath prefixes the edit/print/delete links of the table view.
	BasePath string
	// EntryRows is the number of blank rows in multiple-entry mode.
	EntryRows int
	Hidden    map[string]string
	Sections  []string
	Theme     *ThemeConfig
}

// DefaultEntryRows is used when EntryRows is unset.
const DefaultEntryRows = 1

// WithDefaults fills unset options from props.
func (o RenderOptions) WithDefaults(props Props) RenderOptions {
	if o.Mode == "" {
		o.Mode = ModeList
	}
	if o.Action == "" {
		o.Action = props.FormAPI.Create
	}
	if o.EntryRows <= 0 {
		o.EntryRows = DefaultEntryRows
	}
	if o.Values == nil && o.Record != nil {
		o.Values = map[string]any(o.Record)
	}
	return o
}
