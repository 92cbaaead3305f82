package vanilla

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/render"
	"github.com/goliatone/go-crudform/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-crudform/pkg/schema"
)

// Numbers are pre-formatted here: the template context goes through JSON and
// pongo2 prints floats with fixed precision.

type pageView struct {
	Mode     string     `json:"mode"`
	FormName string     `json:"formName,omitempty"`
	Theme    string     `json:"theme,omitempty"`
	Variant  string     `json:"variant,omitempty"`
	Style    string     `json:"style,omitempty"`
	Title    string     `json:"title,omitempty"`
	Table    *tableView `json:"table,omitempty"`
	Form     *formView  `json:"form,omitempty"`
	Print    *printView `json:"print,omitempty"`
}

type tableView struct {
	Columns []columnView `json:"columns"`
	Rows    []rowView    `json:"rows"`
}

type columnView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type rowView struct {
	ID    string     `json:"id"`
	Cells []cellView `json:"cells"`
}

type cellView struct {
	Key       string `json:"key"`
	Value     string `json:"value,omitempty"`
	Action    bool   `json:"action,omitempty"`
	EditURL   string `json:"editUrl,omitempty"`
	PrintURL  string `json:"printUrl,omitempty"`
	DeleteURL string `json:"deleteUrl,omitempty"`
}

type formView struct {
	Action string       `json:"action"`
	Hidden []hiddenView `json:"hidden,omitempty"`
	Errors []string     `json:"errors,omitempty"`
	Grid   *gridView    `json:"grid,omitempty"`
	Groups []groupView  `json:"groups,omitempty"`
	Submit string       `json:"submit"`
}

type hiddenView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gridView struct {
	Headers []string      `json:"headers"`
	Rows    []gridRowView `json:"rows"`
}

type gridRowView struct {
	Index string   `json:"index"`
	Cells []string `json:"cells"`
}

type groupView struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Controls []string `json:"controls"`
}

type printView struct {
	Items []printItem `json:"items"`
}

type printItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

func (r *Renderer) buildPage(props render.Props, options render.RenderOptions) (pageView, error) {
	view := pageView{
		Mode:     string(options.Mode),
		FormName: props.FormName,
		Title:    sanitizeLabel(props.FormName),
	}
	if options.Theme != nil {
		view.Theme = options.Theme.Theme
		view.Variant = options.Theme.Variant
		view.Style = cssStyle(options.Theme)
	}

	switch options.Mode {
	case render.ModePrint:
		view.Print = buildPrint(props, options)
	case render.ModeForm:
		form, err := r.buildForm(props, options)
		if err != nil {
			return pageView{}, err
		}
		view.Form = form
	default:
		view.Table = buildTable(props, options)
		form, err := r.buildForm(props, options)
		if err != nil {
			return pageView{}, err
		}
		view.Form = form
	}
	return view, nil
}

func buildTable(props render.Props, options render.RenderOptions) *tableView {
	table := &tableView{
		Columns: make([]columnView, 0, len(props.Head)),
		Rows:    make([]rowView, 0, len(options.Rows)),
	}
	for _, column := range props.Head {
		table.Columns = append(table.Columns, columnView{
			Key:   column.Key,
			Label: sanitizeLabel(column.Label),
		})
	}
	for _, record := range options.Rows {
		table.Rows = append(table.Rows, buildRow(props.Head, record, options.BasePath))
	}
	return table
}

func buildRow(head []normalize.Column, record crud.Record, basePath string) rowView {
	id := record.ID()
	row := rowView{ID: id, Cells: make([]cellView, 0, len(head))}
	for _, column := range head {
		if column.Key == schema.KeyAction {
			row.Cells = append(row.Cells, cellView{
				Key:       column.Key,
				Action:    true,
				EditURL:   joinPath(basePath, "records", id),
				PrintURL:  joinPath(basePath, "records", id, "print"),
				DeleteURL: joinPath(basePath, "records", id, "delete"),
			})
			continue
		}
		row.Cells = append(row.Cells, cellView{
			Key:   column.Key,
			Value: displayValue(record[column.Key], column.Options),
		})
	}
	return row
}

func buildPrint(props render.Props, options render.RenderOptions) *printView {
	items := make([]printItem, 0, len(props.PrintableFields))
	for _, field := range props.PrintableFields {
		items = append(items, printItem{
			Key:   field.Key,
			Label: sanitizeLabel(field.Label),
			Value: displayValue(options.Values[field.Key], field.Options),
		})
	}
	return &printView{Items: items}
}

func (r *Renderer) buildForm(props render.Props, options render.RenderOptions) (*formView, error) {
	editing := options.Mode == render.ModeForm && options.RecordID != ""

	hidden := options.Hidden
	submit := "Create"
	if editing {
		hidden = render.MergeHiddenFields(hidden, render.MethodOverride("PUT"))
		submit = "Save"
	}

	form := &formView{
		Action: options.Action,
		Errors: options.FormErrors,
		Submit: submit,
	}
	for _, field := range render.SortedHiddenFields(hidden) {
		form.Hidden = append(form.Hidden, hiddenView{Name: field.Name, Value: field.Value})
	}

	if props.MultipleEntry && !editing {
		grid, err := r.buildGrid(props, options)
		if err != nil {
			return nil, err
		}
		form.Grid = grid
		return form, nil
	}

	for _, group := range props.GroupedFields {
		controls := make([]string, 0, len(group.Fields))
		for _, field := range group.Fields {
			html, err := r.renderControl(field, field.ID, true, options)
			if err != nil {
				return nil, err
			}
			controls = append(controls, html)
		}
		form.Groups = append(form.Groups, groupView{
			Key:      group.SectionKey,
			Title:    sanitizeLabel(group.Title),
			Controls: controls,
		})
	}
	return form, nil
}

// buildGrid lays the fields out as columns with one row per entry. Controls
// are named rows[i].<id> so the submission parser can regroup them.
func (r *Renderer) buildGrid(props render.Props, options render.RenderOptions) (*gridView, error) {
	fields := props.Fields()
	grid := &gridView{Headers: make([]string, 0, len(fields))}
	for _, field := range fields {
		grid.Headers = append(grid.Headers, sanitizeLabel(field.Label))
	}

	rows := max(options.EntryRows, submittedRows(options))
	for i := 0; i < rows; i++ {
		row := gridRowView{Index: strconv.Itoa(i), Cells: make([]string, 0, len(fields))}
		for _, field := range fields {
			html, err := r.renderControl(field, render.RowKey(i, field.ID), false, options)
			if err != nil {
				return nil, err
			}
			row.Cells = append(row.Cells, html)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

var rowKeyPattern = regexp.MustCompile(`^rows\[(\d+)\]\.`)

// submittedRows returns one past the highest row index present in
// re-rendered values or errors.
func submittedRows(options render.RenderOptions) int {
	count := 0
	track := func(key string) {
		match := rowKeyPattern.FindStringSubmatch(key)
		if match == nil {
			return
		}
		if index, err := strconv.Atoi(match[1]); err == nil && index+1 > count {
			count = index + 1
		}
	}
	for key := range options.Values {
		track(key)
	}
	for key := range options.Errors {
		track(key)
	}
	return count
}

func (r *Renderer) renderControl(field normalize.FormField, name string, withLabel bool, options render.RenderOptions) (string, error) {
	componentName := components.Resolve(field.Type)
	descriptor, ok := r.components.Descriptor(componentName)
	if !ok {
		return "", fmt.Errorf("vanilla renderer: component %q not registered", componentName)
	}

	value := formatValue(options.Values[name])
	control := components.Control{
		ID:        controlID(name),
		Name:      name,
		Label:     sanitizeLabel(field.Label),
		Type:      field.Type,
		InputType: components.InputType(field.Type),
		ClassName: sanitizeClassList(field.ClassName),
		Value:     value,
		ErrMsg:    field.ErrMsg,
		Errors:    options.Errors[name],
		HasLabel:  withLabel,
		ReadAPI:   field.ReadAPI,
		UpdateAPI: field.UpdateAPI,
		APIKey:    field.APIKey,
	}
	for _, option := range field.Options {
		optionValue := formatValue(option.Value)
		control.Options = append(control.Options, components.Choice{
			Value:    optionValue,
			Label:    option.Label,
			Selected: value != "" && optionValue == value,
		})
	}

	var buf bytes.Buffer
	err := descriptor.Renderer(&buf, control, components.ComponentData{
		Template: r.templates,
		Partials: r.partials,
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render field %q: %w", field.ID, err)
	}
	return buf.String(), nil
}
