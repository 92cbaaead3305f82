package render

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/normalize"
)

// HiddenField is a hidden form input emitted alongside the schema fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// MethodOverride marks a POST as a PUT or DELETE for backends and servers
// that honour _method.
func MethodOverride(method string) HiddenField {
	return Hidden(MethodField, strings.ToUpper(strings.TrimSpace(method)))
}

// MethodField is the hidden input carrying the method override.
const MethodField = "_method"

// MergeHiddenFields returns a copy of base with fields applied. Empty names
// are ignored and later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	if len(base) == 0 && len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		out[name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields sorts hidden fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{Name: strings.TrimSpace(name), Value: fields[name]})
	}
	return result
}

// Submission is the outcome of parsing posted form values.
type Submission struct {
	Records []crud.Record
	// Values echoes the posted values so a failed form can be re-rendered.
	Values     map[string]any
	Errors     map[string][]string
	FormErrors []string

	fields []normalize.FormField
}

// Valid reports a submission without errors.
func (s Submission) Valid() bool {
	return len(s.Errors) == 0 && len(s.FormErrors) == 0
}

// CreateRecords returns the records keyed for the create endpoint: fields
// with a createKey are renamed.
func (s Submission) CreateRecords() []crud.Record {
	out := make([]crud.Record, 0, len(s.Records))
	for _, record := range s.Records {
		renamed := make(crud.Record, len(record))
		for key, value := range record {
			renamed[key] = value
		}
		for _, field := range s.fields {
			if field.CreateKey == "" || field.CreateKey == field.ID {
				continue
			}
			if value, ok := renamed[field.ID]; ok {
				delete(renamed, field.ID)
				renamed[field.CreateKey] = value
			}
		}
		out = append(out, renamed)
	}
	return out
}

// ErrNoRows is the form-level message for a multiple-entry submission with
// only blank rows.
const ErrNoRows = "Enter at least one row"

var rowKeyPattern = regexp.MustCompile(`^rows\[(\d+)\]\.(.+)$`)

// RowKey returns the input name of field id in row i.
func RowKey(i int, id string) string {
	return "rows[" + strconv.Itoa(i) + "]." + id
}

// ParseSubmission turns posted values into records and runs required-field
// validation. Every form field is required; an empty one reports its errMsg.
// In multiple-entry mode inputs are named rows[i].<id>, each row becomes a
// record, and fully blank rows are dropped.
func ParseSubmission(props Props, form url.Values) Submission {
	fields := props.Fields()
	sub := Submission{
		Values: make(map[string]any),
		fields: fields,
	}
	if !props.MultipleEntry {
		record := make(crud.Record, len(fields))
		for _, field := range fields {
			raw := strings.TrimSpace(form.Get(field.ID))
			sub.Values[field.ID] = raw
			if raw == "" {
				sub.addError(field.ID, field.ErrMsg)
				continue
			}
			record[field.ID] = coerce(field, raw)
		}
		sub.Records = []crud.Record{record}
		return sub
	}

	rows := make(map[int]map[string]string)
	for key, values := range form {
		match := rowKeyPattern.FindStringSubmatch(key)
		if match == nil || len(values) == 0 {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if rows[index] == nil {
			rows[index] = make(map[string]string)
		}
		rows[index][match[2]] = strings.TrimSpace(values[0])
	}
	indexes := make([]int, 0, len(rows))
	for index := range rows {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	for _, index := range indexes {
		row := rows[index]
		if blankRow(row, fields) {
			continue
		}
		record := make(crud.Record, len(fields))
		for _, field := range fields {
			key := RowKey(index, field.ID)
			raw := row[field.ID]
			sub.Values[key] = raw
			if raw == "" {
				sub.addError(key, field.ErrMsg)
				continue
			}
			record[field.ID] = coerce(field, raw)
		}
		sub.Records = append(sub.Records, record)
	}
	if len(sub.Records) == 0 {
		sub.FormErrors = append(sub.FormErrors, ErrNoRows)
	}
	return sub
}

func (s *Submission) addError(key, message string) {
	if s.Errors == nil {
		s.Errors = make(map[string][]string)
	}
	s.Errors[key] = append(s.Errors[key], message)
}

func blankRow(row map[string]string, fields []normalize.FormField) bool {
	for _, field := range fields {
		if row[field.ID] != "" {
			return false
		}
	}
	return true
}

// coerce maps a posted dropdown value back onto the option's typed value so
// numeric option values survive the round trip.
func coerce(field normalize.FormField, raw string) any {
	for _, option := range field.Options {
		if fmt.Sprint(option.Value) == raw {
			return option.Value
		}
	}
	return raw
}
