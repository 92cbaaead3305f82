package render

import (
	"strings"

	"github.com/goliatone/go-crudform/pkg/normalize"
)

// FieldSubset narrows the form to selected sections or field ids. Empty
// filters match everything.
type FieldSubset struct {
	Sections []string
	Fields   []string
}

// ApplySubset returns a copy of props whose field groups keep only the
// matching sections and fields. Groups left without fields are dropped when a
// field filter is active. Columns and printable fields are untouched.
func ApplySubset(props Props, subset FieldSubset) Props {
	sections := toSet(subset.Sections)
	fields := toSet(subset.Fields)
	if len(sections) == 0 && len(fields) == 0 {
		return props
	}

	groups := make([]normalize.FieldGroup, 0, len(props.GroupedFields))
	for _, group := range props.GroupedFields {
		if len(sections) > 0 {
			if _, ok := sections[strings.ToLower(group.SectionKey)]; !ok {
				continue
			}
		}
		if len(fields) == 0 {
			groups = append(groups, group)
			continue
		}
		kept := make([]normalize.FormField, 0, len(group.Fields))
		for _, field := range group.Fields {
			if _, ok := fields[strings.ToLower(field.ID)]; ok {
				kept = append(kept, field)
			}
		}
		if len(kept) == 0 {
			continue
		}
		group.Fields = kept
		groups = append(groups, group)
	}
	props.GroupedFields = groups
	return props
}

// ParseSubset splits comma separated query values into a FieldSubset.
func ParseSubset(sections, fields string) FieldSubset {
	return FieldSubset{Sections: splitList(sections), Fields: splitList(fields)}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
			out[trimmed] = struct{}{}
		}
	}
	return out
}
