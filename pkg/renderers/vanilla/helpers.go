package vanilla

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-crudform/pkg/render"
	"github.com/goliatone/go-crudform/pkg/schema"
)

func controlID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	replacer := strings.NewReplacer("[", "-", "]", "", ".", "-")
	return "cf-" + replacer.Replace(trimmed)
}

func sanitizeClassList(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// formatValue renders a record value as display text.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

// displayValue prefers the option label when the value matches a dropdown
// option.
func displayValue(value any, options []schema.Option) string {
	text := formatValue(value)
	for _, option := range options {
		if formatValue(option.Value) == text {
			return option.Label
		}
	}
	return text
}

// cssStyle serialises the theme's CSS custom properties in name order.
func cssStyle(cfg *render.ThemeConfig) string {
	vars := cfg.SortedCSSVars()
	if len(vars) == 0 {
		return ""
	}
	strip := strings.NewReplacer(";", "", "\"", "", "<", "", ">", "")
	parts := make([]string, 0, len(vars))
	for _, v := range vars {
		parts = append(parts, v.Name+": "+strings.TrimSpace(strip.Replace(v.Value)))
	}
	return strings.Join(parts, "; ")
}

func joinPath(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, part := range parts {
		out += "/" + strings.Trim(part, "/")
	}
	return out
}
