package components

import (
	"bytes"
	"fmt"
	"strings"
)

const templatePrefix = "templates/components/"

// Control is the view of one form field handed to component templates.
// Label is sanitized markup; everything else is escaped by the template.
type Control struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Type      string   `json:"type"`
	InputType string   `json:"inputType"`
	ClassName string   `json:"className"`
	Value     string   `json:"value"`
	ErrMsg    string   `json:"errMsg"`
	Errors    []string `json:"errors"`
	Options   []Choice `json:"options"`
	HasLabel  bool     `json:"hasLabel"`
	ReadAPI   string   `json:"readApi"`
	UpdateAPI string   `json:"updateApi"`
	APIKey    string   `json:"apiKey"`
}

// Choice is one dropdown option.
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// NewDefaultRegistry returns a registry with the built-in components.
func NewDefaultRegistry() *Registry {
	registry := New()
	registry.MustRegister(NameInput, Descriptor{
		Renderer: templateComponentRenderer("forms.input", templatePrefix+"input.tmpl"),
	})
	registry.MustRegister(NameTextarea, Descriptor{
		Renderer: templateComponentRenderer("forms.textarea", templatePrefix+"textarea.tmpl"),
	})
	registry.MustRegister(NameSelect, Descriptor{
		Renderer: templateComponentRenderer("forms.select", templatePrefix+"select.tmpl"),
	})
	return registry
}

// Resolve picks the component for a schema field type. Dropdown variants map
// to select, long text types to textarea, everything else to input.
func Resolve(fieldType string) string {
	lower := strings.ToLower(strings.TrimSpace(fieldType))
	switch {
	case strings.Contains(lower, "dropdown"):
		return NameSelect
	case lower == "textarea" || lower == "longtext" || lower == "text-editor":
		return NameTextarea
	default:
		return NameInput
	}
}

// InputType maps a schema field type onto an HTML input type.
func InputType(fieldType string) string {
	switch strings.ToLower(strings.TrimSpace(fieldType)) {
	case "number", "currency", "float", "int", "integer":
		return "number"
	case "date":
		return "date"
	case "datetime":
		return "datetime-local"
	case "time":
		return "time"
	case "email":
		return "email"
	case "password":
		return "password"
	case "phone", "tel":
		return "tel"
	default:
		return "text"
	}
}

func templateComponentRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, control Control, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolved := templateName
		if candidate := strings.TrimSpace(data.Partials[partialKey]); candidate != "" {
			resolved = candidate
		}

		rendered, err := data.Template.RenderTemplate(resolved, map[string]any{
			"control": control,
		})
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", resolved, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}
