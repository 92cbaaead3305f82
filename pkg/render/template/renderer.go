package template

import "io"

// TemplateRenderer renders a named template file. It is all the HTML
// renderer needs from an engine, so any engine can be swapped in.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
