package render

import (
	"context"
	"errors"
)

// ErrNotReady is returned by strict callers when props cannot drive a screen
// yet.
var ErrNotReady = errors.New("render: props not ready")

// Renderer turns page props into a byte representation (HTML, terminal
// prompts, and so on).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, props Props, options RenderOptions) ([]byte, error)
}

// Render applies the readiness gate before delegating. Props that are not
// ready produce empty output and no error, and the renderer is never called.
func Render(ctx context.Context, renderer Renderer, props Props, options RenderOptions) ([]byte, error) {
	if !props.Ready() {
		return nil, nil
	}
	if renderer == nil {
		return nil, errors.New("render: renderer is nil")
	}
	props = ApplySubset(props, FieldSubset{Sections: options.Sections})
	if !props.Ready() {
		return nil, nil
	}
	return renderer.Render(ctx, props, options.WithDefaults(props))
}
