package crudform

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-crudform/pkg/openapi"
)

// LoadOpenAPI parses and validates an exported OpenAPI document.
func LoadOpenAPI(ctx context.Context, data []byte) (*openapi3.T, error) {
	return openapi.Load(ctx, data)
}

// Operations lists the operations of a loaded document in path order.
func Operations(doc *openapi3.T) []openapi.Operation {
	return openapi.Operations(doc)
}
