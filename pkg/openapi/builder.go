package openapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/iancoleman/strcase"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/render"
)

// Version is the OpenAPI version emitted by Build.
const Version = "3.0.3"

// Page is the input to Build.
type Page struct {
	Name    string
	Title   string
	FormAPI crud.FormAPI
	Fields  []normalize.FormField
}

// PageFromProps flattens renderer props into a Page.
func PageFromProps(name, title string, props render.Props) Page {
	return Page{
		Name:    name,
		Title:   title,
		FormAPI: props.FormAPI,
		Fields:  props.Fields(),
	}
}

// Option configures Build.
type Option func(*options)

type options struct {
	version string
	servers []string
}

// WithAPIVersion sets info.version. Defaults to 1.0.0.
func WithAPIVersion(version string) Option {
	return func(o *options) {
		if version = strings.TrimSpace(version); version != "" {
			o.version = version
		}
	}
}

// WithServer adds a server URL. Relative endpoints are resolved against it by
// API clients.
func WithServer(serverURL string) Option {
	return func(o *options) {
		if serverURL = strings.TrimSpace(serverURL); serverURL != "" {
			o.servers = append(o.servers, serverURL)
		}
	}
}

// Build returns a validated OpenAPI document with list, read, create,
// update, and delete operations for the page.
func Build(ctx context.Context, page Page, opts ...Option) (*openapi3.T, error) {
	cfg := options{version: "1.0.0"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	name := strings.TrimSpace(page.Name)
	if name == "" {
		return nil, errors.New("openapi: page name is required")
	}
	if err := page.FormAPI.Validate(); err != nil {
		return nil, fmt.Errorf("openapi: %s: %w", name, err)
	}
	api := page.FormAPI.WithDefaults()

	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = name
	}

	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:   title,
			Version: cfg.version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
	for _, server := range cfg.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: server})
	}

	recordName := strcase.ToCamel(name)
	inputName := recordName + "Input"
	doc.Components.Schemas[recordName] = openapi3.NewSchemaRef("", recordSchema(page.Fields, false))
	doc.Components.Schemas[inputName] = openapi3.NewSchemaRef("", recordSchema(page.Fields, true))
	doc.Components.Schemas["Error"] = openapi3.NewSchemaRef("", errorSchema())

	recordRef := componentRef(doc, recordName)
	inputRef := componentRef(doc, inputName)
	errorRef := componentRef(doc, "Error")
	listRef := openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
		WithProperty("data", openapi3.NewArraySchema().WithItems(recordRef.Value)))

	idParam := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())}

	add := func(method, endpoint string, withID bool, verb, summary string, body *openapi3.SchemaRef, ok int, okSchema *openapi3.SchemaRef) error {
		path, err := endpointPath(endpoint)
		if err != nil {
			return fmt.Errorf("openapi: %s %s: %w", method, endpoint, err)
		}
		if withID {
			path = strings.TrimRight(path, "/") + "/{id}"
		}

		op := openapi3.NewOperation()
		op.OperationID = strcase.ToLowerCamel(verb + " " + name)
		op.Summary = summary
		op.Tags = []string{name}
		if withID {
			op.Parameters = openapi3.Parameters{idParam}
		}
		if body != nil {
			op.RequestBody = &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(body),
			}
		}
		success := openapi3.NewResponse().WithDescription(summary)
		if okSchema != nil {
			success = success.WithJSONSchemaRef(okSchema)
		}
		op.Responses = openapi3.NewResponses(
			openapi3.WithStatus(ok, &openapi3.ResponseRef{Value: success}),
			openapi3.WithStatus(400, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Validation failed").WithJSONSchemaRef(errorRef),
			}),
		)

		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}
		if item.GetOperation(method) != nil {
			return fmt.Errorf("openapi: duplicate operation %s %s", method, path)
		}
		item.SetOperation(method, op)
		return nil
	}

	steps := []error{
		add("GET", api.Read, false, "list", "List "+title, nil, 200, listRef),
		add("GET", api.Read, true, "get", "Read one "+title+" record", nil, 200, recordRef),
		add("POST", api.Create, false, "create", "Create "+title+" records", inputRef, 201, listRef),
		add("PUT", api.Update, true, "update", "Update a "+title+" record", recordRef, 200, recordRef),
		add("DELETE", api.Delete, true, "delete", "Delete a "+title+" record", nil, 204, nil),
	}
	if err := errors.Join(steps...); err != nil {
		return nil, err
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

func componentRef(doc *openapi3.T, name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, doc.Components.Schemas[name].Value)
}

// endpointPath keeps the path of absolute endpoints.
func endpointPath(endpoint string) (string, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return "", crud.ErrNoEndpoint
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", err
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// recordSchema describes one record. Every form field is required. The
// create variant names properties by createKey when one is set.
func recordSchema(fields []normalize.FormField, create bool) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	required := make([]string, 0, len(fields))
	for _, field := range fields {
		key := field.ID
		if create && field.CreateKey != "" {
			key = field.CreateKey
		}
		schema.WithProperty(key, fieldSchema(field))
		required = append(required, key)
	}
	if !create {
		schema.WithProperty("id", openapi3.NewStringSchema())
	}
	sort.Strings(required)
	schema.Required = required
	return schema
}

func fieldSchema(field normalize.FormField) *openapi3.Schema {
	var schema *openapi3.Schema
	switch strings.ToLower(strings.TrimSpace(field.Type)) {
	case "number", "currency", "float":
		schema = openapi3.NewFloat64Schema()
	case "int", "integer":
		schema = openapi3.NewInt64Schema()
	case "date":
		schema = openapi3.NewDateTimeSchema()
		schema.Format = "date"
	case "datetime":
		schema = openapi3.NewDateTimeSchema()
	case "email":
		schema = openapi3.NewStringSchema()
		schema.Format = "email"
	default:
		schema = openapi3.NewStringSchema()
	}

	if len(field.Options) > 0 {
		schema = enumSchema(field)
	}
	schema.Title = field.Label
	schema.Description = field.ErrMsg
	return schema
}

// enumSchema keeps numeric option values numeric and stringifies the rest.
func enumSchema(field normalize.FormField) *openapi3.Schema {
	numeric := true
	for _, option := range field.Options {
		if _, ok := option.Value.(float64); !ok {
			numeric = false
			break
		}
	}

	var schema *openapi3.Schema
	values := make([]any, 0, len(field.Options))
	if numeric {
		schema = openapi3.NewFloat64Schema()
		for _, option := range field.Options {
			values = append(values, option.Value)
		}
	} else {
		schema = openapi3.NewStringSchema()
		for _, option := range field.Options {
			values = append(values, fmt.Sprint(option.Value))
		}
	}
	return schema.WithEnum(values...)
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("errors", openapi3.NewObjectSchema().WithAdditionalProperties(
			openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()),
		))
}
