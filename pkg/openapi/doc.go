// Package openapi describes a page's CRUD endpoints as an OpenAPI 3 document.
// The record schema comes from the normalized form fields; dropdown options
// become enums.
package openapi
