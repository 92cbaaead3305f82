package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-crudform/pkg/crud"
)

// Error codes returned in the JSON error envelope.
const (
	CodeNotFound   = "not_found"
	CodeBadRequest = "bad_request"
	CodeBackend    = "backend_error"
	CodeInternal   = "internal_error"
)

// httpError is an error with a client-facing status and message.
type httpError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *httpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("server: %s: %v", e.Message, e.Err)
	}
	return "server: " + e.Message
}

func (e *httpError) Unwrap() error {
	return e.Err
}

func notFound(format string, args ...any) *httpError {
	return &httpError{Status: http.StatusNotFound, Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func badRequest(err error, message string) *httpError {
	return &httpError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message, Err: err}
}

// errorBody builds the {code, message, details} envelope for err. Backend
// 4xx statuses pass through; other backend failures become 502.
func errorBody(err error, requestID string) (int, map[string]any) {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.Status, envelope(httpErr.Code, httpErr.Message, httpErr.Details)
	}

	var apiErr *crud.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		message := apiErr.Message()
		if message == "" {
			message = http.StatusText(apiErr.Status)
		}
		details := map[string]any{"status": apiErr.Status}
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			details["errors"] = fields
		}
		return status, envelope(CodeBackend, message, details)
	}

	return http.StatusInternalServerError, envelope(CodeInternal, "Internal server error", map[string]any{
		"request_id": requestID,
	})
}

func envelope(code, message string, details map[string]any) map[string]any {
	return map[string]any{
		"code":    code,
		"message": message,
		"details": details,
	}
}
