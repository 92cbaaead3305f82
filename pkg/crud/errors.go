package crud

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Method string
	URL    string
	Status int
	Body   []byte
}

// Error implements error.
func (e *APIError) Error() string {
	msg := e.Message()
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("crud: %s %s: %d %s", e.Method, e.URL, e.Status, msg)
}

// Message returns the backend's top-level message, if any.
func (e *APIError) Message() string {
	if e == nil || !gjson.ValidBytes(e.Body) {
		return ""
	}
	for _, path := range []string{"message", "error", "exception"} {
		if value := gjson.GetBytes(e.Body, path); value.Type == gjson.String {
			if msg := strings.TrimSpace(value.String()); msg != "" {
				return msg
			}
		}
	}
	return ""
}

// FieldErrors extracts {"errors": {field: [msg] | msg}} payloads. Unknown
// shapes yield nil.
func (e *APIError) FieldErrors() map[string][]string {
	if e == nil || !gjson.ValidBytes(e.Body) {
		return nil
	}
	errs := gjson.GetBytes(e.Body, "errors")
	if !errs.IsObject() {
		return nil
	}
	out := make(map[string][]string)
	errs.ForEach(func(key, value gjson.Result) bool {
		field := key.String()
		switch {
		case value.IsArray():
			for _, item := range value.Array() {
				out[field] = append(out[field], item.String())
			}
		case value.Type == gjson.String:
			out[field] = append(out[field], value.String())
		}
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// IsValidation reports a 400 or 422 response.
func (e *APIError) IsValidation() bool {
	return e != nil && (e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity)
}
