package crud

import (
	"errors"
	"strings"
)

// ErrNoEndpoint is returned when an operation's endpoint is not configured.
var ErrNoEndpoint = errors.New("crud: endpoint not configured")

// ErrUnexpectedShape is returned when a response body is neither a record, a
// list of records nor a data envelope holding one.
var ErrUnexpectedShape = errors.New("crud: unexpected response shape")

// FormAPI holds the four CRUD endpoints of one document type. Entries are
// plain paths resolved by the shared transport.
type FormAPI struct {
	Create string `json:"create" yaml:"create"`
	Read   string `json:"read" yaml:"read"`
	Update string `json:"update" yaml:"update"`
	Delete string `json:"delete" yaml:"delete"`
}

// Validate requires the read endpoint. The error lists every missing entry.
func (f FormAPI) Validate() error {
	if strings.TrimSpace(f.Read) != "" {
		return nil
	}
	return errors.New("crud: read endpoint is required (missing: " + strings.Join(f.Missing(), ", ") + ")")
}

// Missing returns the names of unset endpoints in create/read/update/delete
// order.
func (f FormAPI) Missing() []string {
	var out []string
	for _, entry := range []struct {
		name  string
		value string
	}{
		{"create", f.Create},
		{"read", f.Read},
		{"update", f.Update},
		{"delete", f.Delete},
	} {
		if strings.TrimSpace(entry.value) == "" {
			out = append(out, entry.name)
		}
	}
	return out
}

// WithDefaults fills unset create/update/delete endpoints from read, which is
// how most backends expose a single collection resource.
func (f FormAPI) WithDefaults() FormAPI {
	if f.Create == "" {
		f.Create = f.Read
	}
	if f.Update == "" {
		f.Update = f.Read
	}
	if f.Delete == "" {
		f.Delete = f.Read
	}
	return f
}
