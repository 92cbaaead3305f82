package testsupport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/schema"
)

// LoadSchema reads a schema fixture (optionally wrapped in a data envelope).
// Testing helpers fail the test on error to keep contract tests concise.
func LoadSchema(t *testing.T, path string) schema.RawSchema {
	t.Helper()

	raw, err := LoadSchemaFromPath(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return raw
}

// LoadSchemaFromPath decodes a schema fixture without requiring testing.T so
// callers can wire fixtures in setup functions.
func LoadSchemaFromPath(path string) (schema.RawSchema, error) {
	if path == "" {
		return schema.RawSchema{}, errors.New("testsupport: schema path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.RawSchema{}, fmt.Errorf("testsupport: read schema: %w", err)
	}
	doc, err := schema.NewDocument(schema.SourceFromFile(path), data)
	if err != nil {
		return schema.RawSchema{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc.Schema()
}

// MustLoadResult loads a JSON golden file into a normalize.Result.
func MustLoadResult(t *testing.T, path string) normalize.Result {
	t.Helper()

	data := MustReadGolden(t, path)
	var out normalize.Result
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal golden: %v", err)
	}
	return out
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ. Nil and empty
// slices compare equal since goldens cannot tell them apart.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got, cmpopts.EquateEmpty())
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// CaptureOutput executes a function that writes to an io.Writer and returns
// both its string result and what it wrote.
func CaptureOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	return out, buf.String()
}
