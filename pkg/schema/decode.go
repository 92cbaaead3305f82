package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// EnvelopeKey is the response member that wraps the schema on config
// endpoints.
const EnvelopeKey = "data"

// Decode parses a config endpoint body. When the body is an object whose
// "data" member is an object (or null), that member is the schema; otherwise
// the whole body is. Empty bodies and null payloads decode to the empty
// schema.
func Decode(raw []byte) (RawSchema, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return RawSchema{}, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return RawSchema{}, errors.New("schema: malformed JSON payload")
	}

	root := gjson.ParseBytes(trimmed)
	if root.Type == gjson.Null {
		return RawSchema{}, nil
	}
	if !root.IsObject() {
		return RawSchema{}, errors.New("schema: payload must be a JSON object")
	}

	body := trimmed
	if envelope := root.Get(EnvelopeKey); envelope.Exists() {
		switch {
		case envelope.Type == gjson.Null:
			return RawSchema{}, nil
		case envelope.IsObject():
			body = []byte(envelope.Raw)
		}
	}

	var out RawSchema
	if err := json.Unmarshal(body, &out); err != nil {
		return RawSchema{}, fmt.Errorf("schema: decode: %w", err)
	}
	return out, nil
}

// MustDecode panics when the payload cannot be decoded. Useful for tests.
func MustDecode(raw []byte) RawSchema {
	out, err := Decode(raw)
	if err != nil {
		panic(err)
	}
	return out
}
