package schema

import "errors"

// Document is one fetched payload paired with the source it came from.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw so later writes by the caller do not leak in.
func NewDocument(src Source, raw []byte) (Document, error) {
	switch {
	case src == nil:
		return Document{}, errors.New("schema: source is required")
	case len(raw) == 0:
		return Document{}, errors.New("schema: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// Source reports where the payload was read from.
func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

// Location is the source location, or "" for a zero Document.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Schema decodes the payload, unwrapping the response envelope.
func (d Document) Schema() (RawSchema, error) {
	return Decode(d.raw)
}
