package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Reserved field keys that never become form inputs.
const (
	KeyAction = "action"
	KeyID     = "id"
)

// RawSchema is the backend-owned description of one document type: sections
// keyed by name, kept in the order the payload declared them.
type RawSchema struct {
	Sections []Section
}

// Section groups fields under a display title.
type Section struct {
	Key    string     `json:"-"`
	Title  string     `json:"title,omitempty"`
	Fields []RawField `json:"fields"`
}

// RawField is one field definition as served by the backend.
type RawField struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Type      string   `json:"type,omitempty"`
	Options   []Option `json:"options,omitzero"`
	InTable   Flag     `json:"inTable,omitempty"`
	IsForm    Flag     `json:"isForm,omitempty"`
	IsPrint   Flag     `json:"isPrint,omitempty"`
	ReadAPI   string   `json:"readApi,omitempty"`
	UpdateAPI string   `json:"updateApi,omitempty"`
	APIKey    string   `json:"apiKey,omitempty"`
	CreateKey string   `json:"createKey,omitempty"`
}

// Option is a dropdown choice.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Flag is a visibility toggle. Only a literal JSON true sets it; every other
// value decodes to false without failing.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag(bytes.Equal(bytes.TrimSpace(data), []byte("true")))
	return nil
}

// Empty reports whether the schema declares no sections.
func (s RawSchema) Empty() bool {
	return len(s.Sections) == 0
}

// Keys returns the section keys in declaration order.
func (s RawSchema) Keys() []string {
	keys := make([]string, 0, len(s.Sections))
	for _, section := range s.Sections {
		keys = append(keys, section.Key)
	}
	return keys
}

// Section looks up a section by key.
func (s RawSchema) Section(key string) (Section, bool) {
	for _, section := range s.Sections {
		if section.Key == key {
			return section, true
		}
	}
	return Section{}, false
}

// UnmarshalJSON decodes a JSON object into ordered sections. A repeated key
// replaces the earlier section in place.
func (s *RawSchema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("schema: read payload: %w", err)
	}
	if tok == nil {
		*s = RawSchema{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("schema: payload must be a JSON object")
	}

	sections := make([]Section, 0)
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("schema: read section key: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("schema: section %q: %w", key, err)
		}
		section := Section{Key: key}
		if err := json.Unmarshal(raw, &section); err != nil {
			return fmt.Errorf("schema: section %q: %w", key, err)
		}
		section.Key = key

		if pos, dup := index[key]; dup {
			sections[pos] = section
			continue
		}
		index[key] = len(sections)
		sections = append(sections, section)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("schema: read payload: %w", err)
	}

	s.Sections = sections
	return nil
}

// MarshalJSON encodes the sections back into an object, preserving order.
func (s RawSchema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, section := range s.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(section.Key)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(section)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON tolerates null sections and missing field lists.
func (s *Section) UnmarshalJSON(data []byte) error {
	key := s.Key
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Section{Key: key, Fields: []RawField{}}
		return nil
	}

	type sectionAlias struct {
		Title  string     `json:"title"`
		Fields []RawField `json:"fields"`
	}
	var alias sectionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	if alias.Fields == nil {
		alias.Fields = []RawField{}
	}
	*s = Section{Key: key, Title: alias.Title, Fields: alias.Fields}
	return nil
}

// DisplayTitle returns the section title, falling back to its key when the
// title is absent or empty. A whitespace title is kept as sent.
func (s Section) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Key
}

// IsDropdown reports whether the field type names a dropdown variant.
func (f RawField) IsDropdown() bool {
	return f.Type != "" && strings.Contains(f.Type, "dropdown")
}

// HasOptions reports whether the backend supplied an options list, even an
// empty one.
func (f RawField) HasOptions() bool {
	return f.Options != nil
}

// Reserved reports whether the field key is excluded from forms.
func (f RawField) Reserved() bool {
	return f.Key == KeyAction || f.Key == KeyID
}
