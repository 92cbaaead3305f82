package tui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// State accumulates answers keyed by input name (field id, or rows[i].<id>
// in multiple-entry mode) alongside any prefilled errors.
type State struct {
	prefill map[string]any
	errors  map[string][]string
	answers url.Values
}

// NewState seeds the session with prefill values and errors.
func NewState(prefill map[string]any, errs map[string][]string) *State {
	return &State{
		prefill: prefill,
		errors:  errs,
		answers: url.Values{},
	}
}

// Default returns the prefilled value for key as text.
func (s *State) Default(key string) string {
	if value, ok := s.answers[key]; ok && len(value) > 0 {
		return value[0]
	}
	value, ok := s.prefill[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// ErrorsFor returns the prefilled errors for key.
func (s *State) ErrorsFor(key string) []string {
	return s.errors[key]
}

// Set records an answer.
func (s *State) Set(key, value string) {
	s.answers.Set(key, strings.TrimSpace(value))
}

// Answers returns a copy of the collected answers.
func (s *State) Answers() url.Values {
	out := make(url.Values, len(s.answers))
	for key, values := range s.answers {
		out[key] = append([]string(nil), values...)
	}
	return out
}
