package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/render"
)

// Renderer collects records for a page from terminal prompts. Render
// serializes them; Fill hands them back for crud.Client.Create.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	maxRows           int
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		maxRows:      DefaultMaxRows,
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every form field and serializes the answers.
func (r *Renderer) Render(ctx context.Context, props render.Props, opts render.RenderOptions) ([]byte, error) {
	if !props.Ready() {
		return nil, nil
	}
	answers, records, err := r.collect(ctx, props, opts)
	if err != nil {
		return nil, err
	}

	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(answers.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(records)), nil
	default:
		var payload any = records
		if !props.MultipleEntry && len(records) == 1 {
			payload = records[0]
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode records: %w", err)
		}
		return data, nil
	}
}

// Fill prompts for every form field and returns the records keyed for the
// create endpoint. Props that are not ready yield no records.
func (r *Renderer) Fill(ctx context.Context, props render.Props, opts render.RenderOptions) ([]crud.Record, error) {
	if !props.Ready() {
		return nil, nil
	}
	_, records, err := r.collect(ctx, props, opts)
	return records, err
}

func (r *Renderer) collect(ctx context.Context, props render.Props, opts render.RenderOptions) (url.Values, []crud.Record, error) {
	if ctx == nil {
		return nil, nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if r.driver == nil {
		return nil, nil, errors.New("tui: prompt driver is nil")
	}

	opts = opts.WithDefaults(props)
	state := NewState(opts.Values, opts.Errors)

	if title := strings.TrimSpace(props.FormName); title != "" {
		if err := r.driver.Notice(ctx, r.theme.InfoPrefix+title); err != nil {
			return nil, nil, err
		}
	}
	for _, message := range opts.FormErrors {
		if err := r.driver.Notice(ctx, r.theme.ErrorPrefix+message); err != nil {
			return nil, nil, err
		}
	}

	if props.MultipleEntry {
		if err := r.promptRows(ctx, props, state); err != nil {
			return nil, nil, err
		}
	} else {
		for _, field := range props.Fields() {
			if err := r.promptField(ctx, field, field.ID, state); err != nil {
				return nil, nil, err
			}
		}
	}

	answers := state.Answers()
	submission := render.ParseSubmission(props, answers)
	if !submission.Valid() {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalid, describeErrors(submission))
	}

	records := submission.CreateRecords()
	if r.submitTransformer != nil {
		var err error
		records, err = r.submitTransformer(records)
		if err != nil {
			return nil, nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return answers, records, nil
}

func (r *Renderer) promptRows(ctx context.Context, props render.Props, state *State) error {
	fields := props.Fields()
	for row := 0; ; row++ {
		if err := r.driver.Notice(ctx, fmt.Sprintf("%sRow %d", r.theme.InfoPrefix, row+1)); err != nil {
			return err
		}
		for _, field := range fields {
			if err := r.promptField(ctx, field, render.RowKey(row, field.ID), state); err != nil {
				return err
			}
		}
		next := RowPrompt{Row: row + 1, Max: r.maxRows}
		if next.Remaining() == 0 {
			return nil
		}
		more, err := r.driver.AnotherRow(ctx, next)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (r *Renderer) promptField(ctx context.Context, field normalize.FormField, key string, state *State) error {
	for _, message := range state.ErrorsFor(key) {
		if err := r.driver.Notice(ctx, r.theme.ErrorPrefix+message); err != nil {
			return err
		}
	}

	if len(field.Options) > 0 {
		return r.promptSelect(ctx, field, key, state)
	}

	prompt := FieldPrompt{Kind: kindOf(field.Type), Label: field.Label, Help: field.ErrMsg}
	if prompt.Kind != KindSecret {
		prompt.Default = state.Default(key)
	}
	if prompt.Kind != KindMultiline {
		prompt.Validator = requiredValidator(field)
		value, err := r.driver.Field(ctx, prompt)
		if err != nil {
			return err
		}
		state.Set(key, value)
		return nil
	}

	// Blank multiline answers are re-asked.
	for {
		value, err := r.driver.Field(ctx, prompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(value) != "" {
			state.Set(key, value)
			return nil
		}
		if err := r.driver.Notice(ctx, r.theme.ErrorPrefix+field.ErrMsg); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptSelect(ctx context.Context, field normalize.FormField, key string, state *State) error {
	labels := make([]string, 0, len(field.Options))
	values := make([]string, 0, len(field.Options))
	for _, option := range field.Options {
		labels = append(labels, option.Label)
		values = append(values, fmt.Sprint(option.Value))
	}

	index, err := r.driver.Choose(ctx, ChoicePrompt{
		Label:        field.Label,
		Options:      labels,
		DefaultIndex: indexOf(values, state.Default(key)),
		Help:         field.ErrMsg,
	})
	if err != nil {
		return err
	}
	if index < 0 || index >= len(values) {
		return fmt.Errorf("tui: %s: selection out of range", field.ID)
	}
	state.Set(key, values[index])
	return nil
}

// requiredValidator enforces the required rule and numeric input for number
// typed fields.
func requiredValidator(field normalize.FormField) func(string) error {
	numeric := isNumeric(field.Type)
	return func(value string) error {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return errors.New(field.ErrMsg)
		}
		if numeric {
			if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
				return fmt.Errorf("%s must be a number", field.Label)
			}
		}
		return nil
	}
}

func isNumeric(fieldType string) bool {
	switch strings.ToLower(strings.TrimSpace(fieldType)) {
	case "number", "currency", "float", "int", "integer":
		return true
	}
	return false
}

func describeErrors(sub render.Submission) string {
	messages := append([]string(nil), sub.FormErrors...)
	keys := make([]string, 0, len(sub.Errors))
	for key := range sub.Errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		messages = append(messages, key+": "+strings.Join(sub.Errors[key], ", "))
	}
	return strings.Join(messages, "; ")
}

func prettyPrint(records []crud.Record) string {
	var b strings.Builder
	for i, record := range records {
		if len(records) > 1 {
			fmt.Fprintf(&b, "# row %d\n", i+1)
		}
		keys := make([]string, 0, len(record))
		for key := range record {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "%s: %v\n", key, record[key])
		}
	}
	return b.String()
}
