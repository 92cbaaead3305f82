package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// FieldKind selects the control a field answer is read with.
type FieldKind int

const (
	// KindText reads a single line.
	KindText FieldKind = iota
	// KindSecret reads a single line without echo and never shows a default.
	KindSecret
	// KindMultiline reads free text until the editor is closed.
	KindMultiline
)

// kindOf maps a schema field type onto the control used to answer it.
func kindOf(fieldType string) FieldKind {
	switch strings.ToLower(fieldType) {
	case "password":
		return KindSecret
	case "textarea", "longtext", "text-editor":
		return KindMultiline
	default:
		return KindText
	}
}

// FieldPrompt asks for the value of one form field.
type FieldPrompt struct {
	Kind      FieldKind
	Label     string
	Default   string
	Help      string
	Validator func(string) error
}

// ChoicePrompt asks the user to pick one option label.
type ChoicePrompt struct {
	Label        string
	Options      []string
	DefaultIndex int
	Help         string
}

// RowPrompt asks whether another row should be added to a multiple-entry
// form. Row counts the rows already entered; Max is the cap.
type RowPrompt struct {
	Row int
	Max int
}

// Remaining reports how many more rows fit under the cap.
func (p RowPrompt) Remaining() int {
	if p.Max <= p.Row {
		return 0
	}
	return p.Max - p.Row
}

// PromptDriver is the terminal the renderer talks to. Tests script it and
// callers may replace the survey implementation.
type PromptDriver interface {
	Field(ctx context.Context, p FieldPrompt) (string, error)
	Choose(ctx context.Context, p ChoicePrompt) (int, error)
	AnotherRow(ctx context.Context, p RowPrompt) (bool, error)
	Notice(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out  io.Writer
	opts []survey.AskOpt
}

// NewSurveyDriver returns the interactive driver. Notices go to out, or
// stdout when out is nil. When out is a terminal file the prompts are drawn
// on it too, so stdout stays free for rendered output.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	d := &surveyDriver{out: out}
	if file, ok := out.(terminal.FileWriter); ok {
		d.opts = append(d.opts, survey.WithStdio(os.Stdin, file, out))
	}
	return d
}

func (d *surveyDriver) Field(ctx context.Context, p FieldPrompt) (string, error) {
	var answer string
	opts := d.opts
	switch {
	case p.Validator != nil:
		opts = append(opts[:len(opts):len(opts)], survey.WithValidator(func(ans any) error {
			value, _ := ans.(string)
			return p.Validator(value)
		}))
	case p.Kind == KindMultiline:
		opts = append(opts[:len(opts):len(opts)], survey.WithValidator(survey.Required))
	}
	if err := d.ask(ctx, fieldPrompt(p), &answer, opts); err != nil {
		return "", err
	}
	return answer, nil
}

func (d *surveyDriver) Choose(ctx context.Context, p ChoicePrompt) (int, error) {
	var answer string
	prompt := &survey.Select{
		Message: p.Label,
		Options: p.Options,
		Help:    p.Help,
	}
	if p.DefaultIndex >= 0 && p.DefaultIndex < len(p.Options) {
		prompt.Default = p.Options[p.DefaultIndex]
	}
	if err := d.ask(ctx, prompt, &answer, d.opts); err != nil {
		return 0, err
	}
	return indexOf(p.Options, answer), nil
}

func (d *surveyDriver) AnotherRow(ctx context.Context, p RowPrompt) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{Message: rowMessage(p)}
	if err := d.ask(ctx, prompt, &answer, d.opts); err != nil {
		return false, err
	}
	return answer, nil
}

func (d *surveyDriver) Notice(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func (d *surveyDriver) ask(ctx context.Context, prompt survey.Prompt, answer any, opts []survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := survey.AskOne(prompt, answer, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrAborted
		}
		return err
	}
	return nil
}

// fieldPrompt builds the survey control for a field answer.
func fieldPrompt(p FieldPrompt) survey.Prompt {
	switch p.Kind {
	case KindSecret:
		return &survey.Password{Message: p.Label, Help: p.Help}
	case KindMultiline:
		return &survey.Multiline{Message: p.Label, Help: p.Help, Default: p.Default}
	default:
		return &survey.Input{Message: p.Label, Help: p.Help, Default: p.Default}
	}
}

func rowMessage(p RowPrompt) string {
	if p.Max <= 0 {
		return "Add another row?"
	}
	return fmt.Sprintf("Add another row? (%d of %d entered)", p.Row, p.Max)
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
