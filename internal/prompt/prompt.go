// Package prompt asks the user for missing values on the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrUnavailable is returned by prompters that cannot ask the user.
var ErrUnavailable = errors.New("prompt: no interactive terminal")

// Prompter asks for values and shows progress while work runs.
type Prompter interface {
	Input(ctx context.Context, title, placeholder string) (string, error)
	Secret(ctx context.Context, title string) (string, error)
	Spin(ctx context.Context, title string, action func(context.Context) error) error
}

// Terminal is the huh backed Prompter.
type Terminal struct {
	accessible bool
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithAccessible switches huh to its screen reader friendly mode.
func WithAccessible(enabled bool) TerminalOption {
	return func(t *Terminal) {
		t.accessible = enabled
	}
}

func NewTerminal(opts ...TerminalOption) *Terminal {
	t := &Terminal{}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *Terminal) Input(ctx context.Context, title, placeholder string) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Validate(Required(title)).
		Value(&value)
	if err := t.run(ctx, input); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (t *Terminal) Secret(ctx context.Context, title string) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Validate(Required(title)).
		Value(&value)
	if err := t.run(ctx, input); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Spin runs action behind a spinner and returns its error.
func (t *Terminal) Spin(ctx context.Context, title string, action func(context.Context) error) error {
	var actionErr error
	err := spinner.New().
		Title(title).
		Context(ctx).
		Action(func() {
			actionErr = action(ctx)
		}).
		Run()
	if err != nil {
		return err
	}
	return actionErr
}

func (t *Terminal) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(t.accessible).
		WithTheme(huh.ThemeBase16())
	if err := form.RunWithContext(ctx); err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// Required rejects blank answers.
func Required(label string) func(string) error {
	label = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":"))
	if label == "" {
		label = "value"
	}
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", strings.ToLower(label))
		}
		return nil
	}
}

// Unavailable fails every prompt with ErrUnavailable. Spin still runs the
// action, without a spinner.
type Unavailable struct{}

func (Unavailable) Input(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Secret(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Spin(ctx context.Context, _ string, action func(context.Context) error) error {
	return action(ctx)
}
