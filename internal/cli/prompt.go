// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// Choice is one option of a selection prompt.
type Choice struct {
	Label string
	Value string
}

// Prompter asks the user for missing input.
type Prompter interface {
	Input(title string, secret bool) (string, error)
	Select(title string, choices []Choice) (string, error)
	Confirm(title string) (bool, error)
}

// FormPrompter renders prompts as interactive forms.
type FormPrompter struct{}

// Input implements [Prompter].
func (FormPrompter) Input(title string, secret bool) (string, error) {
	var value string

	input := huh.NewInput().
		Title(title).
		Value(&value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("required")
			}
			return nil
		})
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}

	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return strings.TrimSpace(value), nil
}

// Select implements [Prompter].
func (FormPrompter) Select(title string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("no options to choose from")
	}

	options := make([]huh.Option[string], len(choices))
	for i, choice := range choices {
		options[i] = huh.NewOption(choice.Label, choice.Value)
	}

	var selected string
	field := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&selected)

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}

// Confirm implements [Prompter].
func (FormPrompter) Confirm(title string) (bool, error) {
	var confirmed bool

	field := huh.NewConfirm().
		Title(title).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// IsInteractive returns true if stdin is a terminal (not piped).
func IsInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// # Helpers

// ask fills *value by prompting when it is empty. flag names the flag that
// supplies the value non-interactively.
func (c *console) ask(value *string, flag, title string, secret bool) error {
	if *value != "" {
		return nil
	}
	if c.env.Prompter == nil {
		return fmt.Errorf("missing --%s", flag)
	}

	answer, err := c.env.Prompter.Input(title, secret)
	if err != nil {
		return err
	}
	*value = answer
	return nil
}

// confirm asks before a destructive action unless skip is set.
func (c *console) confirm(skip bool, title string) error {
	if skip {
		return nil
	}
	if c.env.Prompter == nil {
		return errors.New("refusing to continue without confirmation, pass --yes")
	}

	ok, err := c.env.Prompter.Confirm(title)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("cancelled")
	}
	return nil
}
