// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	"github.com/peterh/liner"
)

// ErrCancelled is returned when the user aborts a prompt with ctrl+c.
var ErrCancelled = errors.New("cancelled")

// Prompter reads interactive input.
type Prompter interface {
	Prompt(prompt string) (string, error)
	// PasswordPrompt reads a line without echoing it.
	PasswordPrompt(prompt string) (string, error)
	Close() error
}

// linerPrompter reads from the terminal with line editing.
type linerPrompter struct {
	line *liner.State
}

// NewLinerPrompter puts the terminal into line-editing mode. Close restores
// it.
func NewLinerPrompter() Prompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &linerPrompter{line: line}
}

func (p *linerPrompter) Prompt(prompt string) (string, error) {
	s, err := p.line.Prompt(prompt)
	return s, promptErr(err)
}

func (p *linerPrompter) PasswordPrompt(prompt string) (string, error) {
	s, err := p.line.PasswordPrompt(prompt)
	return s, promptErr(err)
}

func (p *linerPrompter) Close() error {
	return p.line.Close()
}

func promptErr(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return ErrCancelled
	}
	return err
}
