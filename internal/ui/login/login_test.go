// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/relaychat-tui/internal/api"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

type fakeAuth struct {
	calls int
	user  string
	pass  string
	err   error
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*api.TokenPair, error) {
	f.calls++
	f.user, f.pass = username, password
	if f.err != nil {
		return nil, f.err
	}
	return &api.TokenPair{Access: "access", Refresh: "refresh"}, nil
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: k})
}

// findMsg runs cmd and any batched children, returning the first message of
// type T.
func findMsg[T any](cmd tea.Cmd) (T, bool) {
	var zero T
	if cmd == nil {
		return zero, false
	}
	switch msg := cmd().(type) {
	case T:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if got, ok := findMsg[T](c); ok {
				return got, true
			}
		}
	}
	return zero, false
}

func newModel(auth Authenticator) Model {
	return New(styles.NewTheme("dark"), auth, 0)
}

func TestLogin_RequiredFieldsNoNetwork(t *testing.T) {
	auth := &fakeAuth{}
	m := newModel(auth)

	m.focus = fieldPassword
	m.password.Focus()
	m, cmd := press(m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, 0, auth.calls)
	assert.False(t, m.Loading())
	assert.Contains(t, m.View(), ErrRequired.Error())
	assert.Equal(t, fieldUsername, m.focus)
}

func TestLogin_EnterOnUsernameMovesToPassword(t *testing.T) {
	m := newModel(&fakeAuth{})
	m = typeText(m, "amy")
	m, cmd := press(m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, fieldPassword, m.focus)
}

func TestLogin_Success(t *testing.T) {
	auth := &fakeAuth{}
	m := newModel(auth)

	m = typeText(m, "amy")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "s3cret")
	m, cmd := press(m, tea.KeyEnter)

	require.True(t, m.Loading())
	assert.Contains(t, m.View(), "Signing in")

	ok, found := findMsg[SucceededMsg](cmd)
	require.True(t, found)
	assert.Equal(t, "amy", ok.Username)
	assert.Equal(t, "access", ok.Tokens.Access)
	assert.Equal(t, "amy", auth.user)
	assert.Equal(t, "s3cret", auth.pass)

	m, _ = m.Update(ok)
	assert.False(t, m.Loading())
}

func TestLogin_FailureKeepsFormEditable(t *testing.T) {
	auth := &fakeAuth{err: fmt.Errorf("login: %w", api.ErrUnauthorized)}
	m := newModel(auth)

	m = typeText(m, "amy")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "wrong")
	m, cmd := press(m, tea.KeyEnter)

	failed, found := findMsg[FailedMsg](cmd)
	require.True(t, found)
	m, _ = m.Update(failed)

	assert.False(t, m.Loading())
	assert.Contains(t, m.View(), "Invalid username or password")

	m = typeText(m, "!")
	assert.Equal(t, "wrong!", m.password.Value())
}

func TestLogin_KeysIgnoredWhileLoading(t *testing.T) {
	m := newModel(&fakeAuth{})
	m.loading = true
	m = typeText(m, "x")
	assert.Equal(t, "", m.username.Value())
}

func TestLogin_PasswordMasked(t *testing.T) {
	m := newModel(&fakeAuth{})
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "hunter2")
	assert.NotContains(t, m.View(), "hunter2")
}

func TestLogin_PrefillAndReset(t *testing.T) {
	m := newModel(&fakeAuth{})
	m.Prefill("amy")
	assert.Equal(t, fieldPassword, m.focus)

	m = typeText(m, "pw")
	m.err = "boom"
	m.Reset()
	assert.Equal(t, "amy", m.username.Value())
	assert.Equal(t, "", m.password.Value())
	assert.Equal(t, fieldUsername, m.focus)
	assert.False(t, strings.Contains(m.View(), "boom"))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{api.ErrUnauthorized, "Invalid username or password"},
		{fmt.Errorf("wrapped: %w", api.ErrNetwork), "Unable to reach the server"},
		{api.ErrTimeout, "Unable to reach the server"},
		{errors.New("other"), "Login failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.err))
	}
}
