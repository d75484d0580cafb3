// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/relaychat-tui/internal/api"
	"github.com/jeranaias/relaychat-tui/internal/config"
	"github.com/jeranaias/relaychat-tui/internal/identity"
	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/storage"
)

// =============================================================================
// FAKES
// =============================================================================

type fakePrompter struct {
	answers   []string
	password  string
	prompts   []string
	passwords int
	err       error
}

func (p *fakePrompter) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	if len(p.answers) == 0 {
		return "", nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *fakePrompter) PasswordPrompt(string) (string, error) {
	p.passwords++
	if p.err != nil {
		return "", p.err
	}
	return p.password, nil
}

func (p *fakePrompter) Close() error { return nil }

type fakeBackend struct {
	users    []model.Peer
	listErr  error
	logins   []string
	profiles int
	password string
	identity model.Identity
}

func (b *fakeBackend) Login(_ context.Context, username, password string) (*api.TokenPair, error) {
	b.logins = append(b.logins, username)
	if password != b.password {
		return nil, &api.ClientError{Type: api.ErrTypeUnauthorized, Message: "invalid credentials", StatusCode: 401}
	}
	return &api.TokenPair{Access: "token-" + username, Refresh: "refresh-" + username}, nil
}

func (b *fakeBackend) Profile(_ context.Context, access string) (*model.Identity, error) {
	b.profiles++
	if access != "token-"+b.identity.Username {
		return nil, &api.ClientError{Type: api.ErrTypeUnauthorized, Message: "credential rejected", StatusCode: 401}
	}
	id := b.identity
	return &id, nil
}

func (b *fakeBackend) ListUsers(context.Context) ([]model.Peer, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.users, nil
}

type testEnv struct {
	*Env
	out     *bytes.Buffer
	backend *fakeBackend
	prompt  *fakePrompter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	backend := &fakeBackend{
		password: "hunter2",
		identity: model.Identity{UserID: 7, Username: "amy", Email: "amy@example.com"},
		users: []model.Peer{
			{ID: 7, Username: "amy"},
			{ID: 8, Username: "bob"},
			{ID: 9, Username: "cat"},
		},
	}
	cache := identity.New(backend, identity.Config{})
	t.Cleanup(cache.Close)

	out := &bytes.Buffer{}
	prompt := &fakePrompter{}
	return &testEnv{
		Env: &Env{
			Config:      config.Default(),
			ConfigPath:  filepath.Join(dir, "config.toml"),
			Backend:     backend,
			Credentials: storage.NewCredentialStore(filepath.Join(dir, "credentials.json")),
			Identity:    cache,
			Prompter:    prompt,
			Out:         out,
		},
		out:     out,
		backend: backend,
		prompt:  prompt,
	}
}

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, e.Credentials.Save(&storage.Credentials{Access: "token-amy", Username: "amy"}))
}

// =============================================================================
// PARSING
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		argv []string
		cmd  Command
		want func(t *testing.T, a Args)
	}{
		{argv: nil, cmd: CmdTUI},
		{argv: []string{"--server", "https://relay.example.com"}, cmd: CmdTUI, want: func(t *testing.T, a Args) {
			assert.Equal(t, "https://relay.example.com", a.Server)
		}},
		{argv: []string{"login", "--username", "amy"}, cmd: CmdLogin, want: func(t *testing.T, a Args) {
			assert.Equal(t, "amy", a.Username)
		}},
		{argv: []string{"login", "-u", "amy"}, cmd: CmdLogin, want: func(t *testing.T, a Args) {
			assert.Equal(t, "amy", a.Username)
		}},
		{argv: []string{"login", "amy"}, cmd: CmdLogin, want: func(t *testing.T, a Args) {
			assert.Equal(t, "amy", a.Username)
		}},
		{argv: []string{"-v", "whoami", "--json"}, cmd: CmdWhoami, want: func(t *testing.T, a Args) {
			assert.True(t, a.Verbose)
			assert.True(t, a.JSON)
		}},
		{argv: []string{"peers"}, cmd: CmdUsers},
		{argv: []string{"config", "set", "ui.theme", "light"}, cmd: CmdConfig, want: func(t *testing.T, a Args) {
			assert.Equal(t, "set", a.Subcommand)
			assert.Equal(t, "ui.theme", a.ConfigKey)
			assert.Equal(t, "light", a.ConfigVal)
		}},
		{argv: []string{"--config=/tmp/x.toml", "version"}, cmd: CmdVersion, want: func(t *testing.T, a Args) {
			assert.Equal(t, "/tmp/x.toml", a.ConfigPath)
		}},
		{argv: []string{"frobnicate"}, cmd: CmdHelp, want: func(t *testing.T, a Args) {
			assert.Equal(t, "frobnicate", a.Unknown)
		}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.argv), func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			assert.Equal(t, tt.cmd, cmd)
			if tt.want != nil {
				tt.want(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"set", "--json", "ui.theme", "--mode=fast", "-n", "3", "--", "--literal"}, "json")

	assert.Equal(t, "set", p.Subcommand())
	assert.Equal(t, "ui.theme", p.Positional(1))
	assert.Equal(t, "--literal", p.Positional(2))
	assert.Equal(t, 3, p.PositionalCount())
	assert.Equal(t, "", p.Positional(9))
	assert.True(t, p.BoolFlag("json"))
	assert.Equal(t, "fast", p.Flag("mode"))
	assert.Equal(t, "3", p.Flag("-n"))
	assert.Equal(t, "def", p.FlagOrDefault("missing", "def"))
	assert.True(t, p.HasFlag("mode"))
	assert.False(t, p.HasFlag("missing"))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"true", "YES", "y", "1", "on"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.True(t, b, s)
	}
	for _, s := range []string{"false", "No", "n", "0", "off"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.False(t, b, s)
	}
	_, err := ParseBoolString("maybe")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestLoginPromptsAndSaves(t *testing.T) {
	env := newTestEnv(t)
	env.prompt.answers = []string{"  amy "}
	env.prompt.password = "hunter2"

	require.NoError(t, HandleLogin(context.Background(), env.Env, Args{}))

	assert.Equal(t, []string{"Username: "}, env.prompt.prompts)
	assert.Equal(t, 1, env.prompt.passwords)
	assert.Equal(t, []string{"amy"}, env.backend.logins)

	creds, err := env.Credentials.Load()
	require.NoError(t, err)
	assert.Equal(t, "token-amy", creds.Access)
	assert.Equal(t, "refresh-amy", creds.Refresh)
	assert.Equal(t, "amy", creds.Username)
	assert.Contains(t, env.out.String(), "Signed in as amy")
}

func TestLoginSuggestsLastUser(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.Credentials.Save(&storage.Credentials{Access: "old", Username: "amy"}))
	env.prompt.answers = []string{""}
	env.prompt.password = "hunter2"

	require.NoError(t, HandleLogin(context.Background(), env.Env, Args{}))

	assert.Equal(t, []string{"Username [amy]: "}, env.prompt.prompts)
	assert.Equal(t, []string{"amy"}, env.backend.logins)
}

func TestLoginSuggestsTokenUser(t *testing.T) {
	env := newTestEnv(t)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "bob"}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, env.Credentials.Save(&storage.Credentials{Access: access}))
	env.prompt.answers = []string{"amy"}
	env.prompt.password = "hunter2"

	require.NoError(t, HandleLogin(context.Background(), env.Env, Args{}))

	assert.Equal(t, []string{"Username [bob]: "}, env.prompt.prompts)
	assert.Equal(t, []string{"amy"}, env.backend.logins, "typed name wins")
}

func TestLoginUsernameFlagSkipsPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.prompt.password = "hunter2"

	require.NoError(t, HandleLogin(context.Background(), env.Env, Args{Username: "amy"}))
	assert.Empty(t, env.prompt.prompts)
	assert.Equal(t, 1, env.prompt.passwords)
}

func TestLoginRejected(t *testing.T) {
	env := newTestEnv(t)
	env.prompt.password = "wrong"

	err := HandleLogin(context.Background(), env.Env, Args{Username: "amy"})
	require.Error(t, err)
	assert.Equal(t, ExitAuthError, GetExitCode(err))

	_, loadErr := env.Credentials.Load()
	assert.ErrorIs(t, loadErr, storage.ErrNoCredentials)
}

func TestLoginRequiresInput(t *testing.T) {
	env := newTestEnv(t)
	env.prompt.password = "hunter2"

	err := HandleLogin(context.Background(), env.Env, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Empty(t, env.backend.logins)

	env.Prompter = nil
	err = HandleLogin(context.Background(), env.Env, Args{Username: "amy"})
	var tty *TTYRequiredError
	assert.ErrorAs(t, err, &tty)
}

func TestLoginCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.prompt.err = ErrCancelled

	err := HandleLogin(context.Background(), env.Env, Args{})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, env.backend.logins)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	require.NoError(t, HandleLogout(context.Background(), env.Env, Args{}))
	_, err := env.Credentials.Load()
	assert.ErrorIs(t, err, storage.ErrNoCredentials)
	assert.Contains(t, env.out.String(), "Signed out")

	// Logging out twice is fine.
	assert.NoError(t, HandleLogout(context.Background(), env.Env, Args{}))
}

func TestWhoami(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	require.NoError(t, HandleWhoami(context.Background(), env.Env, Args{}))
	out := env.out.String()
	assert.Contains(t, out, "amy")
	assert.Contains(t, out, "amy@example.com")

	// The second lookup is served from the cache.
	require.NoError(t, HandleWhoami(context.Background(), env.Env, Args{}))
	assert.Equal(t, 1, env.backend.profiles)
}

func TestWhoamiJSON(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	require.NoError(t, HandleWhoami(context.Background(), env.Env, Args{JSON: true}))

	var resp struct {
		Success bool        `json:"success"`
		Command string      `json:"command"`
		Data    ProfileData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "whoami", resp.Command)
	assert.Equal(t, int64(7), resp.Data.UserID)
	assert.Equal(t, "amy", resp.Data.Username)
}

func TestWhoamiNotSignedIn(t *testing.T) {
	env := newTestEnv(t)

	err := HandleWhoami(context.Background(), env.Env, Args{})
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, ExitAuthError, GetExitCode(err))
	assert.Zero(t, env.backend.profiles)
}

func TestUsersExcludesSelf(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	require.NoError(t, HandleUsers(context.Background(), env.Env, Args{JSON: true}))

	var resp struct {
		Data UsersData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &resp))
	require.Equal(t, 2, resp.Data.Count)
	assert.Equal(t, "bob", resp.Data.Users[0].Username)
	assert.Equal(t, "cat", resp.Data.Users[1].Username)
}

func TestUsersSignedOutListsEveryone(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleUsers(context.Background(), env.Env, Args{}))
	out := env.out.String()
	assert.Contains(t, out, "amy")
	assert.Contains(t, out, "bob")
}

func TestUsersNetworkFailure(t *testing.T) {
	env := newTestEnv(t)
	env.backend.listErr = &api.ClientError{Type: api.ErrTypeNetwork, Message: "auth service unreachable", Cause: errors.New("connection refused")}

	err := HandleUsers(context.Background(), env.Env, Args{})
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
}

func TestConfigGetSet(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleConfig(env.Env, Args{Subcommand: "get", ConfigKey: "chat.filter_policy"}))
	assert.Equal(t, "merged\n", env.out.String())

	env.out.Reset()
	require.NoError(t, HandleConfig(env.Env, Args{Subcommand: "set", ConfigKey: "chat.filter_policy", ConfigVal: "peer"}))
	assert.Equal(t, "peer", env.Config.Chat.FilterPolicy)

	saved, err := config.LoadFromPath(env.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "peer", saved.Chat.FilterPolicy)
}

func TestConfigSetRejectsInvalid(t *testing.T) {
	env := newTestEnv(t)

	err := HandleConfig(env.Env, Args{Subcommand: "set", ConfigKey: "ui.theme", ConfigVal: "neon"})
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
	assert.Equal(t, "dark", env.Config.UI.Theme)
	assert.NoFileExists(t, env.ConfigPath)

	err = HandleConfig(env.Env, Args{Subcommand: "set", ConfigKey: "no.such.key", ConfigVal: "x"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleConfig(env.Env, Args{Subcommand: "bogus"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfigShowAndPath(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleConfig(env.Env, Args{}))
	assert.Contains(t, env.out.String(), "chat.filter_policy = merged")

	env.out.Reset()
	require.NoError(t, HandleConfig(env.Env, Args{Subcommand: "path"}))
	assert.Equal(t, env.ConfigPath+"\n", env.out.String())
}

func TestRunUnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	cmd, args := Parse([]string{"frobnicate"})

	err := Run(context.Background(), cmd, args, env.Env)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, env.out.String(), "Usage:")
}

func TestVersionJSON(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, HandleVersion(env.Env, Args{JSON: true}))

	var resp struct {
		Data VersionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &resp))
	assert.Equal(t, Version, resp.Data.Version)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("x", "y", "bad"), ExitUsageError},
		{"tty", &TTYRequiredError{}, ExitUsageError},
		{"config", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}, ExitConfigError},
		{"timeout", NewCommandError("users", "list", api.ErrTimeout), ExitTimeoutError},
		{"auth", &api.ClientError{Type: api.ErrTypeUnauthorized, Message: "credential rejected", StatusCode: 401}, ExitAuthError},
		{"no credentials", storage.ErrNoCredentials, ExitAuthError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "whoami", storage.ErrNoCredentials, false)
	assert.Contains(t, buf.String(), "no stored credentials")
	assert.Contains(t, buf.String(), "relaychat login")

	buf.Reset()
	DisplayError(&buf, "whoami", errors.New("boom"), true)
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "boom", *resp.Error)
}
