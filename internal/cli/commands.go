// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Non-interactive relaychat commands.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/relaychat-tui/internal/api"
	"github.com/jeranaias/relaychat-tui/internal/config"
	"github.com/jeranaias/relaychat-tui/internal/directory"
	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/storage"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Backend is the server API the commands call.
type Backend interface {
	Login(ctx context.Context, username, password string) (*api.TokenPair, error)
	Profile(ctx context.Context, access string) (*model.Identity, error)
	ListUsers(ctx context.Context) ([]model.Peer, error)
}

// IdentityCache resolves and forgets the signed-in identity.
type IdentityCache interface {
	Resolve(ctx context.Context, credential string) (*model.Identity, error)
	ExpiresAt() time.Time
	Invalidate(ctx context.Context) error
}

// Env is what a command runs against.
type Env struct {
	Config *config.Config
	// ConfigPath is the file "config set" writes.
	ConfigPath  string
	Backend     Backend
	Credentials *storage.CredentialStore
	Identity    IdentityCache
	// Prompter is used by login when a value was not given as a flag.
	Prompter Prompter
	Out      io.Writer
	Log      *zap.Logger
}

// Run executes cmd.
func Run(ctx context.Context, cmd Command, args Args, env *Env) error {
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	switch cmd {
	case CmdLogin:
		return HandleLogin(ctx, env, args)
	case CmdLogout:
		return HandleLogout(ctx, env, args)
	case CmdWhoami:
		return HandleWhoami(ctx, env, args)
	case CmdUsers:
		return HandleUsers(ctx, env, args)
	case CmdConfig:
		return HandleConfig(env, args)
	case CmdVersion:
		return HandleVersion(env, args)
	case CmdHelp:
		PrintUsage(env.Out)
		if args.Unknown != "" {
			return NewValidationError("command", args.Unknown, "unknown command")
		}
		return nil
	default:
		return fmt.Errorf("command %s cannot run here", cmd)
	}
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

// HandleLogin exchanges a username and password for tokens and stores them.
// The username may come from --username; the password is always prompted for
// without echo.
func HandleLogin(ctx context.Context, env *Env, args Args) error {
	if env.Prompter == nil {
		return &TTYRequiredError{Operation: "prompt for credentials"}
	}

	username := strings.TrimSpace(args.Username)
	if username == "" {
		prompt := "Username: "
		last := lastUsername(env.Credentials)
		if last != "" {
			prompt = "Username [" + last + "]: "
		}
		u, err := env.Prompter.Prompt(prompt)
		if err != nil {
			return err
		}
		username = strings.TrimSpace(u)
		if username == "" {
			username = last
		}
	}
	if username == "" {
		return ErrMissingArgument("username", "relaychat login --username <name>")
	}
	password, err := env.Prompter.PasswordPrompt("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return ErrMissingArgument("password", "relaychat login")
	}

	tokens, err := env.Backend.Login(ctx, username, password)
	if err != nil {
		env.Log.Warn("login failed", zap.String("username", username), zap.Error(err))
		return NewCommandError("login", "authenticate", err)
	}

	if err := env.Credentials.Save(&storage.Credentials{
		Access:   tokens.Access,
		Refresh:  tokens.Refresh,
		Username: username,
	}); err != nil {
		return NewCommandError("login", "save credentials", err)
	}
	if err := env.Identity.Invalidate(ctx); err != nil {
		env.Log.Warn("failed to drop cached identity", zap.Error(err))
	}

	if args.JSON {
		return NewJSONResponse("login", map[string]string{"username": username}).Write(env.Out)
	}
	fmt.Fprintln(env.Out, styles.RenderSuccess("Signed in as "+username))
	return nil
}

// lastUsername returns the user of the stored credential, falling back to the
// token's own claims for files written without a username.
func lastUsername(store *storage.CredentialStore) string {
	if store == nil {
		return ""
	}
	creds, err := store.Load()
	if err != nil {
		return ""
	}
	if creds.Username != "" {
		return creds.Username
	}
	return api.TokenSubject(creds.Access)
}

// HandleLogout forgets the stored credential and the cached identity.
func HandleLogout(ctx context.Context, env *Env, args Args) error {
	if err := env.Credentials.Clear(); err != nil {
		return NewCommandError("logout", "clear credentials", err)
	}
	if err := env.Identity.Invalidate(ctx); err != nil {
		return NewCommandError("logout", "clear cached identity", err)
	}
	if args.JSON {
		return NewJSONResponse("logout", nil).Write(env.Out)
	}
	fmt.Fprintln(env.Out, styles.RenderSuccess("Signed out"))
	return nil
}

// =============================================================================
// WHOAMI / USERS
// =============================================================================

// currentIdentity resolves the stored credential.
func currentIdentity(ctx context.Context, env *Env) (*model.Identity, error) {
	creds, err := env.Credentials.Load()
	if errors.Is(err, storage.ErrNoCredentials) {
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}
	return env.Identity.Resolve(ctx, creds.Access)
}

// HandleWhoami prints the signed-in profile.
func HandleWhoami(ctx context.Context, env *Env, args Args) error {
	id, err := currentIdentity(ctx, env)
	if err != nil {
		return NewCommandError("whoami", "resolve identity", err)
	}
	until := env.Identity.ExpiresAt()

	if args.JSON {
		return NewJSONResponse("whoami", ProfileData{
			UserID:      id.UserID,
			Username:    id.Username,
			Email:       id.Email,
			Location:    id.Location,
			PhoneNumber: id.PhoneNumber,
			UserType:    id.UserType,
			CachedUntil: until,
		}).Write(env.Out)
	}

	fmt.Fprintln(env.Out, TitleStyle.Render("Profile"))
	fmt.Fprintln(env.Out, RenderField("Username", id.Username))
	fmt.Fprintln(env.Out, RenderField("Email", id.Email))
	fmt.Fprintln(env.Out, RenderField("Location", id.Location))
	fmt.Fprintln(env.Out, RenderField("Phone Number", id.PhoneNumber))
	fmt.Fprintln(env.Out, RenderField("User Type", id.UserType))
	if !until.IsZero() {
		fmt.Fprintln(env.Out, RenderField("Cached until", until.Local().Format("15:04:05")))
	}
	return nil
}

// HandleUsers lists the directory. When signed in, the current user is left
// out.
func HandleUsers(ctx context.Context, env *Env, args Args) error {
	self := ""
	if id, err := currentIdentity(ctx, env); err == nil {
		self = id.Username
	} else if !errors.Is(err, ErrNotSignedIn) {
		env.Log.Debug("listing users without identity", zap.Error(err))
	}

	peers, err := directory.NewClient(env.Backend, env.Log).ListPeers(ctx, self)
	if err != nil {
		return NewCommandError("users", "list", err)
	}

	if args.JSON {
		data := UsersData{Count: len(peers), Users: make([]UserData, 0, len(peers))}
		for _, p := range peers {
			data.Users = append(data.Users, UserData{ID: p.ID, Username: p.Username})
		}
		return NewJSONResponse("users", data).Write(env.Out)
	}

	if len(peers) == 0 {
		fmt.Fprintln(env.Out, styles.RenderInfo("No users"))
		return nil
	}
	for _, p := range peers {
		fmt.Fprintf(env.Out, "%6d  %s\n", p.ID, p.Username)
	}
	return nil
}

// =============================================================================
// CONFIG / VERSION
// =============================================================================

// HandleConfig implements "config show|get|set|path".
func HandleConfig(env *Env, args Args) error {
	cfg := env.Config
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return NewJSONResponse("config", cfg).Write(env.Out)
		}
		for _, k := range config.GetAllKeys() {
			v, err := cfg.Get(k)
			if err != nil {
				continue
			}
			fmt.Fprintf(env.Out, "%s = %v\n", k, v)
		}
		return nil

	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "relaychat config get <key>")
		}
		v, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return NewValidationError("key", args.ConfigKey, err.Error())
		}
		if args.JSON {
			return NewJSONResponse("config", map[string]interface{}{args.ConfigKey: v}).Write(env.Out)
		}
		fmt.Fprintln(env.Out, v)
		return nil

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return ErrMissingArgument("key and value", "relaychat config set <key> <value>")
		}
		next := cfg.Clone()
		if err := next.Set(args.ConfigKey, args.ConfigVal); err != nil {
			return NewValidationError("key", args.ConfigKey, err.Error())
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := config.SaveTOML(next, env.ConfigPath); err != nil {
			return NewCommandError("config", "save", err)
		}
		*cfg = *next
		fmt.Fprintf(env.Out, "%s = %s\n", args.ConfigKey, args.ConfigVal)
		return nil

	case "path":
		fmt.Fprintln(env.Out, env.ConfigPath)
		return nil

	default:
		return NewValidationError("subcommand", args.Subcommand, "expected show, get, set or path")
	}
}

// HandleVersion prints version information.
func HandleVersion(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(env.Out)
	}
	PrintVersion(env.Out)
	return nil
}
