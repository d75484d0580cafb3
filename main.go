// relaychat - A terminal client for one-to-one relay chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/relaychat-tui/internal/api"
	"github.com/jeranaias/relaychat-tui/internal/cli"
	"github.com/jeranaias/relaychat-tui/internal/config"
	"github.com/jeranaias/relaychat-tui/internal/directory"
	"github.com/jeranaias/relaychat-tui/internal/identity"
	"github.com/jeranaias/relaychat-tui/internal/logging"
	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/session"
	"github.com/jeranaias/relaychat-tui/internal/storage"
	"github.com/jeranaias/relaychat-tui/internal/transport"
	"github.com/jeranaias/relaychat-tui/internal/ui/app"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args := cli.Parse(argv)

	// Help and version never need config or a log file.
	if cmd == cli.CmdHelp || cmd == cli.CmdVersion {
		err := cli.Run(context.Background(), cmd, args, &cli.Env{Out: os.Stdout})
		return report(cmd, args, err)
	}

	cfg, cfgPath, err := loadConfig(args)
	if err != nil {
		return report(cmd, args, err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderWarning("logging disabled: "+err.Error()))
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()
	log.Info("relaychat starting", zap.String("version", Version), zap.String("command", cmd.String()))

	d, err := wire(cfg, log)
	if err != nil {
		return report(cmd, args, err)
	}
	defer d.close()

	if cmd == cli.CmdTUI {
		return report(cmd, args, runTUI(cfg, d, log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &cli.Env{
		Config:      cfg,
		ConfigPath:  cfgPath,
		Backend:     d.api,
		Credentials: d.creds,
		Identity:    d.identity,
		Out:         os.Stdout,
		Log:         log,
	}
	if cmd == cli.CmdLogin && cli.IsTTY() {
		p := cli.NewLinerPrompter()
		defer p.Close()
		env.Prompter = p
	}
	return report(cmd, args, cli.Run(ctx, cmd, args, env))
}

// report prints err and returns the exit code for it.
func report(cmd cli.Command, args cli.Args, err error) int {
	if err == nil {
		return cli.ExitSuccess
	}
	out := os.Stderr
	if args.JSON {
		out = os.Stdout
	}
	cli.DisplayError(out, cmd.String(), err, args.JSON)
	return cli.GetExitCode(err)
}

// loadConfig reads --config or the default config file and applies the
// command-line overrides.
func loadConfig(args cli.Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path = args.ConfigPath
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		if path, err = config.ConfigPathTOML(); err != nil {
			return nil, "", err
		}
		if err = config.EnsureConfigDir(); err != nil {
			return nil, "", err
		}
		cfg, err = config.Load()
		if cfg != nil && err != nil {
			// The file was unreadable; defaults are in use.
			fmt.Fprintln(os.Stderr, styles.RenderWarning(err.Error()))
			err = nil
		}
	}
	if err != nil {
		return nil, "", err
	}

	if args.Server != "" {
		cfg.Server.BaseURL = args.Server
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, path, nil
}

// =============================================================================
// WIRING
// =============================================================================

type deps struct {
	api      *api.Client
	creds    *storage.CredentialStore
	store    *storage.SQLiteStore
	identity *identity.Cache
	// prog receives identity evictions while the TUI runs.
	prog atomic.Pointer[tea.Program]
}

func wire(cfg *config.Config, log *zap.Logger) (*deps, error) {
	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:     cfg.Server.BaseURL,
		TokenPath:   cfg.Server.TokenPath,
		RefreshPath: cfg.Server.RefreshPath,
		ProfilePath: cfg.Server.ProfilePath,
		UsersPath:   cfg.Server.UsersPath,
		Timeout:     time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		Logger:      log,
	})

	credPath, err := cfg.CredentialsPath()
	if err != nil {
		return nil, err
	}
	cachePath, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}

	d := &deps{api: client, creds: storage.NewCredentialStore(credPath)}
	cacheCfg := identity.Config{TTL: cfg.IdentityTTL(), Logger: log, OnEvict: d.identityEvicted}
	if store, err := storage.OpenSQLite(cachePath); err != nil {
		// Identity caching still works in memory.
		log.Warn("identity cache store unavailable", zap.String("path", cachePath), zap.Error(err))
	} else {
		d.store = store
		cacheCfg.Store = store
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if n, err := store.Purge(ctx); err != nil {
			log.Warn("failed to purge expired cache records", zap.Error(err))
		} else if n > 0 {
			log.Debug("purged expired cache records", zap.Int64("count", n))
		}
		cancel()
	}
	d.identity = identity.New(client, cacheCfg)
	return d, nil
}

// identityEvicted forwards a cache eviction to the running TUI, if any.
func (d *deps) identityEvicted(_ *model.Identity) {
	if p := d.prog.Load(); p != nil {
		p.Send(app.IdentityExpiredMsg{})
	}
}

func (d *deps) close() {
	d.identity.Close()
	if d.store != nil {
		_ = d.store.Close()
	}
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(cfg *config.Config, d *deps, log *zap.Logger) error {
	if err := cli.RequiresTTY("start the chat interface"); err != nil {
		return err
	}

	log.Info("starting chat", zap.String("server", d.api.BaseURL()))
	dialer := transport.NewWebSocketDialer(transport.Options{
		HandshakeTimeout: time.Duration(cfg.Transport.HandshakeTimeoutSecs) * time.Second,
		PingInterval:     time.Duration(cfg.Transport.PingIntervalSecs) * time.Second,
		ReadTimeout:      time.Duration(cfg.Transport.ReadTimeoutSecs) * time.Second,
		MaxMessageBytes:  cfg.Transport.MaxMessageBytes,
		Logger:           log,
	})
	sess := session.New(session.Config{
		Dialer:       dialer,
		URLTemplate:  cfg.Transport.URLTemplate,
		Policy:       model.ParseFilterPolicy(cfg.Chat.FilterPolicy),
		SuppressEcho: cfg.Chat.SuppressEcho,
		SendRate:     cfg.Chat.SendRate,
		SendBurst:    cfg.Chat.SendBurst,
		TypingReset:  cfg.TypingReset(),
		Logger:       log,
	})
	defer sess.Close()

	opts := app.Options{
		Config:      cfg,
		Theme:       styles.NewTheme(cfg.UI.Theme),
		Auth:        d.api,
		Credentials: d.creds,
		Identity:    d.identity,
		Directory:   directory.NewClient(d.api, log),
		Session:     sess,
		Logger:      log,
	}
	if cfg.Identity.WatchCredentials {
		w, err := storage.NewWatcher(d.creds.Path, 0, log)
		if err != nil {
			log.Warn("credential watch disabled", zap.Error(err))
		} else {
			defer w.Close()
			opts.Watcher = w
		}
	}

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	d.prog.Store(p)
	defer d.prog.Store(nil)
	_, err := p.Run()
	if err != nil {
		log.Error("tui exited with error", zap.Error(err))
	}
	return err
}
