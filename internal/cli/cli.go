// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command dispatch and usage text for relaychat.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdUsers
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdLogin:
		return "login"
	case CmdLogout:
		return "logout"
	case CmdWhoami:
		return "whoami"
	case CmdUsers:
		return "users"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Server     string
	Verbose    bool
	JSON       bool

	// Command-specific
	Username   string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Unknown is set when the command name was not recognised.
	Unknown string

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `relaychat - terminal client for relay chat

Usage:
  relaychat                      Start the chat TUI (default)
  relaychat login [--username u] Sign in and store the credential
  relaychat logout               Forget the stored credential
  relaychat whoami [--json]      Show the signed-in profile
  relaychat users [--json]       List chat peers
  relaychat config [show|get|set|path]
                                 Inspect or change configuration
  relaychat version [--json]     Show version information
  relaychat help                 Show this help

Global Flags:
  --config <path>                Use this config file
  --server <url>                 Override server.base_url
  -v, --verbose                  Debug logging

Config:
  relaychat config show
  relaychat config get chat.filter_policy
  relaychat config set chat.filter_policy peer
  relaychat config set ui.theme light

TUI Keys:
  enter        send               tab          switch pane
  up/down      select peer        ctrl+f       toggle filter
  pgup/pgdown  scroll             ctrl+p       profile
  esc          dismiss            ctrl+l       log out
  ctrl+c       quit

Environment:
  RELAYCHAT_HOME, RELAYCHAT_SERVER_URL, RELAYCHAT_WS_URL,
  RELAYCHAT_LOG_LEVEL, RELAYCHAT_FILTER_POLICY, RELAYCHAT_THEME

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "relaychat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, args
	}

	name := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining
	p := NewArgParser(remaining, "json")
	if p.BoolFlag("json") {
		args.JSON = true
	}

	switch name {
	case "tui", "chat":
		return CmdTUI, args
	case "login", "signin":
		args.Username = p.FlagOrDefault("username", p.Flag("u"))
		if args.Username == "" {
			args.Username = p.Positional(0)
		}
		return CmdLogin, args
	case "logout", "signout":
		return CmdLogout, args
	case "whoami", "profile":
		return CmdWhoami, args
	case "users", "peers":
		return CmdUsers, args
	case "config":
		args.Subcommand = p.Positional(0)
		args.ConfigKey = p.Positional(1)
		args.ConfigVal = p.Positional(2)
		return CmdConfig, args
	case "version", "--version":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		args.Unknown = name
		return CmdHelp, args
	}
}

// parseGlobalFlags extracts global flags and returns the remaining args.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "--json":
			args.JSON = true
		case arg == "--config" && i+1 < len(argv):
			i++
			args.ConfigPath = argv[i]
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--server" && i+1 < len(argv):
			i++
			args.Server = argv[i]
		case strings.HasPrefix(arg, "--server="):
			args.Server = strings.TrimPrefix(arg, "--server=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}
