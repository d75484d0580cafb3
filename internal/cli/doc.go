// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the relaychat command line: argument parsing,
// the non-interactive commands, and their text and JSON output.
//
// With no command, relaychat starts the TUI. The other commands share the
// stored credential and identity cache with it, so "relaychat login" followed
// by "relaychat" opens the chat screen directly.
//
// # Key Types
//
//   - Command: The command selected by Parse
//   - Args: Global flags and command arguments
//   - Env: Config, backend and stores a command runs against
//   - Prompter: Interactive input, backed by liner
//   - JSONResponse: Envelope printed by --json
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	if err := cli.Run(ctx, cmd, args, env); err != nil {
//		cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
//		os.Exit(cli.GetExitCode(err))
//	}
package cli
