// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger used across relaychat.
//
// The terminal belongs to the Bubble Tea program while the TUI runs, so log
// output is written to a file (~/.relaychat/relaychat.log by default) rather
// than stdout.
//
// # Usage
//
//	log, err := logging.New(cfg.Log)
//	if err != nil {
//	    return err
//	}
//	defer log.Sync()
//
// Components take a *zap.Logger and call OrNop so a nil logger is safe.
package logging
