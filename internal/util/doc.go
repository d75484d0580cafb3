// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the relaychat packages.
//
// # Key Functions
//
// Display Text:
//   - Truncate: display-width aware truncation with ellipsis
//   - PadRight: pad to a display width
//   - SanitizeDisplay: NFC-normalise text and strip terminal control characters
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	name := util.Truncate(peer.Username, 20)
//	body := util.SanitizeDisplay(msg.MessageBody)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
