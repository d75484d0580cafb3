// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for relaychat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Auth, profile and directory HTTP endpoints
//   - TransportConfig: Per-user WebSocket relay settings
//   - IdentityConfig: Identity cache lifetime and credential storage
//   - ChatConfig: Filter policy, typing indicator and send rate
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RELAYCHAT_*)
//   - ~/.relaychat/config.toml
//   - ~/.relaychat/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	ttl := cfg.IdentityTTL()
//	policy := cfg.Chat.FilterPolicy
package config
