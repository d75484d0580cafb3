// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the relaychat TUI.

All colors use Lip Gloss AdaptiveColor so one palette serves dark and light
terminals.

# Color System (colors.go)

  - Purple - Incoming messages and selections
  - Cyan - Brand color, focus ring
  - Emerald - Connection open
  - Amber - Connecting, warnings
  - Rose - Disconnected, errors

Message bubbles use OutgoingBubble* (right aligned, our messages) and
IncomingBubble* (left aligned, everyone else).

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme) // "dark", "light" or "auto"
	label := theme.StateStyle("open").Render("connected")

# Accessibility

State is never shown by color alone: StatusIndicators supplies ASCII shapes
([OK], [X], [!], [i]) rendered next to the colored text.
*/
package styles
