// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the relaychat TUI.

# Components

ToastManager (toast.go) - Non-blocking notifications in the bottom-right
corner. Errors that the user must see (failed login, unreachable server, a
dropped connection) are shown here; the screen underneath stays usable.

StatusBar (statusbar.go) - Bottom line of the chat screen with the
connection state, current user, selected peer, filter policy and typing
indicator.

# Usage

	toasts := components.NewToastManager()
	toasts.AddError("Unable to reach the server")

	// In Update:
	case components.ToastTickMsg:
	    toasts.Tick()
	    return m, components.ToastTickCmd()

	// In View:
	overlay := components.RenderToastStack(toasts.Toasts(), w, h, time.Now())
*/
package components
