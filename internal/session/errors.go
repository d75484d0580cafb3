// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "errors"

// Errors returned by Session operations. Send rejections leave the session
// and timeline unchanged.
var (
	ErrMissingIdentity = errors.New("identity not resolved")
	ErrNoPeer          = errors.New("no peer selected")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrReservedBody    = errors.New("message body is reserved")
	ErrNotOpen         = errors.New("connection is not open")
	ErrTransportClosed = errors.New("connection closed")
	ErrRateLimited     = errors.New("sending too fast")
	ErrSuperseded      = errors.New("binding superseded")
	ErrSessionClosed   = errors.New("session closed")
	ErrMalformedFrame  = errors.New("malformed message frame")
)
