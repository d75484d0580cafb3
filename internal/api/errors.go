// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the auth service client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same type, so a wrapped 401 with a
// custom message still satisfies errors.Is(err, ErrUnauthorized).
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeMissingCredential
	ErrTypeUnauthorized
	ErrTypeNetwork
	ErrTypeTimeout
	ErrTypeInvalidRequest
	ErrTypeInvalidResponse
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeMissingCredential:
		return "MissingCredential"
	case ErrTypeUnauthorized:
		return "Unauthorized"
	case ErrTypeNetwork:
		return "NetworkFailure"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeInvalidRequest:
		return "InvalidRequest"
	case ErrTypeInvalidResponse:
		return "InvalidResponse"
	default:
		return "Unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrMissingCredential = &ClientError{Type: ErrTypeMissingCredential, Message: "no stored credential"}
	ErrUnauthorized      = &ClientError{Type: ErrTypeUnauthorized, Message: "credential rejected"}
	ErrNetwork           = &ClientError{Type: ErrTypeNetwork, Message: "auth service unreachable"}
	ErrTimeout           = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrInvalidRequest    = &ClientError{Type: ErrTypeInvalidRequest, Message: "invalid request"}
	ErrInvalidResponse   = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid response"}
)

// IsAuthError reports whether err means the user must (re)authenticate.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrMissingCredential)
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}

// classifyTransportErr maps an http.Client.Do failure to a ClientError.
func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeNetwork, Message: "auth service unreachable", Cause: err}
}
