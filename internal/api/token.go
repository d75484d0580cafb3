// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT access token. The signature is not
// verified: the client does not hold the server's key and only uses the claim
// to bound how long it caches results derived from the token. Returns false
// when the token is not a JWT or carries no exp claim.
func TokenExpiry(access string) (time.Time, bool) {
	if access == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenSubject returns the username or user id claim of a JWT, if present.
func TokenSubject(access string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return ""
	}
	if s, ok := claims["username"].(string); ok && s != "" {
		return s
	}
	if sub, err := claims.GetSubject(); err == nil {
		return sub
	}
	return ""
}
