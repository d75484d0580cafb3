// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strconv"

// Identity is the profile record returned by the profile endpoint.
type Identity struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Location    string `json:"location"`
	PhoneNumber string `json:"phone_number"`
	UserType    string `json:"user_type"`
}

// Key returns the identity's numeric id as a string, used to address the
// per-user relay channel.
func (i *Identity) Key() string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(i.UserID, 10)
}

// Same reports whether two identities refer to the same user.
// Two nil identities are the same; nil and non-nil are not.
func (i *Identity) Same(other *Identity) bool {
	if i == nil || other == nil {
		return i == nil && other == nil
	}
	return i.UserID == other.UserID && i.Username == other.Username
}

// Peer is an entry from the user directory.
type Peer struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
