// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/relaychat-tui/internal/util"
)

// ErrNoCredentials is returned when no credential has been saved.
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials is the token pair saved after login.
type Credentials struct {
	Access   string    `json:"access"`
	Refresh  string    `json:"refresh,omitempty"`
	Username string    `json:"username,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// CredentialStore persists Credentials as a 0600 JSON file.
type CredentialStore struct {
	// Path is the credential file, normally ~/.relaychat/credentials.json.
	Path string
}

// NewCredentialStore returns a store for the file at path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{Path: path}
}

// Load reads the stored credentials. A missing file or an empty access token
// yields ErrNoCredentials.
func (s *CredentialStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if creds.Access == "" {
		return nil, ErrNoCredentials
	}
	return &creds, nil
}

// Save writes creds atomically, stamping SavedAt when it is unset.
func (s *CredentialStore) Save(creds *Credentials) error {
	if creds == nil || creds.Access == "" {
		return errors.New("credentials must include an access token")
	}
	cp := *creds
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := util.AtomicWriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Clear deletes the stored credentials. Clearing when nothing is stored is
// not an error.
func (s *CredentialStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
