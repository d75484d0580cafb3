// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/relaychat-tui/internal/model"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 4 << 10

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the auth service client.
type ClientConfig struct {
	// BaseURL is the auth service base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// Endpoint paths (defaults: /auth/token/, /auth/token/refresh/,
	// /auth/profile/, /auth/users/)
	TokenPath   string
	RefreshPath string
	ProfilePath string
	UsersPath   string

	// Timeout for each request (default: 15s)
	Timeout time.Duration

	// Logger receives request diagnostics (default: no-op)
	Logger *zap.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:     "http://127.0.0.1:8000",
		TokenPath:   "/auth/token/",
		RefreshPath: "/auth/token/refresh/",
		ProfilePath: "/auth/profile/",
		UsersPath:   "/auth/users/",
		Timeout:     15 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the auth service.
// It performs no retries: every failure is returned to the caller for the
// attempt it belongs to.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	d := DefaultConfig()

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = d.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.TokenPath == "" {
		config.TokenPath = d.TokenPath
	}
	if config.RefreshPath == "" {
		config.RefreshPath = d.RefreshPath
	}
	if config.ProfilePath == "" {
		config.ProfilePath = d.ProfilePath
	}
	if config.UsersPath == "" {
		config.UsersPath = d.UsersPath
	}
	if config.Timeout == 0 {
		config.Timeout = d.Timeout
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log: log.Named("api"),
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// AUTH OPERATIONS
// =============================================================================

// Login exchanges a username and password for a token pair. Both fields are
// required; an empty one is rejected without a network call.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "please input your username"}
	}
	if password == "" {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "please input your password"}
	}

	var pair TokenPair
	err := c.do(ctx, http.MethodPost, c.config.TokenPath, "", loginRequest{Username: username, Password: password}, &pair)
	if err != nil {
		// The token endpoint answers bad credentials with 400 or 401.
		if ce, ok := err.(*ClientError); ok && ce.StatusCode == http.StatusBadRequest {
			ce.Type = ErrTypeUnauthorized
		}
		c.log.Warn("login failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if pair.Access == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "token response has no access token"}
	}
	c.log.Info("login succeeded", zap.String("username", username))
	return &pair, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// is carried over when the server does not rotate it.
func (c *Client) Refresh(ctx context.Context, refresh string) (*TokenPair, error) {
	if refresh == "" {
		return nil, ErrMissingCredential
	}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, c.config.RefreshPath, "", refreshRequest{Refresh: refresh}, &pair); err != nil {
		c.log.Warn("token refresh failed", zap.Error(err))
		return nil, err
	}
	if pair.Access == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "refresh response has no access token"}
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}
	return &pair, nil
}

// Profile resolves an access token to the identity it belongs to.
// An empty token fails with ErrMissingCredential without a network call.
func (c *Client) Profile(ctx context.Context, access string) (*model.Identity, error) {
	if access == "" {
		return nil, ErrMissingCredential
	}
	var id model.Identity
	if err := c.do(ctx, http.MethodGet, c.config.ProfilePath, access, nil, &id); err != nil {
		c.log.Warn("profile lookup failed", zap.Error(err))
		return nil, err
	}
	if id.Username == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "profile has no username"}
	}
	return &id, nil
}

// ListUsers fetches the chat-eligible users. The endpoint is unauthenticated.
func (c *Client) ListUsers(ctx context.Context) ([]model.Peer, error) {
	var peers []model.Peer
	if err := c.do(ctx, http.MethodGet, c.config.UsersPath, "", nil, &peers); err != nil {
		c.log.Warn("user listing failed", zap.Error(err))
		return nil, err
	}
	if peers == nil {
		peers = []model.Peer{}
	}
	return peers, nil
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportErr(err)
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func statusError(resp *http.Response) error {
	msg := resp.Status
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.text() != "" {
		msg = er.text()
	}

	errType := ErrTypeInvalidResponse
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = ErrTypeUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		errType = ErrTypeNetwork
	case http.StatusGatewayTimeout:
		errType = ErrTypeTimeout
	}
	return &ClientError{
		Type:       errType,
		Message:    fmt.Sprintf("%s (HTTP %d)", msg, resp.StatusCode),
		StatusCode: resp.StatusCode,
	}
}
