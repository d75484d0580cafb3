// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/relaychat-tui/internal/util"
)

// UserIDPlaceholder is substituted with the numeric user id in the transport
// URL template.
const UserIDPlaceholder = "{user_id}"

// MaxIdentityTTL bounds how long a resolved identity may be cached.
const MaxIdentityTTL = time.Hour

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete relaychat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Server holds the auth/profile/directory HTTP endpoints.
	Server ServerConfig `toml:"server" json:"server"`

	// Transport configures the per-user WebSocket channel.
	Transport TransportConfig `toml:"transport" json:"transport"`

	// Identity configures identity caching and the stored credential.
	Identity IdentityConfig `toml:"identity" json:"identity"`

	// Chat configures messaging session behavior.
	Chat ChatConfig `toml:"chat" json:"chat"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`
}

// ServerConfig contains the HTTP backend configuration.
type ServerConfig struct {
	// BaseURL is the scheme and host of the auth service.
	BaseURL string `toml:"base_url" json:"base_url"`
	// TokenPath exchanges {username, password} for {access, refresh}.
	TokenPath string `toml:"token_path" json:"token_path"`
	// RefreshPath exchanges a refresh token for a new access token.
	RefreshPath string `toml:"refresh_path" json:"refresh_path"`
	// ProfilePath resolves a bearer token to the identity record.
	ProfilePath string `toml:"profile_path" json:"profile_path"`
	// UsersPath lists chat-eligible peers.
	UsersPath string `toml:"users_path" json:"users_path"`
	// TimeoutSecs bounds each HTTP request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// TransportConfig contains the real-time relay configuration.
type TransportConfig struct {
	// URLTemplate is the relay address; {user_id} is replaced per identity.
	URLTemplate string `toml:"url_template" json:"url_template"`
	// HandshakeTimeoutSecs bounds the WebSocket opening handshake.
	HandshakeTimeoutSecs int `toml:"handshake_timeout_secs" json:"handshake_timeout_secs"`
	// PingIntervalSecs is the keepalive ping period (0 disables pings).
	PingIntervalSecs int `toml:"ping_interval_secs" json:"ping_interval_secs"`
	// ReadTimeoutSecs is how long a silent connection is tolerated; each pong extends it.
	ReadTimeoutSecs int `toml:"read_timeout_secs" json:"read_timeout_secs"`
	// MaxMessageBytes limits a single inbound frame.
	MaxMessageBytes int64 `toml:"max_message_bytes" json:"max_message_bytes"`
}

// IdentityConfig contains identity cache settings.
type IdentityConfig struct {
	// CacheTTLSecs is how long a resolved identity is served without a
	// network call. Capped at one hour.
	CacheTTLSecs int `toml:"cache_ttl_secs" json:"cache_ttl_secs"`
	// CachePath is the sqlite file holding the cached identity record
	// (empty = ~/.relaychat/cache.db).
	CachePath string `toml:"cache_path" json:"cache_path"`
	// CredentialsPath is the stored token pair (empty = ~/.relaychat/credentials.json).
	CredentialsPath string `toml:"credentials_path" json:"credentials_path"`
	// WatchCredentials re-resolves the identity when another process
	// rewrites the credential file.
	WatchCredentials bool `toml:"watch_credentials" json:"watch_credentials"`
}

// ChatConfig contains messaging session settings.
type ChatConfig struct {
	// FilterPolicy is "merged" (one stream regardless of peer) or "peer"
	// (only messages exchanged with the selected peer).
	FilterPolicy string `toml:"filter_policy" json:"filter_policy"`
	// TypingResetMs clears the local typing indicator after this idle period.
	TypingResetMs int `toml:"typing_reset_ms" json:"typing_reset_ms"`
	// SendRate is the sustained outgoing message rate per second.
	SendRate float64 `toml:"send_rate" json:"send_rate"`
	// SendBurst is the outgoing burst allowance.
	SendBurst int `toml:"send_burst" json:"send_burst"`
	// SuppressEcho drops relayed copies of our own messages by correlation id.
	SuppressEcho bool `toml:"suppress_echo" json:"suppress_echo"`
}

// UIConfig contains UI preferences.
type UIConfig struct {
	Theme          string `toml:"theme" json:"theme"` // "dark", "light", "auto"
	ShowTimestamps bool   `toml:"show_timestamps" json:"show_timestamps"`
	RenderMarkdown bool   `toml:"render_markdown" json:"render_markdown"`
	SidebarWidth   int    `toml:"sidebar_width" json:"sidebar_width"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`   // debug, info, warn, error
	Format string `toml:"format" json:"format"` // console, json
	// Path is the log file (empty = ~/.relaychat/relaychat.log).
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			BaseURL:     "http://127.0.0.1:8000",
			TokenPath:   "/auth/token/",
			RefreshPath: "/auth/token/refresh/",
			ProfilePath: "/auth/profile/",
			UsersPath:   "/auth/users/",
			TimeoutSecs: 15,
		},

		Transport: TransportConfig{
			URLTemplate:          "ws://127.0.0.1:8000/ws/chat/{user_id}/",
			HandshakeTimeoutSecs: 10,
			PingIntervalSecs:     30,
			ReadTimeoutSecs:      60,
			MaxMessageBytes:      1 << 20,
		},

		Identity: IdentityConfig{
			CacheTTLSecs:     3600,
			WatchCredentials: true,
		},

		Chat: ChatConfig{
			FilterPolicy:  "merged",
			TypingResetMs: 1000,
			SendRate:      5,
			SendBurst:     10,
			SuppressEcho:  true,
		},

		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: true,
			RenderMarkdown: false,
			SidebarWidth:   24,
		},

		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the relaychat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("RELAYCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".relaychat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files may carry server addresses and paths to credentials, so they
// are kept owner read/write only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults. When a file exists
// but cannot be decoded, the defaults are returned together with the error.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
				cfg = Default()
			} else {
				return finish(cfg)
			}
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
				cfg = Default()
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finish applies env overrides, fills defaults and validates.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from an explicit file. Fields missing from
// the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = "  "
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Server
	// ==========================================================================

	if err := validateURL(c.Server.BaseURL, "http", "https"); err != nil {
		errs = append(errs, ValidationError{Field: "server.base_url", Message: err.Error()})
	}
	for field, p := range map[string]string{
		"server.token_path":   c.Server.TokenPath,
		"server.profile_path": c.Server.ProfilePath,
		"server.users_path":   c.Server.UsersPath,
	} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("path '%s' must start with /", p)})
		}
	}
	if c.Server.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{Field: "server.timeout_secs", Message: "must be positive"})
	}

	// ==========================================================================
	// Transport
	// ==========================================================================

	if !strings.Contains(c.Transport.URLTemplate, UserIDPlaceholder) {
		errs = append(errs, ValidationError{
			Field:   "transport.url_template",
			Message: fmt.Sprintf("template must contain %s", UserIDPlaceholder),
		})
	} else {
		probe := strings.ReplaceAll(c.Transport.URLTemplate, UserIDPlaceholder, "1")
		if err := validateURL(probe, "ws", "wss"); err != nil {
			errs = append(errs, ValidationError{Field: "transport.url_template", Message: err.Error()})
		}
	}
	if c.Transport.HandshakeTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{Field: "transport.handshake_timeout_secs", Message: "must be positive"})
	}
	if c.Transport.PingIntervalSecs < 0 {
		errs = append(errs, ValidationError{Field: "transport.ping_interval_secs", Message: "cannot be negative"})
	}
	if c.Transport.PingIntervalSecs > 0 && c.Transport.ReadTimeoutSecs <= c.Transport.PingIntervalSecs {
		errs = append(errs, ValidationError{
			Field:   "transport.read_timeout_secs",
			Message: "must be greater than ping_interval_secs",
		})
	}
	if c.Transport.MaxMessageBytes <= 0 {
		errs = append(errs, ValidationError{Field: "transport.max_message_bytes", Message: "must be positive"})
	}

	// ==========================================================================
	// Identity
	// ==========================================================================

	if c.Identity.CacheTTLSecs <= 0 {
		errs = append(errs, ValidationError{Field: "identity.cache_ttl_secs", Message: "must be positive"})
	} else if time.Duration(c.Identity.CacheTTLSecs)*time.Second > MaxIdentityTTL {
		errs = append(errs, ValidationError{
			Field:   "identity.cache_ttl_secs",
			Message: fmt.Sprintf("%d exceeds the maximum of %d", c.Identity.CacheTTLSecs, int(MaxIdentityTTL.Seconds())),
		})
	}

	// ==========================================================================
	// Chat
	// ==========================================================================

	validPolicies := map[string]bool{"merged": true, "peer": true}
	if !validPolicies[strings.ToLower(c.Chat.FilterPolicy)] {
		errs = append(errs, ValidationError{
			Field:   "chat.filter_policy",
			Message: fmt.Sprintf("invalid policy '%s', must be one of: merged, peer", c.Chat.FilterPolicy),
		})
	}
	if c.Chat.TypingResetMs <= 0 {
		errs = append(errs, ValidationError{Field: "chat.typing_reset_ms", Message: "must be positive"})
	}
	if c.Chat.SendRate <= 0 {
		errs = append(errs, ValidationError{Field: "chat.send_rate", Message: "must be positive"})
	}
	if c.Chat.SendBurst < 1 {
		errs = append(errs, ValidationError{Field: "chat.send_burst", Message: "must be at least 1"})
	}

	// ==========================================================================
	// UI / Log
	// ==========================================================================

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.SidebarWidth < 12 || c.UI.SidebarWidth > 60 {
		errs = append(errs, ValidationError{Field: "ui.sidebar_width", Message: "must be between 12 and 60"})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: console, json", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %v", raw, err)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			if u.Host == "" {
				return fmt.Errorf("URL '%s' has no host", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("URL '%s' must use one of: %s", raw, strings.Join(schemes, ", "))
}

// SetDefaults fills zero values left by partial config files.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = d.Server.BaseURL
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Server.TokenPath == "" {
		c.Server.TokenPath = d.Server.TokenPath
	}
	if c.Server.RefreshPath == "" {
		c.Server.RefreshPath = d.Server.RefreshPath
	}
	if c.Server.ProfilePath == "" {
		c.Server.ProfilePath = d.Server.ProfilePath
	}
	if c.Server.UsersPath == "" {
		c.Server.UsersPath = d.Server.UsersPath
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = d.Server.TimeoutSecs
	}
	if c.Transport.URLTemplate == "" {
		c.Transport.URLTemplate = d.Transport.URLTemplate
	}
	if c.Transport.HandshakeTimeoutSecs == 0 {
		c.Transport.HandshakeTimeoutSecs = d.Transport.HandshakeTimeoutSecs
	}
	if c.Transport.ReadTimeoutSecs == 0 {
		c.Transport.ReadTimeoutSecs = d.Transport.ReadTimeoutSecs
	}
	if c.Transport.MaxMessageBytes == 0 {
		c.Transport.MaxMessageBytes = d.Transport.MaxMessageBytes
	}
	if c.Identity.CacheTTLSecs == 0 {
		c.Identity.CacheTTLSecs = d.Identity.CacheTTLSecs
	}
	if c.Chat.FilterPolicy == "" {
		c.Chat.FilterPolicy = d.Chat.FilterPolicy
	}
	c.Chat.FilterPolicy = strings.ToLower(c.Chat.FilterPolicy)
	if c.Chat.TypingResetMs == 0 {
		c.Chat.TypingResetMs = d.Chat.TypingResetMs
	}
	if c.Chat.SendRate == 0 {
		c.Chat.SendRate = d.Chat.SendRate
	}
	if c.Chat.SendBurst == 0 {
		c.Chat.SendBurst = d.Chat.SendBurst
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = d.UI.SidebarWidth
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// =============================================================================
// RESOLVED PATHS AND DURATIONS
// =============================================================================

// CachePath returns the identity cache database path.
func (c *Config) CachePath() (string, error) {
	return c.pathOrDefault(c.Identity.CachePath, "cache.db")
}

// CredentialsPath returns the stored credential file path.
func (c *Config) CredentialsPath() (string, error) {
	return c.pathOrDefault(c.Identity.CredentialsPath, "credentials.json")
}

// LogPath returns the log file path.
func (c *Config) LogPath() (string, error) {
	return c.pathOrDefault(c.Log.Path, "relaychat.log")
}

func (c *Config) pathOrDefault(p, name string) (string, error) {
	if p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// IdentityTTL returns the identity cache lifetime.
func (c *Config) IdentityTTL() time.Duration {
	return time.Duration(c.Identity.CacheTTLSecs) * time.Second
}

// TypingReset returns the typing indicator reset delay.
func (c *Config) TypingReset() time.Duration {
	return time.Duration(c.Chat.TypingResetMs) * time.Millisecond
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RELAYCHAT_SERVER_URL: overrides server.base_url
//   - RELAYCHAT_WS_URL: overrides transport.url_template
//   - RELAYCHAT_LOG_LEVEL: overrides log.level
//   - RELAYCHAT_FILTER_POLICY: overrides chat.filter_policy
//   - RELAYCHAT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RELAYCHAT_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("RELAYCHAT_WS_URL"); v != "" {
		c.Transport.URLTemplate = v
	}
	if v := os.Getenv("RELAYCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RELAYCHAT_FILTER_POLICY"); v != "" {
		c.Chat.FilterPolicy = v
	}
	if v := os.Getenv("RELAYCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.filter_policy").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "chat.filter_policy").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("cannot assign nil value")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all leaf configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name, keys)
			continue
		}
		*keys = append(*keys, name)
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
