// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for svngo.
package config

// Config is the top-level configuration structure: global sections layered
// defaults -> config file -> environment variables -> CLI flags (spec.md
// §6 client-facade "context object carrying ... config map").
type Config struct {
	Auth     AuthConfig     `toml:"auth"`
	Filter   FilterConfig   `toml:"filter"`
	Network  NetworkConfig  `toml:"network"`
	Commit   CommitConfig   `toml:"commit"`
	Conflict ConflictConfig `toml:"conflict"`
	Logging  LoggingConfig  `toml:"logging"`
}

// AuthConfig selects and configures the credential provider used to
// authenticate the repository-access session (spec.md §6 "Authentication
// providers ... pluggable collaborators").
type AuthConfig struct {
	// Provider selects the credential mechanism: "oauth2" or "basic".
	Provider string `toml:"provider"`
	Username string `toml:"username"`
	// TokenFile is where a persisted OAuth2 token is cached (internal/auth).
	TokenFile string `toml:"token_file"`
	// OAuth2 client registration, when Provider == "oauth2".
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
}

// FilterConfig controls which paths are considered during status/commit
// harvesting and import (spec.md §4.2 harvest step, §6 import).
type FilterConfig struct {
	SkipFiles    []string `toml:"skip_files"`
	SkipDirs     []string `toml:"skip_dirs"`
	SkipDotfiles bool     `toml:"skip_dotfiles"`
	SkipSymlinks bool     `toml:"skip_symlinks"`
	MaxFileSize  string   `toml:"max_file_size"`
	IgnoreMarker string   `toml:"ignore_marker"`
}

// NetworkConfig controls the HTTP client underlying internal/rasession.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	UserAgent      string `toml:"user_agent"`
	ForceHTTP11    bool   `toml:"force_http_11"`
}

// CommitConfig controls the commit driver (internal/commit): how large a
// single activity may grow and whether a log message is mandatory.
type CommitConfig struct {
	RequireLogMessage bool `toml:"require_log_message"`
	MaxItemsPerCommit int  `toml:"max_items_per_commit"`
}

// ConflictConfig controls default conflict-resolution behavior
// (internal/conflict): an auto-resolution policy setting, mirroring svn's
// --accept flag. No command in cmd/svngo reads it; `svngo resolve` takes
// its option from its own --accept flag.
type ConflictConfig struct {
	// AutoAccept is a default Option name applied when a caller does not
	// interactively choose one: "postpone" (the svn default), "base",
	// "incoming", "working", "merged", or "" to require interaction.
	AutoAccept string `toml:"auto_accept"`
}

// LoggingConfig controls log output (internal/*'s shared slog.Logger).
type LoggingConfig struct {
	Level            string `toml:"level"`
	File             string `toml:"file"`
	Format           string `toml:"format"` // "text" | "json"
	LogRetentionDays int    `toml:"log_retention_days"`
}
