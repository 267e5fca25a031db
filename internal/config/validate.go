package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation range constants.
const (
	minLogRetention   = 1
	minConnectTimeout = 1 * time.Second
	minDataTimeout    = 5 * time.Second
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateFilter(&cfg.Filter)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)
	errs = append(errs, validateCommit(&cfg.Commit)...)
	errs = append(errs, validateConflict(&cfg.Conflict)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

var validAuthProviders = map[string]bool{
	"basic":  true,
	"oauth2": true,
}

func validateAuth(a *AuthConfig) []error {
	var errs []error

	if !validAuthProviders[a.Provider] {
		errs = append(errs, fmt.Errorf("auth.provider: must be one of basic, oauth2; got %q", a.Provider))
	}

	if a.Provider == "oauth2" && (a.ClientID == "" || a.TokenURL == "") {
		errs = append(errs, errors.New("auth.provider=oauth2 requires client_id and token_url"))
	}

	return errs
}

func validateFilter(f *FilterConfig) []error {
	var errs []error

	if f.MaxFileSize != "" && f.MaxFileSize != "0" {
		if _, err := parseSize(f.MaxFileSize); err != nil {
			errs = append(errs, fmt.Errorf("filter.max_file_size: %w", err))
		}
	}

	if f.IgnoreMarker == "" {
		errs = append(errs, errors.New("filter.ignore_marker: must not be empty"))
	}

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("network.connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDurationMin("network.data_timeout", n.DataTimeout, minDataTimeout)...)

	return errs
}

func validateCommit(c *CommitConfig) []error {
	var errs []error

	if c.MaxItemsPerCommit < 0 {
		errs = append(errs, fmt.Errorf("commit.max_items_per_commit: must be >= 0, got %d", c.MaxItemsPerCommit))
	}

	return errs
}

// validAutoAcceptOptions lists the whole-value subset of internal/conflict's
// text/prop Option names (spec.md §4.3.2), plus "" for "require
// interaction." The *-where-conflicted options are not accepted here.
var validAutoAcceptOptions = map[string]bool{
	"":         true,
	"postpone": true,
	"base":     true,
	"incoming": true,
	"working":  true,
	"merged":   true,
}

func validateConflict(c *ConflictConfig) []error {
	if !validAutoAcceptOptions[c.AutoAccept] {
		return []error{fmt.Errorf("conflict.auto_accept: must be one of \"\", postpone, base, incoming, working, merged; got %q", c.AutoAccept)}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.Level)...)
	errs = append(errs, validateLogFormat(l.Format)...)

	if l.LogRetentionDays < minLogRetention {
		errs = append(errs, fmt.Errorf("logging.log_retention_days: must be >= %d, got %d",
			minLogRetention, l.LogRetentionDays))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("logging.level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("logging.format: must be one of text, json; got %q", format)}
	}

	return nil
}

func validateDuration(field, value string, minimum time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}

	if d < minimum {
		return fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)
	}

	return nil
}

func validateDurationMin(field, value string, minimum time.Duration) []error {
	if err := validateDuration(field, value, minimum); err != nil {
		return []error{err}
	}

	return nil
}
