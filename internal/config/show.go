package config

import (
	"fmt"
	"io"
)

// RenderEffective writes cfg as a human-readable annotated summary to w.
// It shows the effective values after all four override layers
// (defaults -> file -> env -> CLI) have been applied.
func RenderEffective(cfg *Config, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective svngo configuration\n\n")

	renderAuthSection(ew, &cfg.Auth)
	renderFilterSection(ew, &cfg.Filter)
	renderNetworkSection(ew, &cfg.Network)
	renderCommitSection(ew, &cfg.Commit)
	renderConflictSection(ew, &cfg.Conflict)
	renderLoggingSection(ew, &cfg.Logging)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain printf
// calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderAuthSection(ew *errWriter, a *AuthConfig) {
	ew.printf("[auth]\n")
	ew.printf("  provider   = %q\n", a.Provider)

	if a.Username != "" {
		ew.printf("  username   = %q\n", a.Username)
	}

	if a.TokenFile != "" {
		ew.printf("  token_file = %q\n", a.TokenFile)
	}

	ew.printf("\n")
}

func renderFilterSection(ew *errWriter, f *FilterConfig) {
	ew.printf("[filter]\n")
	ew.printf("  skip_dotfiles = %t\n", f.SkipDotfiles)
	ew.printf("  skip_symlinks = %t\n", f.SkipSymlinks)
	ew.printf("  max_file_size = %q\n", f.MaxFileSize)
	ew.printf("  ignore_marker = %q\n", f.IgnoreMarker)
	ew.printf("\n")
}

func renderNetworkSection(ew *errWriter, n *NetworkConfig) {
	ew.printf("[network]\n")
	ew.printf("  connect_timeout = %q\n", n.ConnectTimeout)
	ew.printf("  data_timeout    = %q\n", n.DataTimeout)
	ew.printf("  user_agent      = %q\n", n.UserAgent)
	ew.printf("  force_http_11   = %t\n", n.ForceHTTP11)
	ew.printf("\n")
}

func renderCommitSection(ew *errWriter, c *CommitConfig) {
	ew.printf("[commit]\n")
	ew.printf("  require_log_message  = %t\n", c.RequireLogMessage)
	ew.printf("  max_items_per_commit = %d\n", c.MaxItemsPerCommit)
	ew.printf("\n")
}

func renderConflictSection(ew *errWriter, c *ConflictConfig) {
	ew.printf("[conflict]\n")
	ew.printf("  auto_accept = %q\n", c.AutoAccept)
	ew.printf("\n")
}

func renderLoggingSection(ew *errWriter, l *LoggingConfig) {
	ew.printf("[logging]\n")
	ew.printf("  level = %q\n", l.Level)

	if l.File != "" {
		ew.printf("  file  = %q\n", l.File)
	}

	ew.printf("  format             = %q\n", l.Format)
	ew.printf("  log_retention_days = %d\n", l.LogRetentionDays)
}
