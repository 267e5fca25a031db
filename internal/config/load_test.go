package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a debug-level logger that writes to stderr, ensuring all
// config debug output appears in test output for CI visibility.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

func TestLoad_ValidFullConfig(t *testing.T) {
	tomlContent := `
[auth]
provider = "oauth2"
username = "alice"
token_file = "/home/alice/.svngo/token.json"
client_id = "abc123"
auth_url = "https://example.com/authorize"
token_url = "https://example.com/token"

[filter]
skip_files = ["*.tmp", "*.swp"]
skip_dirs = ["node_modules", ".git"]
skip_dotfiles = true
skip_symlinks = true
max_file_size = "1GB"
ignore_marker = ".syncignore"

[network]
connect_timeout = "20s"
data_timeout = "90s"
user_agent = "svngo/test"
force_http_11 = true

[commit]
require_log_message = false
max_items_per_commit = 500

[conflict]
auto_accept = "postpone"

[logging]
level = "debug"
file = "/var/log/svngo.log"
format = "json"
log_retention_days = 7
`
	path := writeTestConfig(t, tomlContent)

	cfg, err := Load(path, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "oauth2", cfg.Auth.Provider)
	assert.Equal(t, "alice", cfg.Auth.Username)
	assert.Equal(t, []string{"*.tmp", "*.swp"}, cfg.Filter.SkipFiles)
	assert.True(t, cfg.Filter.SkipDotfiles)
	assert.Equal(t, "1GB", cfg.Filter.MaxFileSize)
	assert.Equal(t, "20s", cfg.Network.ConnectTimeout)
	assert.False(t, cfg.Commit.RequireLogMessage)
	assert.Equal(t, 500, cfg.Commit.MaxItemsPerCommit)
	assert.Equal(t, "postpone", cfg.Conflict.AutoAccept)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 7, cfg.Logging.LogRetentionDays)
}

func TestLoad_PartialConfig_FillsDefaults(t *testing.T) {
	tomlContent := `
[logging]
level = "warn"
`
	path := writeTestConfig(t, tomlContent)

	cfg, err := Load(path, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format) // default, not overridden
	assert.Equal(t, "basic", cfg.Auth.Provider) // default, not overridden
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml", testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_MalformedTOML_ReturnsError(t *testing.T) {
	path := writeTestConfig(t, `[auth\nprovider = `)

	_, err := Load(path, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_UnknownTopLevelKey_ReturnsError(t *testing.T) {
	path := writeTestConfig(t, `
[auth]
provider = "basic"

[bogus]
nonsense = true
`)

	_, err := Load(path, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoad_InvalidValue_FailsValidation(t *testing.T) {
	path := writeTestConfig(t, `
[auth]
provider = "nope"
`)

	_, err := Load(path, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadOrDefault_FileExists(t *testing.T) {
	path := writeTestConfig(t, `
[logging]
level = "error"
`)

	cfg, err := LoadOrDefault(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadOrDefault_FileMissing_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.toml")

	cfg, err := LoadOrDefault(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolveConfigPath_DefaultWhenNothingSet(t *testing.T) {
	path := ResolveConfigPath(EnvOverrides{}, "", testLogger(t))
	assert.Equal(t, DefaultConfigPath(), path)
}

func TestResolveConfigPath_EnvOverridesDefault(t *testing.T) {
	path := ResolveConfigPath(EnvOverrides{ConfigPath: "/env/config.toml"}, "", testLogger(t))
	assert.Equal(t, "/env/config.toml", path)
}

func TestResolveConfigPath_CLIOverridesEnv(t *testing.T) {
	path := ResolveConfigPath(EnvOverrides{ConfigPath: "/env/config.toml"}, "/cli/config.toml", testLogger(t))
	assert.Equal(t, "/cli/config.toml", path)
}

func TestApplyEnvOverrides_SetsUsername(t *testing.T) {
	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg, EnvOverrides{Username: "bob"})
	assert.Equal(t, "bob", cfg.Auth.Username)
}

func TestApplyEnvOverrides_EmptyLeavesDefault(t *testing.T) {
	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg, EnvOverrides{})
	assert.Empty(t, cfg.Auth.Username)
}
