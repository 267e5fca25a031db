package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConfig_WritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, CreateConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[auth]")
	assert.Contains(t, string(data), "[logging]")
}

func TestCreateConfig_CreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "config.toml")

	require.NoError(t, CreateConfig(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCreateConfig_ParsesAsValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, CreateConfig(path))

	cfg, err := Load(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSetKey_InsertsNewKeyInExistingSection(t *testing.T) {
	path := writeTestConfig(t, "[auth]\nprovider = \"basic\"\n")

	require.NoError(t, SetKey(path, "auth", "username", "alice"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `username = "alice"`)
	assert.Contains(t, string(data), `provider = "basic"`)
}

func TestSetKey_ReplacesExistingKey(t *testing.T) {
	path := writeTestConfig(t, "[logging]\nlevel = \"info\"\n")

	require.NoError(t, SetKey(path, "logging", "level", "debug"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `level = "debug"`)
	assert.NotContains(t, string(data), `level = "info"`)
}

func TestSetKey_CreatesMissingSection(t *testing.T) {
	path := writeTestConfig(t, "[auth]\nprovider = \"basic\"\n")

	require.NoError(t, SetKey(path, "commit", "require_log_message", "false"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[commit]")
	assert.Contains(t, string(data), "require_log_message = false")
}

func TestSetKey_BooleanWrittenBare(t *testing.T) {
	path := writeTestConfig(t, "[network]\n")

	require.NoError(t, SetKey(path, "network", "force_http_11", "true"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "force_http_11 = true")
	assert.NotContains(t, string(data), `force_http_11 = "true"`)
}

func TestDeleteKey_RemovesExistingKey(t *testing.T) {
	path := writeTestConfig(t, "[auth]\nprovider = \"basic\"\nusername = \"alice\"\n")

	require.NoError(t, DeleteKey(path, "auth", "username"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "username")
	assert.Contains(t, string(data), `provider = "basic"`)
}

func TestDeleteKey_MissingSectionIsNoop(t *testing.T) {
	path := writeTestConfig(t, "[auth]\nprovider = \"basic\"\n")

	require.NoError(t, DeleteKey(path, "commit", "max_items_per_commit"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `provider = "basic"`)
}

func TestDeleteKey_MissingKeyIsNoop(t *testing.T) {
	path := writeTestConfig(t, "[auth]\nprovider = \"basic\"\n")

	require.NoError(t, DeleteKey(path, "auth", "token_file"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `provider = "basic"`)
}

func TestFindSectionHeader(t *testing.T) {
	lines := []string{"", "[auth]", "provider = \"basic\"", "", "[network]", "user_agent = \"x\""}

	header, start := findSectionHeader(lines, "network")
	assert.Equal(t, 4, header)
	assert.Equal(t, 5, start)

	header, start = findSectionHeader(lines, "missing")
	assert.Equal(t, -1, header)
	assert.Equal(t, -1, start)
}

func TestFindSectionEnd(t *testing.T) {
	lines := []string{"[auth]", "provider = \"basic\"", "username = \"x\"", "[network]", "user_agent = \"x\""}

	end := findSectionEnd(lines, 1)
	assert.Equal(t, 3, end)
}

func TestFormatTOMLValue(t *testing.T) {
	assert.Equal(t, "true", formatTOMLValue("true"))
	assert.Equal(t, "false", formatTOMLValue("false"))
	assert.Equal(t, `"alice"`, formatTOMLValue("alice"))
	assert.Equal(t, `"0"`, formatTOMLValue("0"))
}

func TestAtomicWriteFile_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, atomicWriteFile(path, []byte("first")))
	require.NoError(t, atomicWriteFile(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestAtomicWriteFile_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, atomicWriteFile(path, []byte("data")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}
