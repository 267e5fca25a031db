package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// configFilePermissions is the standard permission mode for config files.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// configTemplate is the default config file content written on first use.
// Common settings are present as commented-out defaults; some (OAuth2
// endpoints, skip lists, and a few network and logging options) are not
// listed in it. The template is written once and never
// regenerated — subsequent edits happen at the line level (SetKey/DeleteKey).
const configTemplate = `# svngo configuration
# Docs: https://github.com/tonimelisma/svngo

[auth]
# provider = "basic"
# username = ""
# token_file = ""

[filter]
# skip_dotfiles = false
# skip_symlinks = false
# max_file_size = "0"
# ignore_marker = ".svnignore"

[network]
# connect_timeout = "10s"
# data_timeout = "60s"
# user_agent = "svngo/0.1"

[commit]
# require_log_message = true
# max_items_per_commit = 0

[conflict]
# auto_accept = ""

[logging]
# level = "info"
# file = ""
# format = "text"
`

// CreateConfig writes a fresh config file from the default template. The
// write is atomic (temp file + rename) and parent directories are created
// as needed.
func CreateConfig(path string) error {
	slog.Info("creating config file", "path", path)

	return atomicWriteFile(path, []byte(configTemplate))
}

// SetKey finds section (e.g. "auth") in the config file and sets key to
// value within it. If the key already exists its line is replaced;
// otherwise it is inserted right after the section header. A missing
// section is created by appending it.
//
// Value formatting: "true"/"false" are written bare; everything else is
// written as a quoted string.
func SetKey(path, section, key, value string) error {
	slog.Info("setting config key", "path", path, "section", section, "key", key)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	header, sectionStart := findSectionHeader(lines, section)
	if sectionStart < 0 {
		lines = append(lines, "", "["+section+"]")
		header, sectionStart = len(lines)-1, len(lines)
	}

	newLine := fmt.Sprintf("%s = %s", key, formatTOMLValue(value))
	lines = setKeyInSection(lines, header, sectionStart, key, newLine)

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")))
}

// DeleteKey removes a single key from section. Idempotent: returns nil if
// the key does not exist.
func DeleteKey(path, section, key string) error {
	slog.Info("deleting config key", "path", path, "section", section, "key", key)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	header, sectionStart := findSectionHeader(lines, section)
	if sectionStart < 0 {
		return nil
	}

	lines = deleteKeyInSection(lines, header, sectionStart, key)

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")))
}

// findSectionHeader locates the line index of a "[section]" header.
// Returns the header line index and the section content start (header + 1).
// Returns -1 for both if the section is not found.
func findSectionHeader(lines []string, section string) (int, int) {
	header := "[" + section + "]"

	for i, line := range lines {
		if strings.TrimSpace(line) == header {
			return i, i + 1
		}
	}

	return -1, -1
}

// findSectionEnd returns the index of the first line after section's own
// content: the next "[...]" header, or end of file.
func findSectionEnd(lines []string, sectionStart int) int {
	for i := sectionStart; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "[") {
			return i
		}
	}

	return len(lines)
}

func deleteKeyInSection(lines []string, headerLine, sectionStart int, key string) []string {
	sectionEnd := findSectionEnd(lines, sectionStart)
	keyPrefix, keyPrefixEq := key+" ", key+"="

	for i := headerLine + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, keyPrefix) || strings.HasPrefix(trimmed, keyPrefixEq) {
			return append(lines[:i], lines[i+1:]...)
		}
	}

	return lines
}

func setKeyInSection(lines []string, headerLine, sectionStart int, key, newLine string) []string {
	sectionEnd := findSectionEnd(lines, sectionStart)
	keyPrefix, keyPrefixEq := key+" ", key+"="

	for i := headerLine + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, keyPrefix) || strings.HasPrefix(trimmed, keyPrefixEq) {
			lines[i] = newLine
			return lines
		}
	}

	inserted := make([]string, 0, len(lines)+1)
	inserted = append(inserted, lines[:headerLine+1]...)
	inserted = append(inserted, newLine)
	inserted = append(inserted, lines[headerLine+1:]...)

	return inserted
}

// formatTOMLValue formats a value for TOML output. Booleans are written
// bare (true/false); all other values are quoted strings.
func formatTOMLValue(value string) string {
	if value == "true" || value == "false" {
		return value
	}

	return fmt.Sprintf("%q", value)
}

// atomicWriteFile writes data to a temporary file in the same directory as
// path, then renames it to the target path, so a crash mid-write can never
// leave a truncated config file. Parent directories are created as needed.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
