package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_AllFieldsPopulated(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "basic", cfg.Auth.Provider)
	assert.Empty(t, cfg.Auth.TokenFile)

	assert.False(t, cfg.Filter.SkipDotfiles)
	assert.False(t, cfg.Filter.SkipSymlinks)
	assert.Equal(t, "0", cfg.Filter.MaxFileSize)
	assert.Equal(t, ".svnignore", cfg.Filter.IgnoreMarker)
	assert.Empty(t, cfg.Filter.SkipFiles)
	assert.Empty(t, cfg.Filter.SkipDirs)

	assert.Equal(t, "10s", cfg.Network.ConnectTimeout)
	assert.Equal(t, "60s", cfg.Network.DataTimeout)
	assert.Equal(t, "svngo/0.1", cfg.Network.UserAgent)
	assert.False(t, cfg.Network.ForceHTTP11)

	assert.True(t, cfg.Commit.RequireLogMessage)
	assert.Equal(t, 0, cfg.Commit.MaxItemsPerCommit)

	assert.Empty(t, cfg.Conflict.AutoAccept)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 30, cfg.Logging.LogRetentionDays)
}

func TestDefaultConfig_PassesValidation(t *testing.T) {
	cfg := DefaultConfig()
	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestDefaultConfig_ReturnsFreshInstanceEachCall(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg2 := DefaultConfig()

	cfg1.Logging.Level = "debug"

	assert.Equal(t, "info", cfg2.Logging.Level)
}
