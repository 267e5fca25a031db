package config

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEffective_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(cfg, &buf))

	output := buf.String()
	assert.Contains(t, output, "[auth]")
	assert.Contains(t, output, "[filter]")
	assert.Contains(t, output, "[network]")
	assert.Contains(t, output, "[commit]")
	assert.Contains(t, output, "[conflict]")
	assert.Contains(t, output, "[logging]")
	assert.Contains(t, output, `provider`)
}

func TestRenderEffective_OptionalFieldsShown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Username = "alice"
	cfg.Auth.TokenFile = "/home/alice/.svngo/token.json"
	cfg.Logging.File = "/var/log/svngo.log"

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(cfg, &buf))

	output := buf.String()
	assert.Contains(t, output, `username   = "alice"`)
	assert.Contains(t, output, `token_file = "/home/alice/.svngo/token.json"`)
	assert.Contains(t, output, `file  = "/var/log/svngo.log"`)
}

func TestRenderEffective_OptionalFieldsOmittedWhenEmpty(t *testing.T) {
	cfg := DefaultConfig()

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(cfg, &buf))

	output := buf.String()
	assert.NotContains(t, output, "username")
	assert.NotContains(t, output, "token_file")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestRenderEffective_PropagatesWriteError(t *testing.T) {
	err := RenderEffective(DefaultConfig(), failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write failed")
}

func TestErrWriter_StopsAfterFirstError(t *testing.T) {
	ew := &errWriter{w: failingWriter{}}
	ew.printf("first")
	ew.printf("second")

	require.Error(t, ew.err)
}
