package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, Validate(cfg))
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Provider = "nope"
	cfg.Logging.Level = "nope"
	cfg.Logging.Format = "nope"

	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "auth.provider")
	assert.Contains(t, msg, "logging.level")
	assert.Contains(t, msg, "logging.format")
}

func TestValidateAuth(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthConfig
		wantErr bool
	}{
		{"basic ok", AuthConfig{Provider: "basic"}, false},
		{"oauth2 ok", AuthConfig{Provider: "oauth2", ClientID: "id", TokenURL: "https://x/token"}, false},
		{"oauth2 missing client_id", AuthConfig{Provider: "oauth2", TokenURL: "https://x/token"}, true},
		{"oauth2 missing token_url", AuthConfig{Provider: "oauth2", ClientID: "id"}, true},
		{"unknown provider", AuthConfig{Provider: "ldap"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateAuth(&tt.auth)
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  FilterConfig
		wantErr bool
	}{
		{"defaults ok", FilterConfig{MaxFileSize: "0", IgnoreMarker: ".svnignore"}, false},
		{"size with suffix ok", FilterConfig{MaxFileSize: "10MB", IgnoreMarker: ".svnignore"}, false},
		{"bad size", FilterConfig{MaxFileSize: "not-a-size", IgnoreMarker: ".svnignore"}, true},
		{"empty ignore marker", FilterConfig{MaxFileSize: "0", IgnoreMarker: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateFilter(&tt.filter)
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateNetwork(t *testing.T) {
	tests := []struct {
		name    string
		network NetworkConfig
		wantErr bool
	}{
		{"defaults ok", NetworkConfig{ConnectTimeout: "10s", DataTimeout: "60s"}, false},
		{"connect timeout too low", NetworkConfig{ConnectTimeout: "100ms", DataTimeout: "60s"}, true},
		{"data timeout too low", NetworkConfig{ConnectTimeout: "10s", DataTimeout: "1s"}, true},
		{"invalid duration", NetworkConfig{ConnectTimeout: "soon", DataTimeout: "60s"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateNetwork(&tt.network)
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateCommit(t *testing.T) {
	assert.Empty(t, validateCommit(&CommitConfig{MaxItemsPerCommit: 0}))
	assert.Empty(t, validateCommit(&CommitConfig{MaxItemsPerCommit: 100}))
	assert.NotEmpty(t, validateCommit(&CommitConfig{MaxItemsPerCommit: -1}))
}

func TestValidateConflict(t *testing.T) {
	for _, v := range []string{"", "postpone", "base", "incoming", "working", "merged"} {
		t.Run(v, func(t *testing.T) {
			assert.Empty(t, validateConflict(&ConflictConfig{AutoAccept: v}))
		})
	}

	assert.NotEmpty(t, validateConflict(&ConflictConfig{AutoAccept: "bogus"}))
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name    string
		logging LoggingConfig
		wantErr bool
	}{
		{"defaults ok", LoggingConfig{Level: "info", Format: "text", LogRetentionDays: 30}, false},
		{"bad level", LoggingConfig{Level: "verbose", Format: "text", LogRetentionDays: 30}, true},
		{"bad format", LoggingConfig{Level: "info", Format: "xml", LogRetentionDays: 30}, true},
		{"zero retention", LoggingConfig{Level: "info", Format: "text", LogRetentionDays: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateLogging(&tt.logging)
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, validateDuration("x", "10s", time.Second))
	assert.Error(t, validateDuration("x", "bogus", time.Second))
	assert.Error(t, validateDuration("x", "1ms", time.Second))
}
