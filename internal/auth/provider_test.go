package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/svngo/internal/tokenfile"
)

func TestNewAuthenticator_Basic(t *testing.T) {
	authr, err := NewAuthenticator(context.Background(), ProviderConfig{
		Provider: "basic",
		Username: "alice",
		Password: "secret",
	}, nil)
	require.NoError(t, err)

	header, err := authr.AuthHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Basic ", header[:6])
}

func TestNewAuthenticator_OAuth2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, tokenfile.Save(path, &oauth2.Token{
		AccessToken: "tok",
		Expiry:      time.Now().Add(time.Hour),
	}, nil))

	authr, err := NewAuthenticator(context.Background(), ProviderConfig{
		Provider:  "oauth2",
		TokenFile: path,
	}, nil)
	require.NoError(t, err)

	header, err := authr.AuthHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", header)
}

func TestNewAuthenticator_UnknownProvider(t *testing.T) {
	_, err := NewAuthenticator(context.Background(), ProviderConfig{Provider: "ldap"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
