package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/svngo/internal/tokenfile"
)

const testTokenJSON = `{
	"access_token": "test-access-token",
	"token_type": "Bearer",
	"refresh_token": "test-refresh-token",
	"expires_in": 3600
}`

const testDeviceCodeJSON = `{
	"device_code": "test-device-code",
	"user_code": "ABCD-1234",
	"verification_uri": "https://example.com/device",
	"expires_in": 900,
	"interval": 1
}`

// newMockOAuthServer starts a test server handling device-code + token
// requests. tokenHandler controls the token endpoint; nil returns
// testTokenJSON unconditionally.
func newMockOAuthServer(t *testing.T, tokenHandler http.HandlerFunc) *oauth2.Config {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /devicecode", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testDeviceCodeJSON))
	})

	handler := tokenHandler
	if handler == nil {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(testTokenJSON))
		}
	}

	mux.HandleFunc("POST /token", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &oauth2.Config{
		ClientID: "test-client",
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: srv.URL + "/devicecode",
			TokenURL:      srv.URL + "/token",
		},
	}
}

func noopDisplay(_ DeviceAuth) {}

func TestDoLogin_Success(t *testing.T) {
	cfg := newMockOAuthServer(t, nil)
	tokenPath := filepath.Join(t.TempDir(), "tokens", "test.json")

	var displayed DeviceAuth
	authr, err := doLogin(context.Background(), tokenPath, cfg, func(da DeviceAuth) {
		displayed = da
	}, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, authr)

	assert.Equal(t, "ABCD-1234", displayed.UserCode)
	assert.Equal(t, "https://example.com/device", displayed.VerificationURI)

	loaded, _, err := tokenfile.Load(tokenPath)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "test-access-token", loaded.AccessToken)

	header, err := authr.AuthHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-access-token", header)
}

func TestDoLogin_UserDeclined(t *testing.T) {
	cfg := newMockOAuthServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"access_denied","error_description":"user declined"}`))
	})
	tokenPath := filepath.Join(t.TempDir(), "tokens", "test.json")

	_, err := doLogin(context.Background(), tokenPath, cfg, noopDisplay, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestDoLogin_ContextCancel(t *testing.T) {
	cfg := newMockOAuthServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"authorization_pending"}`))
	})
	tokenPath := filepath.Join(t.TempDir(), "tokens", "test.json")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := doLogin(ctx, tokenPath, cfg, noopDisplay, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoLogin_PendingThenSuccess(t *testing.T) {
	var polls atomic.Int32

	cfg := newMockOAuthServer(t, func(w http.ResponseWriter, _ *http.Request) {
		n := polls.Add(1)
		w.Header().Set("Content-Type", "application/json")

		if n <= 2 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"authorization_pending"}`))

			return
		}

		_, _ = w.Write([]byte(testTokenJSON))
	})
	tokenPath := filepath.Join(t.TempDir(), "tokens", "pending.json")

	authr, err := doLogin(context.Background(), tokenPath, cfg, noopDisplay, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, authr)

	header, err := authr.AuthHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-access-token", header)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestTokenSourceFromPath_NoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.json")

	_, err := TokenSourceFromPath(context.Background(), EndpointConfig{}, path, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestTokenSourceFromPath_LoadsSavedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "saved.json")
	tok := &oauth2.Token{
		AccessToken:  "saved-access-token",
		RefreshToken: "saved-refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}
	require.NoError(t, tokenfile.Save(path, tok, nil))

	authr, err := TokenSourceFromPath(context.Background(), EndpointConfig{}, path, slog.Default())
	require.NoError(t, err)

	header, err := authr.AuthHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer saved-access-token", header)
}

func TestLogout_RemovesTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "logout.json")
	require.NoError(t, tokenfile.Save(path, &oauth2.Token{AccessToken: "x"}, nil))

	require.NoError(t, Logout(path, slog.Default()))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLogout_NoFileIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.json")
	assert.NoError(t, Logout(path, slog.Default()))
}

func TestTokenSourceFromPath_PersistsSilentRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"refreshed-token","token_type":"Bearer","expires_in":3600}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "tokens", "expiring.json")
	expired := &oauth2.Token{
		AccessToken:  "stale-token",
		RefreshToken: "refresh-me",
		Expiry:       time.Now().Add(-time.Hour),
	}
	require.NoError(t, tokenfile.Save(path, expired, nil))

	authr, err := TokenSourceFromPath(context.Background(), EndpointConfig{TokenURL: srv.URL + "/token"}, path, slog.Default())
	require.NoError(t, err)

	header, err := authr.AuthHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer refreshed-token", header)

	loaded, _, err := tokenfile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", loaded.AccessToken)
}
