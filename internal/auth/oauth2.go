package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/tonimelisma/svngo/internal/tokenfile"
)

// DeviceAuth holds the device-code response fields a CLI displays to the
// user during the device-code flow.
type DeviceAuth struct {
	UserCode        string
	VerificationURI string
}

// EndpointConfig describes an OAuth2 client registration: the repository
// server's authorization/token endpoints plus the client credentials
// (spec.md §6 "Authentication providers ... pluggable collaborators").
type EndpointConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

func (e EndpointConfig) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     e.ClientID,
		ClientSecret: e.ClientSecret,
		Scopes:       e.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  e.AuthURL,
			TokenURL: e.TokenURL,
		},
	}
}

// Login performs the device-code OAuth2 flow:
//  1. requests a device code from the server
//  2. calls display so the caller can show the user code and verification URL
//  3. polls until the user authorizes (blocking, respects ctx cancellation)
//  4. saves the token to tokenPath
//  5. returns an Authenticator wrapping the resulting token source
func Login(ctx context.Context, ep EndpointConfig, tokenPath string, display func(DeviceAuth), logger *slog.Logger) (Authenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := ep.oauthConfig()

	return doLogin(ctx, tokenPath, cfg, display, logger)
}

func doLogin(ctx context.Context, tokenPath string, cfg *oauth2.Config, display func(DeviceAuth), logger *slog.Logger) (Authenticator, error) {
	logger.Info("starting device code auth flow", "path", tokenPath)

	da, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: device auth request failed: %w", err)
	}

	logger.Info("device code received, waiting for user authorization")

	display(DeviceAuth{
		UserCode:        da.UserCode,
		VerificationURI: da.VerificationURI,
	})

	tok, err := cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("auth: device code authorization failed: %w", err)
	}

	if err := tokenfile.Save(tokenPath, tok, nil); err != nil {
		return nil, fmt.Errorf("auth: saving token: %w", err)
	}

	logger.Info("login successful", "path", tokenPath, "expiry", tok.Expiry)

	return newPersistingTokenSource(ctx, cfg, tok, tokenPath, nil, logger), nil
}

const (
	stateTokenBytes = 16
	callbackPath    = "/"
	shutdownTimeout = 5 * time.Second
)

type callbackResult struct {
	code string
	err  error
}

// LoginWithBrowser performs the authorization-code + PKCE flow:
//  1. binds a localhost HTTP server on a random port
//  2. opens the browser to the server's authorization endpoint
//  3. receives the callback with the authorization code
//  4. exchanges the code for tokens using PKCE
//  5. saves the token to tokenPath
//  6. returns an Authenticator wrapping the resulting token source
//
// openURL is called with the authorization URL; if it returns an error the
// URL is printed to stderr so the user can open it manually.
func LoginWithBrowser(ctx context.Context, ep EndpointConfig, tokenPath string, openURL func(string) error, logger *slog.Logger) (Authenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := ep.oauthConfig()

	return doAuthCodeLogin(ctx, tokenPath, cfg, openURL, logger)
}

func doAuthCodeLogin(ctx context.Context, tokenPath string, cfg *oauth2.Config, openURL func(string) error, logger *slog.Logger) (Authenticator, error) {
	logger.Info("starting browser auth flow (authorization code + PKCE)", "path", tokenPath)

	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()

	srv, port, err := startCallbackServer(ctx, mux, resultCh, logger)
	if err != nil {
		return nil, err
	}

	defer shutdownCallbackServer(srv, logger)

	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d", port)

	verifier := oauth2.GenerateVerifier()

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("auth: generating state token: %w", err)
	}

	registerCallbackHandler(mux, state, resultCh)

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	launchBrowser(authURL, openURL, logger)

	code, err := waitForCallback(ctx, resultCh)
	if err != nil {
		return nil, err
	}

	return exchangeAndSave(ctx, cfg, tokenPath, code, verifier, logger)
}

func startCallbackServer(ctx context.Context, mux *http.ServeMux, resultCh chan<- callbackResult, logger *slog.Logger) (*http.Server, int, error) {
	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("auth: binding localhost listener: %w", err)
	}

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		listener.Close()
		return nil, 0, errors.New("auth: listener address is not TCP")
	}

	port := tcpAddr.Port
	logger.Info("callback server listening", "port", port)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			resultCh <- callbackResult{err: fmt.Errorf("auth: callback server error: %w", serveErr)}
		}
	}()

	return srv, port, nil
}

func registerCallbackHandler(mux *http.ServeMux, state string, resultCh chan<- callbackResult) {
	mux.HandleFunc("GET "+callbackPath, func(w http.ResponseWriter, r *http.Request) {
		handleOAuthCallback(w, r, state, resultCh)
	})
}

func handleOAuthCallback(w http.ResponseWriter, r *http.Request, state string, resultCh chan<- callbackResult) {
	if r.URL.Query().Get("state") != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		resultCh <- callbackResult{err: errors.New("auth: OAuth2 state mismatch (possible CSRF)")}

		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		desc := r.URL.Query().Get("error_description")
		http.Error(w, "Authorization failed: "+errParam, http.StatusBadRequest)
		resultCh <- callbackResult{err: fmt.Errorf("auth: authorization failed: %s: %s", errParam, desc)}

		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		resultCh <- callbackResult{err: errors.New("auth: callback missing authorization code")}

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Authentication successful</h1>"+
		"<p>You can close this window and return to the terminal.</p></body></html>")
	resultCh <- callbackResult{code: code}
}

func shutdownCallbackServer(srv *http.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("callback server shutdown error", "error", err.Error())
	}
}

func launchBrowser(authURL string, openURL func(string) error, logger *slog.Logger) {
	logger.Info("opening browser for authorization")

	if openErr := openURL(authURL); openErr != nil {
		logger.Warn("failed to open browser, printing URL", "error", openErr.Error())
		fmt.Fprintf(os.Stderr, "Open this URL in your browser:\n%s\n", authURL)
	}
}

func waitForCallback(ctx context.Context, resultCh <-chan callbackResult) (string, error) {
	select {
	case result := <-resultCh:
		if result.err != nil {
			return "", result.err
		}

		return result.code, nil
	case <-ctx.Done():
		return "", fmt.Errorf("auth: browser auth canceled: %w", ctx.Err())
	}
}

func exchangeAndSave(ctx context.Context, cfg *oauth2.Config, tokenPath, code, verifier string, logger *slog.Logger) (Authenticator, error) {
	logger.Info("received authorization code, exchanging for token")

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("auth: token exchange failed: %w", err)
	}

	if err := tokenfile.Save(tokenPath, tok, nil); err != nil {
		return nil, fmt.Errorf("auth: saving token: %w", err)
	}

	logger.Info("browser login successful", "path", tokenPath, "expiry", tok.Expiry)

	return newPersistingTokenSource(ctx, cfg, tok, tokenPath, nil, logger), nil
}

func generateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// TokenSourceFromPath loads a saved token from tokenPath and returns an
// Authenticator with auto-refresh and auto-persistence. Returns
// ErrNotLoggedIn if no token file exists at the path.
//
// ctx must outlive the returned Authenticator — if ctx is canceled, silent
// token refresh fails. Callers should pass context.Background() for
// long-lived sessions.
func TokenSourceFromPath(ctx context.Context, ep EndpointConfig, tokenPath string, logger *slog.Logger) (Authenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tok, meta, err := tokenfile.Load(tokenPath)
	if err != nil {
		return nil, err
	}

	if tok == nil {
		return nil, ErrNotLoggedIn
	}

	expired := !tok.Expiry.IsZero() && tok.Expiry.Before(time.Now())
	logger.Info("loaded saved token", "path", tokenPath, "expiry", tok.Expiry, "expired", expired)

	cfg := ep.oauthConfig()

	return newPersistingTokenSource(ctx, cfg, tok, tokenPath, meta, logger), nil
}

// Logout removes the saved token file at tokenPath. Returns nil if the
// token file does not exist (already logged out).
func Logout(tokenPath string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	err := os.Remove(tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("logout: no token file to remove (already logged out)", "path", tokenPath)
		return nil
	}

	if err != nil {
		return err
	}

	logger.Info("logout: removed token file", "path", tokenPath)

	return nil
}
