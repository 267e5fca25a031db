package auth

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/tonimelisma/svngo/internal/tokenfile"
)

// persistingTokenSource wraps an oauth2.TokenSource so every silent refresh
// is written back to disk. Stock golang.org/x/oauth2 has no hook for this
// (the teacher's fork carried a non-upstream OnTokenChange callback on
// oauth2.Config); this type gets the same externally observable behavior
// on stock oauth2 by comparing the token after each Token() call and
// persisting it when it has changed.
type persistingTokenSource struct {
	mu        sync.Mutex
	src       oauth2.TokenSource
	tokenPath string
	meta      map[string]string
	logger    *slog.Logger
	lastToken *oauth2.Token
}

func newPersistingTokenSource(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, tokenPath string, meta map[string]string, logger *slog.Logger) *persistingTokenSource {
	raw := cfg.TokenSource(ctx, tok)

	return &persistingTokenSource{
		src:       oauth2.ReuseTokenSource(tok, raw),
		tokenPath: tokenPath,
		meta:      meta,
		logger:    logger,
		lastToken: tok,
	}
}

// AuthHeader returns the "Bearer <token>" header, refreshing and persisting
// the token as needed.
func (p *persistingTokenSource) AuthHeader(_ context.Context) (string, error) {
	tok, err := p.src.Token()
	if err != nil {
		p.logger.Warn("token acquisition failed", "error", err.Error())
		return "", wrapUnauthorized(err, "obtaining token")
	}

	p.persistIfChanged(tok)

	return "Bearer " + tok.AccessToken, nil
}

func (p *persistingTokenSource) persistIfChanged(tok *oauth2.Token) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastToken != nil && p.lastToken.AccessToken == tok.AccessToken {
		return
	}

	p.lastToken = tok

	p.logger.Info("token refreshed", "path", p.tokenPath, "new_expiry", tok.Expiry)

	if err := tokenfile.Save(p.tokenPath, tok, p.meta); err != nil {
		p.logger.Warn("failed to persist refreshed token", "path", p.tokenPath, "error", err.Error())
		return
	}

	p.logger.Info("persisted refreshed token to disk", "path", p.tokenPath)
}

var _ Authenticator = (*persistingTokenSource)(nil)
