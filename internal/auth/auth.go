// Package auth implements the credential providers that satisfy
// rasession.Authenticator: HTTP basic auth and an OAuth2 bearer-token
// source with on-disk persistence and auto-refresh.
package auth

import (
	"context"
	"errors"

	"github.com/tonimelisma/svngo/internal/svnerr"
)

// ErrNotLoggedIn is returned by TokenSourceFromPath when no token file
// exists at the given path — the caller must run the login flow first.
var ErrNotLoggedIn = errors.New("auth: not logged in")

// Authenticator supplies the Authorization header value for each request,
// satisfying rasession.Authenticator. Defined here (rather than importing
// rasession's interface) so internal/auth has no dependency on internal/
// rasession — the facade wires the two together.
type Authenticator interface {
	AuthHeader(ctx context.Context) (string, error)
}

func wrapUnauthorized(cause error, format string, args ...any) error {
	return svnerr.Wrap(svnerr.KindUnauthorized, cause, format, args...)
}
