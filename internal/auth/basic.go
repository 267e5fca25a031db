package auth

import (
	"context"
	"encoding/base64"
	"fmt"
)

// BasicAuthenticator implements Authenticator via HTTP basic auth,
// svn's default credential mechanism for repositories fronted by a
// WebDAV server with htpasswd-style authentication.
type BasicAuthenticator struct {
	Username string
	Password string
}

// NewBasicAuthenticator returns a BasicAuthenticator for username/password.
func NewBasicAuthenticator(username, password string) *BasicAuthenticator {
	return &BasicAuthenticator{Username: username, Password: password}
}

// AuthHeader returns the "Basic <base64>" Authorization header value.
// ctx is accepted to satisfy Authenticator; basic auth needs no network
// round trip or cancellation point.
func (b *BasicAuthenticator) AuthHeader(_ context.Context) (string, error) {
	raw := fmt.Sprintf("%s:%s", b.Username, b.Password)
	encoded := base64.StdEncoding.EncodeToString([]byte(raw))

	return "Basic " + encoded, nil
}

var _ Authenticator = (*BasicAuthenticator)(nil)
