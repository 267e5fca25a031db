package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// ProviderConfig carries the subset of config.AuthConfig this package needs
// to build an Authenticator, avoiding an import of internal/config (a leaf
// package should not depend on the higher-level config layer that depends
// on it transitively through the client facade).
type ProviderConfig struct {
	Provider     string
	Username     string
	Password     string
	TokenFile    string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
}

// NewAuthenticator builds the Authenticator selected by cfg.Provider:
// "basic" uses username/password directly; "oauth2" loads (or requires) a
// persisted token at cfg.TokenFile.
func NewAuthenticator(ctx context.Context, cfg ProviderConfig, logger *slog.Logger) (Authenticator, error) {
	switch cfg.Provider {
	case "basic":
		return NewBasicAuthenticator(cfg.Username, cfg.Password), nil
	case "oauth2":
		ep := EndpointConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			AuthURL:      cfg.AuthURL,
			TokenURL:     cfg.TokenURL,
		}

		return TokenSourceFromPath(ctx, ep, cfg.TokenFile, logger)
	default:
		return nil, fmt.Errorf("auth: unknown provider %q", cfg.Provider)
	}
}
