// Package googleauth obtains and verifies the Google ID token consumed by
// the federated login path. The session service trusts the token only after
// its own verification; the client-side check here exists to fail fast on a
// bad exchange before a doomed login round trip.
package googleauth

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/renatrack/renatrack-client/internal/config"
)

const googleIssuer = "https://accounts.google.com"

// Authenticator performs the authorization-code exchange against Google and
// verifies the resulting ID token.
type Authenticator struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// New discovers the Google OIDC endpoints and builds the exchange config.
func New(ctx context.Context, cfg config.GoogleConfig) (*Authenticator, error) {
	if cfg == nil {
		return nil, errors.New("[googleauth.New] config is required")
	}
	if cfg.GetGoogleClientID() == "" {
		return nil, errors.New("[googleauth.New] google client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, errors.Wrap(err, "[googleauth.New] oidc.NewProvider")
	}

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.GetGoogleClientID(),
			ClientSecret: cfg.GetGoogleClientSecret(),
			RedirectURL:  cfg.GetGoogleRedirectURL(),
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.GetGoogleClientID()}),
	}, nil
}

// AuthCodeURL returns the consent-screen URL for the given state value.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// IDTokenFromCode exchanges an authorization code and returns the verified
// raw ID token, ready for the session service's google-login endpoint.
func (a *Authenticator) IDTokenFromCode(ctx context.Context, code string) (string, error) {
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return "", errors.Wrap(err, "[Authenticator.IDTokenFromCode] Exchange")
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.New("[Authenticator.IDTokenFromCode] no id_token in exchange response")
	}

	if _, err := a.verifier.Verify(ctx, rawIDToken); err != nil {
		return "", errors.Wrap(err, "[Authenticator.IDTokenFromCode] Verify")
	}

	return rawIDToken, nil
}
