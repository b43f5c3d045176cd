// Package upstream talks to the identity provider that checks end-user
// credentials and mints the token set bound to authorization codes.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"golang.org/x/oauth2"
)

var (
	// ErrRejected means the provider refused the credentials.
	ErrRejected = errors.New("upstream: credentials rejected")

	// ErrNotConfigured is returned by Disabled.
	ErrNotConfigured = errors.New("upstream: no identity provider configured")
)

// Authenticator exchanges end-user credentials for a token set.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (domain.Tokens, error)
}

// Disabled rejects every authentication attempt.
type Disabled struct{}

func (Disabled) Authenticate(context.Context, string, string) (domain.Tokens, error) {
	return domain.Tokens{}, ErrNotConfigured
}

type PasswordConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// HTTPClient overrides the client used for token requests.
	HTTPClient *http.Client
}

// PasswordAuthenticator uses the resource owner password credentials grant
// against the provider's token endpoint.
type PasswordAuthenticator struct {
	oauth  *oauth2.Config
	client *http.Client
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

func NewPasswordAuthenticator(cfg PasswordConfig) (*PasswordAuthenticator, error) {
	if cfg.TokenURL == "" {
		return nil, errors.New("upstream: token url required")
	}

	style := oauth2.AuthStyleInHeader
	if cfg.ClientSecret == "" {
		style = oauth2.AuthStyleInParams
	}

	return &PasswordAuthenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: style,
			},
		},
		client: cfg.HTTPClient,
	}, nil
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (domain.Tokens, error) {
	if a.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)
	}

	tok, err := a.oauth.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < http.StatusInternalServerError {
			return domain.Tokens{}, fmt.Errorf("%w: %s", ErrRejected, re.ErrorCode)
		}
		return domain.Tokens{}, fmt.Errorf("upstream: token request: %w", err)
	}

	return tokensFrom(tok, time.Now()), nil
}

func tokensFrom(tok *oauth2.Token, now time.Time) domain.Tokens {
	out := domain.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		ExpiresIn:    tok.ExpiresIn,
	}
	if out.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		out.ExpiresIn = max(int64(tok.Expiry.Sub(now).Round(time.Second)/time.Second), 0)
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		out.IDToken = id
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	return out
}
