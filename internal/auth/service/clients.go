package service

import (
	"context"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	"github.com/aussiebroadwan/codegrant/internal/auth/telemetry"
	"github.com/aussiebroadwan/codegrant/pkg/cryptox"
	"github.com/aussiebroadwan/codegrant/pkg/slogx"
)

// ClientRegistry answers whether a caller is a registered client. It never
// writes to the store.
type ClientRegistry struct {
	Store   store.Store
	Metrics *telemetry.Metrics
	Secrets cryptox.Hasher
}

// VerifyClientAndRedirect returns the client when clientID is registered and
// redirectURI is one of its redirect URIs, compared byte for byte.
func (r *ClientRegistry) VerifyClientAndRedirect(ctx context.Context, clientID, redirectURI string) (domain.Client, error) {
	const op = "clients.verify_redirect"

	client, err := r.lookup(ctx, op, clientID)
	if err != nil {
		return domain.Client{}, err
	}

	if !client.AllowsRedirect(redirectURI) {
		slogx.FromContext(ctx).Info("redirect uri not registered",
			"client_id", clientID,
			"redirect_uri", redirectURI,
		)
		r.Metrics.ClientVerified(KindRedirectMismatch.Code())
		return domain.Client{}, fail(op, KindRedirectMismatch, nil)
	}

	r.Metrics.ClientVerified(telemetry.OutcomeSuccess)
	return client, nil
}

// VerifyClientSecret authenticates clientID. Public clients pass only when no
// secret is presented; confidential clients need an exact match. A nil and an
// empty secret are treated alike.
func (r *ClientRegistry) VerifyClientSecret(ctx context.Context, clientID string, clientSecret *string) error {
	const op = "clients.verify_secret"

	client, err := r.lookup(ctx, op, clientID)
	if err != nil {
		return err
	}

	var presented string
	if clientSecret != nil {
		presented = *clientSecret
	}

	if !r.secretMatches(client, presented) {
		slogx.FromContext(ctx).Info("client authentication failed",
			"client_id", clientID,
			"public", client.Public(),
		)
		r.Metrics.ClientVerified(KindInvalidClientSecret.Code())
		return fail(op, KindInvalidClientSecret, nil)
	}

	r.Metrics.ClientVerified(telemetry.OutcomeSuccess)
	return nil
}

func (r *ClientRegistry) secretMatches(client domain.Client, presented string) bool {
	switch {
	case client.Public():
		return presented == ""
	case presented == "":
		return false
	case client.HashedSecret():
		return r.Secrets.VerifySecret(presented, client.Secret) == nil
	default:
		return cryptox.ConstantTimeEqual(presented, client.Secret)
	}
}

// ExtractClientCredentials parses an HTTP Basic Authorization header value
// into a client id and secret. The decoded payload is split on the first
// colon; an empty secret comes back as nil.
func (r *ClientRegistry) ExtractClientCredentials(authorizationHeader string) (string, *string, error) {
	const op = "clients.extract_credentials"

	scheme, value, ok := strings.Cut(authorizationHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return "", nil, fail(op, KindMalformedAuthHeader, nil)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return "", nil, fail(op, KindMalformedAuthHeader, err)
	}
	if !utf8.Valid(raw) {
		return "", nil, fail(op, KindMalformedAuthHeader, nil)
	}

	id, secret, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", nil, fail(op, KindMalformedAuthHeader, nil)
	}
	if secret == "" {
		return id, nil, nil
	}
	return id, &secret, nil
}

func (r *ClientRegistry) lookup(ctx context.Context, op, clientID string) (domain.Client, error) {
	if clientID == "" {
		r.Metrics.ClientVerified(KindClientNotFound.Code())
		return domain.Client{}, fail(op, KindClientNotFound, nil)
	}

	client, err := r.Store.Clients().GetClientByID(ctx, clientID)
	switch store.KindOf(err) {
	case store.KindUnknown:
		if err == nil {
			return client, nil
		}
	case store.KindNotFound:
		slogx.FromContext(ctx).Info("unknown client", "client_id", clientID)
		r.Metrics.ClientVerified(KindClientNotFound.Code())
		return domain.Client{}, fail(op, KindClientNotFound, nil)
	}

	slogx.FromContext(ctx).Error("client lookup failed", "client_id", clientID, "error", err)
	r.Metrics.ClientVerified(KindStoreError.Code())
	return domain.Client{}, fail(op, KindStoreError, err)
}
