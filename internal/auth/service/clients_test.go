package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/telemetry"
	"github.com/aussiebroadwan/codegrant/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func basic(payload string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestVerifyClientAndRedirect(t *testing.T) {
	ctx := context.Background()
	reg := &ClientRegistry{Store: seededStore(t)}

	t.Run("registered pair", func(t *testing.T) {
		c, err := reg.VerifyClientAndRedirect(ctx, webClientID, webRedirect)
		require.NoError(t, err)
		require.Equal(t, webClientID, c.ID)
	})

	t.Run("unregistered redirect", func(t *testing.T) {
		for _, uri := range []string{
			"",
			webRedirect + "/",
			"https://evil.example.com/callback",
			cliRedirect,
		} {
			_, err := reg.VerifyClientAndRedirect(ctx, webClientID, uri)
			require.ErrorIs(t, err, ErrRedirectMismatch, "uri %q", uri)
		}
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := reg.VerifyClientAndRedirect(ctx, "nope", webRedirect)
		require.ErrorIs(t, err, ErrClientNotFound)

		_, err = reg.VerifyClientAndRedirect(ctx, "", webRedirect)
		require.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		broken := &ClientRegistry{Store: brokenStore{}}
		_, err := broken.VerifyClientAndRedirect(ctx, webClientID, webRedirect)
		require.ErrorIs(t, err, ErrStore)
		require.ErrorIs(t, err, errBackend)
	})
}

func TestVerifyClientSecret(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	hashed, err := cryptox.HashSecret("hashed-secret")
	require.NoError(t, err)
	require.NoError(t, s.Clients().UpsertClient(ctx, domain.Client{
		ID:           "hashed",
		Secret:       hashed,
		RedirectURIs: []string{webRedirect},
	}))

	reg := &ClientRegistry{Store: s, Metrics: telemetry.New()}

	cases := []struct {
		name     string
		clientID string
		secret   *string
		want     error
	}{
		{"confidential exact match", webClientID, ptr(webSecret), nil},
		{"confidential wrong secret", webClientID, ptr("wrong"), ErrInvalidClientSecret},
		{"confidential prefix", webClientID, ptr(webSecret[:3]), ErrInvalidClientSecret},
		{"confidential missing secret", webClientID, nil, ErrInvalidClientSecret},
		{"confidential empty secret", webClientID, ptr(""), ErrInvalidClientSecret},
		{"public without secret", cliClientID, nil, nil},
		{"public with empty secret", cliClientID, ptr(""), nil},
		{"public with secret", cliClientID, ptr("anything"), ErrInvalidClientSecret},
		{"hashed match", "hashed", ptr("hashed-secret"), nil},
		{"hashed mismatch", "hashed", ptr("nope"), ErrInvalidClientSecret},
		{"hashed literal hash", "hashed", ptr(hashed), ErrInvalidClientSecret},
		{"unknown client", "nope", ptr("x"), ErrClientNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := reg.VerifyClientSecret(ctx, tc.clientID, tc.secret)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerifyClientSecretUsesRegistryPepper(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	hasher := cryptox.Hasher{Pepper: "pepper-value"}
	hashed, err := hasher.HashSecret("hashed-secret")
	require.NoError(t, err)
	require.NoError(t, s.Clients().UpsertClient(ctx, domain.Client{
		ID:           "peppered",
		Secret:       hashed,
		RedirectURIs: []string{webRedirect},
	}))

	peppered := &ClientRegistry{Store: s, Secrets: hasher}
	require.NoError(t, peppered.VerifyClientSecret(ctx, "peppered", ptr("hashed-secret")))

	plain := &ClientRegistry{Store: s}
	require.ErrorIs(t, plain.VerifyClientSecret(ctx, "peppered", ptr("hashed-secret")), ErrInvalidClientSecret)

	other := &ClientRegistry{Store: s, Secrets: cryptox.Hasher{Pepper: "other"}}
	require.ErrorIs(t, other.VerifyClientSecret(ctx, "peppered", ptr("hashed-secret")), ErrInvalidClientSecret)
}

func TestExtractClientCredentials(t *testing.T) {
	reg := &ClientRegistry{}

	t.Run("id without secret", func(t *testing.T) {
		id, secret, err := reg.ExtractClientCredentials(basic("id123:"))
		require.NoError(t, err)
		require.Equal(t, "id123", id)
		require.Nil(t, secret)
	})

	t.Run("id and secret", func(t *testing.T) {
		id, secret, err := reg.ExtractClientCredentials(basic("web:s3cret"))
		require.NoError(t, err)
		require.Equal(t, "web", id)
		require.NotNil(t, secret)
		require.Equal(t, "s3cret", *secret)
	})

	t.Run("splits on the first colon", func(t *testing.T) {
		id, secret, err := reg.ExtractClientCredentials(basic("web:a:b:c"))
		require.NoError(t, err)
		require.Equal(t, "web", id)
		require.Equal(t, "a:b:c", *secret)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte("web:x"))
		for _, scheme := range []string{"basic", "BASIC", "bAsIc"} {
			id, _, err := reg.ExtractClientCredentials(scheme + " " + payload)
			require.NoError(t, err)
			require.Equal(t, "web", id)
		}
	})

	t.Run("utf-8 credentials", func(t *testing.T) {
		id, secret, err := reg.ExtractClientCredentials(basic("klïent:sécret"))
		require.NoError(t, err)
		require.Equal(t, "klïent", id)
		require.Equal(t, "sécret", *secret)
	})

	malformed := map[string]string{
		"empty":           "",
		"no separator":    "Basic",
		"wrong scheme":    "Bearer " + base64.StdEncoding.EncodeToString([]byte("web:x")),
		"not base64":      "Basic %%%not-base64%%%",
		"invalid utf-8":   "Basic " + base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, ':', 'x'}),
		"no colon":        basic("justanid"),
		"scheme only gap": "Basic ",
	}
	for name, header := range malformed {
		t.Run(name, func(t *testing.T) {
			_, _, err := reg.ExtractClientCredentials(header)
			require.ErrorIs(t, err, ErrMalformedAuthHeader)
		})
	}
}
