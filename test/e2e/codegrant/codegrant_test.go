package codegrant_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/codegrant/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	client := authsdk.NewSDKClient(setupContainer(t, false))

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	health, err = client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.Equal(t, "ok", health.Checks.Store)
}

// TestCodeIsSingleUse issues a code for the confidential client, redeems it
// and checks that a replay is rejected.
func TestCodeIsSingleUse(t *testing.T) {
	client := authsdk.NewSDKClient(setupContainer(t, false))
	code := issueCode(t, client, webClientID, webRedirect)

	exchange := authsdk.ExchangeCodeRequest{
		ClientID:     webClientID,
		ClientSecret: webSecret,
		Code:         code,
		RedirectURI:  webRedirect,
		UseBasicAuth: true,
	}

	tokens, err := client.ExchangeCode(t.Context(), exchange)
	require.NoError(t, err)
	require.Equal(t, "e2e-access-token", tokens.AccessToken)
	require.Equal(t, int64(3600), tokens.ExpiresIn)

	_, err = client.ExchangeCode(t.Context(), exchange)
	var oerr *authsdk.OAuth2Error
	require.True(t, errors.As(err, &oerr))
	require.Equal(t, authsdk.ErrorCodeInvalidGrant, oerr.Code)
	require.Equal(t, "code_expired", oerr.Kind)
}

func TestPublicClientExchange(t *testing.T) {
	client := authsdk.NewSDKClient(setupContainer(t, false))
	code := issueCode(t, client, cliClientID, cliRedirect)

	tokens, err := client.ExchangeCode(t.Context(), authsdk.ExchangeCodeRequest{
		ClientID:    cliClientID,
		Code:        code,
		RedirectURI: cliRedirect,
	})
	require.NoError(t, err)
	require.Equal(t, "e2e-access-token", tokens.AccessToken)
}

func TestExchangeRejections(t *testing.T) {
	client := authsdk.NewSDKClient(setupContainer(t, false))
	code := issueCode(t, client, webClientID, webRedirect)

	_, err := client.ExchangeCode(t.Context(), authsdk.ExchangeCodeRequest{
		ClientID:     webClientID,
		ClientSecret: "wrong",
		Code:         code,
		RedirectURI:  webRedirect,
		UseBasicAuth: true,
	})
	var oerr *authsdk.OAuth2Error
	require.True(t, errors.As(err, &oerr))
	require.Equal(t, http.StatusUnauthorized, oerr.StatusCode)
	require.Equal(t, "invalid_client_secret", oerr.Kind)

	_, err = client.ExchangeCode(t.Context(), authsdk.ExchangeCodeRequest{
		ClientID:     webClientID,
		ClientSecret: webSecret,
		Code:         code,
		RedirectURI:  "https://app.example.com/other",
		UseBasicAuth: true,
	})
	require.True(t, errors.As(err, &oerr))
	require.Equal(t, "redirect_mismatch", oerr.Kind)

	_, err = client.IssueCode(t.Context(), "wrong-token", authsdk.IssueCodeRequest{
		ClientID:    webClientID,
		RedirectURI: webRedirect,
		TokenSet:    map[string]string{"access_token": "x"},
	})
	require.True(t, errors.As(err, &oerr))
	require.Equal(t, http.StatusUnauthorized, oerr.StatusCode)
}

// TestRateLimitTokenEndpoint runs with the production strict profile of ten
// requests per minute per client.
func TestRateLimitTokenEndpoint(t *testing.T) {
	client := authsdk.NewSDKClient(setupContainer(t, true))

	req := authsdk.ExchangeCodeRequest{
		ClientID:     webClientID,
		ClientSecret: webSecret,
		Code:         "not-a-real-code",
		RedirectURI:  webRedirect,
		UseBasicAuth: true,
	}

	var oerr *authsdk.OAuth2Error
	for i := range 10 {
		_, err := client.ExchangeCode(t.Context(), req)
		require.True(t, errors.As(err, &oerr))
		require.Equal(t, http.StatusBadRequest, oerr.StatusCode, "request %d", i+1)
	}

	_, err := client.ExchangeCode(t.Context(), req)
	require.True(t, errors.As(err, &oerr))
	require.Equal(t, http.StatusTooManyRequests, oerr.StatusCode)
	require.Equal(t, "rate_limit_exceeded", oerr.Code)
}
