package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *PasswordAuthenticator {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := NewPasswordAuthenticator(PasswordConfig{
		TokenURL:     srv.URL + "/token",
		ClientID:     "codegrant",
		ClientSecret: "upstream-secret",
		Scopes:       []string{"openid", "profile"},
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	return a
}

func TestPasswordAuthenticator(t *testing.T) {
	t.Run("maps the token response", func(t *testing.T) {
		a := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			require.Equal(t, "password", r.PostForm.Get("grant_type"))
			require.Equal(t, "alice", r.PostForm.Get("username"))
			require.Equal(t, "hunter2", r.PostForm.Get("password"))
			require.Equal(t, "openid profile", r.PostForm.Get("scope"))

			id, secret, ok := r.BasicAuth()
			require.True(t, ok)
			require.Equal(t, "codegrant", id)
			require.Equal(t, "upstream-secret", secret)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "at",
				"id_token":      "it",
				"refresh_token": "rt",
				"token_type":    "Bearer",
				"expires_in":    300,
				"scope":         "openid profile",
			})
		})

		tokens, err := a.Authenticate(context.Background(), "alice", "hunter2")
		require.NoError(t, err)
		require.Equal(t, "at", tokens.AccessToken)
		require.Equal(t, "it", tokens.IDToken)
		require.Equal(t, "rt", tokens.RefreshToken)
		require.Equal(t, "Bearer", tokens.TokenType)
		require.EqualValues(t, 300, tokens.ExpiresIn)
		require.Equal(t, "openid profile", tokens.Scope)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		a := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		})

		_, err := a.Authenticate(context.Background(), "alice", "wrong")
		require.ErrorIs(t, err, ErrRejected)
		require.Contains(t, err.Error(), "invalid_grant")
	})

	t.Run("provider failure is not a rejection", func(t *testing.T) {
		a := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := a.Authenticate(context.Background(), "alice", "hunter2")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrRejected)
	})
}

func TestNewPasswordAuthenticatorRequiresTokenURL(t *testing.T) {
	_, err := NewPasswordAuthenticator(PasswordConfig{})
	require.Error(t, err)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Authenticate(context.Background(), "alice", "pw")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestTokensFromExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok := &oauth2.Token{AccessToken: "at", Expiry: now.Add(90 * time.Second)}

	got := tokensFrom(tok, now)
	require.EqualValues(t, 90, got.ExpiresIn)
	require.Equal(t, "Bearer", got.TokenType)
}
