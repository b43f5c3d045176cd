package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/codegrant/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestOAuth2ErrorFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
		kind   string
	}{
		{service.ErrClientNotFound, http.StatusUnauthorized, "invalid_client", "client_not_found"},
		{service.ErrInvalidClientSecret, http.StatusUnauthorized, "invalid_client", "invalid_client_secret"},
		{service.ErrRedirectMismatch, http.StatusBadRequest, "invalid_request", "redirect_mismatch"},
		{service.ErrMalformedAuthHeader, http.StatusBadRequest, "invalid_request", "malformed_auth_header"},
		{service.ErrCodeNotFound, http.StatusBadRequest, "invalid_grant", "code_not_found"},
		{service.ErrCodeExpired, http.StatusBadRequest, "invalid_grant", "code_expired"},
		{service.ErrCodeBindingMismatch, http.StatusBadRequest, "invalid_grant", "code_binding_mismatch"},
		{service.ErrUnsupportedResponseType, http.StatusBadRequest, "unsupported_response_type", "unsupported_response_type"},
		{service.ErrUpstreamAuthFailed, http.StatusForbidden, "access_denied", "upstream_auth_failed"},
		{service.ErrStore, http.StatusInternalServerError, "server_error", "store_error"},
		{errors.New("boom"), http.StatusInternalServerError, "server_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := oauth2ErrorFor(tt.err)
			require.Equal(t, tt.status, got.StatusCode)
			require.Equal(t, tt.code, got.Code)
			require.Equal(t, tt.kind, got.Kind)
		})
	}
}
