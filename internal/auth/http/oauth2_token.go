package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/codegrant/internal/auth/service"
	"github.com/aussiebroadwan/codegrant/pkg/authsdk"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	Grants *service.GrantService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		h.handleAuthorizationCodeGrant(w, r)
	default:
		authsdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request) {
	form := r.PostForm

	code := strings.TrimSpace(form.Get("code"))
	redirectURI := strings.TrimSpace(form.Get("redirect_uri"))
	if code == "" || redirectURI == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	tokenSet, err := h.Grants.Exchange(r.Context(), service.ExchangeRequest{
		AuthorizationHeader: r.Header.Get("Authorization"),
		ClientID:            strings.TrimSpace(form.Get("client_id")),
		ClientSecret:        form.Get("client_secret"),
		Code:                code,
		RedirectURI:         redirectURI,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeTokenSet(w, tokenSet)
}
