package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/codegrant/internal/auth/service"
	"github.com/aussiebroadwan/codegrant/pkg/authsdk"
	"github.com/aussiebroadwan/codegrant/pkg/httpx"
)

// CodesHandler serves POST /v1/oauth2/codes, binding a token set the caller
// already holds to a new code.
type CodesHandler struct {
	Grants *service.GrantService
}

type issueCodeBody struct {
	ClientID    string          `json:"client_id"`
	RedirectURI string          `json:"redirect_uri"`
	TokenSet    json.RawMessage `json:"token_set"`
}

func (h *CodesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body issueCodeBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	tokenSet := bytes.TrimSpace(body.TokenSet)
	if len(tokenSet) == 0 || tokenSet[0] != '{' {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"token_set must be a JSON object").WriteError(w)
		return
	}

	clientID := strings.TrimSpace(body.ClientID)
	redirectURI := strings.TrimSpace(body.RedirectURI)
	if clientID == "" || redirectURI == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	code, err := h.Grants.IssueForTokenSet(r.Context(), clientID, redirectURI, tokenSet)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.IssueCodeResponse{Code: code})
}
