package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/codegrant/internal/auth/service"
	"github.com/aussiebroadwan/codegrant/pkg/authsdk"
	"github.com/aussiebroadwan/codegrant/pkg/httpx"
)

// AuthorizeHandler serves POST /v1/oauth2/authorize. It takes a JSON body,
// authenticates the resource owner upstream and returns either a code or,
// for response_type=token, the token set.
type AuthorizeHandler struct {
	Grants *service.GrantService
}

func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.AuthorizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	req.ClientID = strings.TrimSpace(req.ClientID)
	req.RedirectURI = strings.TrimSpace(req.RedirectURI)
	if req.ClientID == "" || req.RedirectURI == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.Grants.Authorize(r.Context(), service.AuthorizeRequest{
		ClientID:     req.ClientID,
		RedirectURI:  req.RedirectURI,
		ResponseType: req.ResponseType,
		Username:     req.Username,
		Password:     req.Password,
		State:        req.State,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if res.ResponseType == service.ResponseTypeToken {
		writeTokenSet(w, res.TokenSet)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthorizeResponse{
		Code:        res.Code,
		RedirectURI: res.RedirectURI,
		State:       res.State,
	})
}

// writeTokenSet writes a stored token set exactly as it was bound.
func writeTokenSet(w http.ResponseWriter, tokenSet []byte) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(tokenSet)
}
