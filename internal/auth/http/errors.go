package http

import (
	"net/http"

	"github.com/aussiebroadwan/codegrant/internal/auth/service"
	"github.com/aussiebroadwan/codegrant/pkg/authsdk"
	"github.com/aussiebroadwan/codegrant/pkg/slogx"
)

// oauth2ErrorFor maps a service failure onto its OAuth2 error family, tagged
// with the kind's identifier.
func oauth2ErrorFor(err error) *authsdk.OAuth2Error {
	kind := service.KindOf(err)

	var base *authsdk.OAuth2Error
	switch kind {
	case service.KindClientNotFound, service.KindInvalidClientSecret:
		base = authsdk.ErrInvalidClient
	case service.KindRedirectMismatch:
		base = authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"redirect_uri is not registered for this client")
	case service.KindMalformedAuthHeader:
		base = authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"malformed authorization header")
	case service.KindCodeNotFound, service.KindCodeExpired, service.KindCodeBindingMismatch:
		base = authsdk.ErrInvalidGrant
	case service.KindUnsupportedResponseType:
		base = authsdk.ErrUnsupportedResponseType
	case service.KindUpstreamAuthFailed:
		base = authsdk.ErrAccessDenied
	case service.KindStoreError:
		base = authsdk.ErrServerError
	default:
		return authsdk.ErrServerError
	}

	return base.WithKind(kind.Code())
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	oerr := oauth2ErrorFor(err)
	if oerr.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	} else {
		log.Debug("request rejected", "error_code", oerr.Code, "error_kind", oerr.Kind)
	}

	oerr.WriteError(w)
}
