package service

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/codegrant/internal/auth/upstream"
	"github.com/aussiebroadwan/codegrant/pkg/slogx"
)

// Supported response_type values.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// GrantService runs the two halves of the authorization code grant on top of
// ClientRegistry and CodeStore.
type GrantService struct {
	Clients  *ClientRegistry
	Codes    *CodeStore
	Upstream upstream.Authenticator
}

type AuthorizeRequest struct {
	ClientID     string
	RedirectURI  string
	ResponseType string
	Username     string
	Password     string
	State        string
}

// AuthorizeResponse carries either a code (response_type=code) or the token
// set itself (response_type=token).
type AuthorizeResponse struct {
	ResponseType string
	Code         string
	RedirectURI  string
	State        string
	TokenSet     []byte
}

// Authorize verifies the client, authenticates the end user upstream and
// returns a code bound to the resulting token set. An empty response type
// means code.
func (s *GrantService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error) {
	const op = "grant.authorize"
	log := slogx.FromContext(ctx)

	if _, err := s.Clients.VerifyClientAndRedirect(ctx, req.ClientID, req.RedirectURI); err != nil {
		return nil, err
	}

	responseType := strings.ToLower(strings.TrimSpace(req.ResponseType))
	if responseType == "" {
		responseType = ResponseTypeCode
	}
	if responseType != ResponseTypeCode && responseType != ResponseTypeToken {
		return nil, fail(op, KindUnsupportedResponseType, nil)
	}

	authn := s.Upstream
	if authn == nil {
		authn = upstream.Disabled{}
	}

	tokens, err := authn.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		log.Warn("upstream authentication failed", "client_id", req.ClientID, "error", err)
		return nil, fail(op, KindUpstreamAuthFailed, err)
	}

	tokenSet, err := tokens.Marshal()
	if err != nil {
		return nil, fail(op, KindUpstreamAuthFailed, err)
	}

	resp := &AuthorizeResponse{
		ResponseType: responseType,
		RedirectURI:  req.RedirectURI,
		State:        req.State,
	}

	if responseType == ResponseTypeToken {
		resp.TokenSet = tokenSet
		return resp, nil
	}

	resp.Code, err = s.Codes.IssueCode(ctx, req.ClientID, req.RedirectURI, tokenSet)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// IssueForTokenSet verifies the client and redirect URI and binds an already
// obtained token set to a new code.
func (s *GrantService) IssueForTokenSet(ctx context.Context, clientID, redirectURI string, tokenSet []byte) (string, error) {
	if _, err := s.Clients.VerifyClientAndRedirect(ctx, clientID, redirectURI); err != nil {
		return "", err
	}
	return s.Codes.IssueCode(ctx, clientID, redirectURI, tokenSet)
}

type ExchangeRequest struct {
	// AuthorizationHeader takes precedence over ClientID and ClientSecret.
	AuthorizationHeader string
	ClientID            string
	ClientSecret        string

	Code        string
	RedirectURI string
}

// Exchange authenticates the client and redeems the code for its token set.
func (s *GrantService) Exchange(ctx context.Context, req ExchangeRequest) ([]byte, error) {
	clientID := req.ClientID
	var secret *string
	if req.AuthorizationHeader != "" {
		id, sec, err := s.Clients.ExtractClientCredentials(req.AuthorizationHeader)
		if err != nil {
			return nil, err
		}
		clientID, secret = id, sec
	} else if req.ClientSecret != "" {
		secret = &req.ClientSecret
	}

	if _, err := s.Clients.VerifyClientAndRedirect(ctx, clientID, req.RedirectURI); err != nil {
		return nil, err
	}
	if err := s.Clients.VerifyClientSecret(ctx, clientID, secret); err != nil {
		return nil, err
	}

	return s.Codes.RedeemCodeFor(ctx, req.Code, clientID, req.RedirectURI)
}
