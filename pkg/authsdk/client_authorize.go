package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Authorize authenticates the resource owner at the upstream provider through
// the server. For response_type=code it returns the issued code, for
// response_type=token the token set itself.
func (c *SDKClient) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/oauth2/authorize", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(strings.TrimSpace(req.ResponseType), "token") {
		tokens, err := decodeTokenResponse(resp)
		if err != nil {
			return nil, err
		}
		return &AuthorizeResponse{Tokens: tokens}, nil
	}

	var out AuthorizeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallbackURL builds the redirect the client application receives, carrying
// code and state as query parameters.
func (r *AuthorizeResponse) CallbackURL() (string, error) {
	if r.Code == "" {
		return "", fmt.Errorf("response carries no authorization code")
	}

	u, err := url.Parse(r.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect URI: %w", err)
	}

	query := u.Query()
	query.Set("code", r.Code)
	if r.State != "" {
		query.Set("state", r.State)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// ParseAuthorizationCallback extracts code and state from a callback URL.
func ParseAuthorizationCallback(callbackURL string) (code, state string, err error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse callback URL: %w", err)
	}

	query := u.Query()

	if errorCode := query.Get("error"); errorCode != "" {
		errorDesc := query.Get("error_description")
		return "", "", fmt.Errorf("authorization error: %s - %s", errorCode, errorDesc)
	}

	code = query.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("callback missing authorization code")
	}

	state = query.Get("state")

	return code, state, nil
}

func decodeTokenResponse(resp *http.Response) (*TokenResponse, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if err := parseErrorResponse(resp, bodyBytes); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tokens TokenResponse
	if err := json.Unmarshal(bodyBytes, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	tokens.Raw = bodyBytes

	return &tokens, nil
}
