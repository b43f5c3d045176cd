package authsdk

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
)

// ExchangeCode redeems an authorization code for the token set bound to it.
func (c *SDKClient) ExchangeCode(ctx context.Context, req ExchangeCodeRequest) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {req.Code},
		"redirect_uri": {req.RedirectURI},
	}

	headers := map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
		"Accept":       "application/json",
	}

	if req.UseBasicAuth {
		creds := base64.StdEncoding.EncodeToString([]byte(req.ClientID + ":" + req.ClientSecret))
		headers["Authorization"] = "Basic " + creds
	} else {
		data.Set("client_id", req.ClientID)
		if req.ClientSecret != "" {
			data.Set("client_secret", req.ClientSecret)
		}
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/oauth2/token", strings.NewReader(data.Encode()), headers)
	if err != nil {
		return nil, err
	}

	return decodeTokenResponse(resp)
}
