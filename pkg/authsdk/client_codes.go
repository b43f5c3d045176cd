package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// IssueCode asks the server to mint a code for a token set the caller already
// holds. issuerToken is the server's configured issuer bearer token.
func (c *SDKClient) IssueCode(ctx context.Context, issuerToken string, req IssueCodeRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/oauth2/codes", bytes.NewReader(body), map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + issuerToken,
	})
	if err != nil {
		return "", err
	}

	var out IssueCodeResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return "", err
	}
	return out.Code, nil
}
