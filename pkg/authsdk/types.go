package authsdk

// ErrorResponse is the JSON error body written by the server.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorKind        string `json:"error_kind,omitempty"`
}

// TokenResponse is the token set released by the token endpoint. Raw holds
// the body exactly as the server sent it.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`

	Raw []byte `json:"-"`
}

// AuthorizeRequest is the body of POST /v1/oauth2/authorize.
type AuthorizeRequest struct {
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	ResponseType string `json:"response_type,omitempty"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	State        string `json:"state,omitempty"`
}

// AuthorizeResponse is returned for response_type=code. For
// response_type=token only Tokens is set.
type AuthorizeResponse struct {
	Code        string `json:"code,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
	State       string `json:"state,omitempty"`

	Tokens *TokenResponse `json:"-"`
}

// IssueCodeRequest is the body of POST /v1/oauth2/codes. TokenSet is stored
// verbatim and must be a JSON object.
type IssueCodeRequest struct {
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
	TokenSet    any    `json:"token_set"`
}

type IssueCodeResponse struct {
	Code string `json:"code"`
}

// ExchangeCodeRequest carries the parameters of the authorization_code grant.
// With UseBasicAuth the credentials travel in the Authorization header,
// otherwise in the form body.
type ExchangeCodeRequest struct {
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	UseBasicAuth bool
}

// HealthResponse represents health check response.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents individual health checks.
type HealthChecks struct {
	Store string `json:"store"`
}
