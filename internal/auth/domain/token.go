package domain

import "encoding/json"

// Tokens is the token set produced by the upstream identity provider. The
// core only ever handles it in its serialized form.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in,omitempty"` // seconds
	Scope        string `json:"scope,omitempty"`      // space-delimited
}

// Marshal serializes the token set into the bytes bound to a code.
func (t Tokens) Marshal() ([]byte, error) {
	return json.Marshal(t)
}
