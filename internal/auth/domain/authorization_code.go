package domain

import "time"

// AuthorizationCode is a single-use code bound to a client, a redirect URI and
// the token set it will be exchanged for. Only the fingerprint of the code is
// persisted.
type AuthorizationCode struct {
	CodeHash    string
	ClientID    string
	RedirectURI string
	TokenSet    []byte // opaque, returned verbatim on redemption
	Subject     string // informational, taken from the id_token when present
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the code can no longer be redeemed at now. Expiry
// has one second resolution and a code is already expired at its ExpiresAt.
func (c AuthorizationCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Unix() <= now.Unix()
}
