package service

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// subjectFromTokenSet reads the sub claim of the id_token in tokenSet without
// verifying it. The result is only used for audit logging.
func subjectFromTokenSet(tokenSet []byte) string {
	var ts struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(tokenSet, &ts); err != nil || ts.IDToken == "" {
		return ""
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(ts.IDToken, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
