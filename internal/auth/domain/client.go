package domain

import (
	"slices"
	"strings"
	"time"
)

type Client struct {
	ID           string
	Name         string
	Secret       string // empty for public clients; plaintext or a $argon2id$ PHC hash
	RedirectURIs []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public reports whether the client was registered without a secret.
func (c Client) Public() bool { return c.Secret == "" }

// HashedSecret reports whether the stored secret is an argon2id hash rather
// than the literal secret.
func (c Client) HashedSecret() bool { return strings.HasPrefix(c.Secret, "$argon2id$") }

// AllowsRedirect reports whether uri exactly matches a registered redirect URI.
func (c Client) AllowsRedirect(uri string) bool {
	return uri != "" && slices.Contains(c.RedirectURIs, uri)
}
