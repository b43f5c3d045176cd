package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	"gopkg.in/yaml.v3"
)

// clientsFile is the layout of CODEGRANT_CLIENTS_FILE:
//
//	clients:
//	  - client_id: web
//	    name: Web App
//	    client_secret: $argon2id$v=19$...
//	    redirect_uris:
//	      - https://app.example.com/callback
type clientsFile struct {
	Clients []clientConfig `yaml:"clients"`
}

type clientConfig struct {
	ClientID     string   `yaml:"client_id"`
	Name         string   `yaml:"name"`
	ClientSecret string   `yaml:"client_secret"` // plaintext or argon2id hash; empty for public clients
	RedirectURIs []string `yaml:"redirect_uris"`
}

// LoadClients reads and validates a clients file.
func LoadClients(path string) ([]domain.Client, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clients file: %w", err)
	}
	return parseClients(b)
}

func parseClients(b []byte) ([]domain.Client, error) {
	var file clientsFile

	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse clients file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Clients))
	clients := make([]domain.Client, 0, len(file.Clients))
	for i, c := range file.Clients {
		id := strings.TrimSpace(c.ClientID)
		if id == "" {
			return nil, fmt.Errorf("clients[%d]: client_id is required", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("clients[%d]: duplicate client_id %q", i, id)
		}
		seen[id] = struct{}{}

		if len(c.RedirectURIs) == 0 {
			return nil, fmt.Errorf("client %q: at least one redirect_uri is required", id)
		}
		for _, raw := range c.RedirectURIs {
			if err := validateRedirectURI(raw); err != nil {
				return nil, fmt.Errorf("client %q: %w", id, err)
			}
		}

		clients = append(clients, domain.Client{
			ID:           id,
			Name:         c.Name,
			Secret:       c.ClientSecret,
			RedirectURIs: c.RedirectURIs,
		})
	}

	return clients, nil
}

// Redirect URIs are compared byte for byte, so they must be absolute and
// fragment-free.
func validateRedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("redirect_uri %q must be absolute", raw)
	}
	if u.Fragment != "" {
		return fmt.Errorf("redirect_uri %q must not contain a fragment", raw)
	}
	return nil
}

// SeedClients makes the registry in st match clients: every client is
// upserted and stored clients missing from the list are deleted. It returns
// the ids it deleted.
func SeedClients(ctx context.Context, st store.Store, clients []domain.Client) ([]string, error) {
	keep := make(map[string]struct{}, len(clients))
	for _, c := range clients {
		if err := st.Clients().UpsertClient(ctx, c); err != nil {
			return nil, fmt.Errorf("seed client %q: %w", c.ID, err)
		}
		keep[c.ID] = struct{}{}
	}

	existing, err := st.Clients().ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	var pruned []string
	for _, c := range existing {
		if _, ok := keep[c.ID]; ok {
			continue
		}
		err := st.Clients().DeleteClient(ctx, c.ID)
		if err != nil && store.KindOf(err) != store.KindNotFound {
			return pruned, fmt.Errorf("prune client %q: %w", c.ID, err)
		}
		pruned = append(pruned, c.ID)
	}
	return pruned, nil
}
