package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/codegrant/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashSecret(t *testing.T) {
	t.Setenv("CODEGRANT_PEPPER_FILE", "")

	var out bytes.Buffer
	require.NoError(t, run([]string{"hash-secret"}, strings.NewReader("s3cret\n"), &out))

	hash := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))
	require.NoError(t, cryptox.VerifySecret("s3cret", hash))

	err := run([]string{"hash-secret"}, strings.NewReader("\n"), &out)
	require.ErrorContains(t, err, "empty secret")
}

func TestHashSecretWithPepperFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("pepper-value\n"), 0o600))
	t.Setenv("CODEGRANT_PEPPER_FILE", path)

	var out bytes.Buffer
	require.NoError(t, run([]string{"hash-secret"}, strings.NewReader("s3cret\n"), &out))

	hash := strings.TrimSpace(out.String())
	require.NoError(t, cryptox.Hasher{Pepper: "pepper-value"}.VerifySecret("s3cret", hash))
	require.ErrorIs(t, cryptox.VerifySecret("s3cret", hash), cryptox.ErrSecretMismatch)
}

func TestCheckClients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`clients:
  - client_id: web
    client_secret: s3cret
    redirect_uris: [https://app.example.com/callback]
  - client_id: cli
    redirect_uris: [http://localhost:8765/cb]
`), 0o600))

	var out bytes.Buffer
	require.NoError(t, run([]string{"check-clients", path}, nil, &out))
	require.Contains(t, out.String(), "web\tconfidential\t1 redirect uri(s)")
	require.Contains(t, out.String(), "cli\tpublic\t1 redirect uri(s)")

	require.Error(t, run([]string{"check-clients"}, nil, &out))
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	require.ErrorContains(t, run([]string{"frobnicate"}, nil, &out), "unknown command")

	require.NoError(t, run([]string{"help"}, nil, &out))
	require.Contains(t, out.String(), "usage: codegrant")
}
