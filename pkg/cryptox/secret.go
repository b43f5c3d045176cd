package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for newly hashed secrets. Verification reads the
// parameters from the encoded hash, so these can change without invalidating
// stored hashes.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

// ErrSecretMismatch is returned by VerifySecret when the secret does not match.
var ErrSecretMismatch = errors.New("cryptox: secret does not match")

// Hasher hashes and verifies client secrets. Pepper is appended to every
// secret before hashing, so hashes created under one pepper only verify under
// the same pepper. The zero value hashes without a pepper.
type Hasher struct {
	Pepper string
}

// LoadPepper reads a pepper from path, trimming surrounding whitespace.
func LoadPepper(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cryptox: read pepper file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// HashSecret hashes secret with the zero Hasher.
func HashSecret(secret string) (string, error) { return Hasher{}.HashSecret(secret) }

// VerifySecret verifies secret with the zero Hasher.
func VerifySecret(secret, encoded string) error { return Hasher{}.VerifySecret(secret, encoded) }

// HashSecret returns a PHC-format Argon2id hash of secret:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
func (h Hasher) HashSecret(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	sum := argon2.IDKey([]byte(secret+h.Pepper), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// VerifySecret checks secret against a hash produced by HashSecret in
// constant time.
func (h Hasher) VerifySecret(secret, encoded string) error {
	parts := strings.Split(encoded, "$")
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash]
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return errors.New("cryptox: not an argon2id hash")
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return fmt.Errorf("cryptox: unsupported argon2 version %q", parts[2])
	}

	var (
		mem, iters uint32
		par        uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("cryptox: parse argon2 parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("cryptox: decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("cryptox: decode hash: %w", err)
	}

	got := argon2.IDKey([]byte(secret+h.Pepper), salt, iters, mem, par, uint32(len(want))) // #nosec G115
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrSecretMismatch
	}
	return nil
}
