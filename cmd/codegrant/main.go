package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/aussiebroadwan/codegrant/internal/auth/app"
	"github.com/aussiebroadwan/codegrant/pkg/cryptox"
)

const usage = `usage: codegrant [command]

commands:
  serve                 run the HTTP service (default)
  hash-secret           read a client secret from stdin and print its argon2id hash
  check-clients <file>  validate a clients file
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("codegrant: %v", err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		return serve()
	case "hash-secret":
		return hashSecret(stdin, stdout)
	case "check-clients":
		if len(args) != 1 {
			return errors.New("check-clients requires exactly one file argument")
		}
		return checkClients(args[0], stdout)
	case "help", "-h", "--help":
		_, _ = io.WriteString(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

func serve() error {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

// hashSecret honours CODEGRANT_PEPPER_FILE so the hash verifies under the
// running service's pepper.
func hashSecret(stdin io.Reader, stdout io.Writer) error {
	var hasher cryptox.Hasher
	if path := os.Getenv("CODEGRANT_PEPPER_FILE"); path != "" {
		pepper, err := cryptox.LoadPepper(path)
		if err != nil {
			return err
		}
		hasher.Pepper = pepper
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return errors.New("empty secret")
	}

	hash, err := hasher.HashSecret(secret)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func checkClients(path string, stdout io.Writer) error {
	clients, err := app.LoadClients(path)
	if err != nil {
		return err
	}
	for _, c := range clients {
		kind := "confidential"
		if c.Public() {
			kind = "public"
		}
		_, _ = fmt.Fprintf(stdout, "%s\t%s\t%d redirect uri(s)\n", c.ID, kind, len(c.RedirectURIs))
	}
	return nil
}
