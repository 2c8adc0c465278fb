// Command issuetoken prints a bearer token accepted by the rewardengine API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/polkiloo/rewardengine/internal/pkg/auth"
)

// nowFunc is overridden in tests to produce deterministic tokens.
var nowFunc = time.Now

func main() {
	if err := run(os.Args[1:], os.Getenv, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "issuetoken: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, getenv func(string) string, out io.Writer) error {
	fs := flag.NewFlagSet("issuetoken", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	secret := fs.String("secret", getenv("TOKEN_SECRET"), "HMAC secret shared with the server (TOKEN_SECRET)")
	subject := fs.Int64("subject", 0, "Subject id the token is issued for")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*secret) == "" {
		return errors.New("secret is required (-secret or TOKEN_SECRET)")
	}
	if *subject <= 0 {
		return errors.New("-subject must be a positive id")
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl must be positive, got %s", *ttl)
	}

	strategy := auth.NewHMACStrategy(*secret, auth.Options{TTL: *ttl, Now: nowFunc})
	token, err := strategy.IssueToken(*subject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
