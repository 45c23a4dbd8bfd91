// Command devtoken mints access tokens shaped like the auth provider's, for
// local runs against a server started with the same JWT_SECRET.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/event-ticketing/internal/auth"
	"github.com/iliyamo/event-ticketing/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		userID uint64
		role   string
		secret string
		ttl    time.Duration
	)
	config.LoadDotEnv()

	flagSet := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	flagSet.Uint64VarP(&userID, "user", "u", 0, "user id placed in the sub claim (required)")
	flagSet.StringVarP(&role, "role", "r", string(auth.RoleCustomer), "customer or organizer")
	flagSet.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret (default $JWT_SECRET)")
	flagSet.DurationVar(&ttl, "ttl", 15*time.Minute, "token lifetime")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if userID == 0 {
		return errors.New("--user is required")
	}
	if secret == "" {
		return errors.New("no secret: set JWT_SECRET or pass --secret")
	}
	r := auth.ParseRole(role)
	if r == "" {
		return fmt.Errorf("unknown role %q", role)
	}

	tok, err := auth.NewAccessToken(secret, userID, r, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok.Token)
	return nil
}
