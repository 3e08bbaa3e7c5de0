package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/nahuelrabey/operar-marketdata-fetch/iol"
)

const (
	iolUsernameEnv = "IOL_USERNAME"
	iolPasswordEnv = "IOL_PASSWORD"
)

// tokenCmd is the top-level command for bearer token management.
type tokenCmd struct{}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "manage the IOL bearer token" }
func (*tokenCmd) Usage() string {
	return `token <subcommand> <options>

Manage the cached IOL bearer token used by 'fetch chain'.
`
}
func (c *tokenCmd) SetFlags(f *flag.FlagSet) {}

func (c *tokenCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "token")
	commander.Register(&tokenUpdateCmd{}, "")
	return commander.Execute(ctx, args...)
}

// tokenUpdateCmd implements the "token update" command.
type tokenUpdateCmd struct {
	username string
	password string
}

func (*tokenUpdateCmd) Name() string     { return "update" }
func (*tokenUpdateCmd) Synopsis() string { return "authenticate against IOL and cache the token" }
func (*tokenUpdateCmd) Usage() string {
	return `token update [-user <username>] [-pass <password>]

Exchange IOL credentials for a bearer token and cache it in the user config
directory. Credentials default to the ` + iolUsernameEnv + ` and ` + iolPasswordEnv + `
environment variables (a local .env file is loaded too).
`
}
func (c *tokenUpdateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "user", "", "IOL username. Takes precedence over the "+iolUsernameEnv+" environment variable.")
	f.StringVar(&c.password, "pass", "", "IOL password. Takes precedence over the "+iolPasswordEnv+" environment variable.")
}

func (c *tokenUpdateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	username := c.username
	if username == "" {
		username = os.Getenv(iolUsernameEnv)
	}
	password := c.password
	if password == "" {
		password = os.Getenv(iolPasswordEnv)
	}
	if username == "" || password == "" {
		fmt.Fprintf(os.Stderr, "Error: IOL credentials are not set. Use -user/-pass or the %s and %s environment variables\n", iolUsernameEnv, iolPasswordEnv)
		return subcommands.ExitUsageError
	}

	client := iol.New("")
	token, err := client.Authenticate(ctx, username, password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	path, err := writeToken(token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Token cached in %s\n", path)
	return subcommands.ExitSuccess
}
