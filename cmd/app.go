// Package cmd implements the CLI application to track options strategies.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	// Load a local .env file before any command reads the environment.
	_ "github.com/joho/godotenv/autoload"

	"github.com/nahuelrabey/operar-marketdata-fetch/store"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&strategyCmd{}, "strategies")
	c.Register(&tradeCmd{}, "strategies")

	c.Register(&fetchCmd{}, "market data")
	c.Register(&pricesCmd{}, "market data")
	c.Register(&tokenCmd{}, "market data")

	c.Register(&topicCmd{}, "documentation")
	c.Register(&assistCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var databaseURL = flag.String("database-url", "", "Postgres connection string. Defaults to the "+databaseURLEnv+" environment variable.")

const databaseURLEnv = "OPERAR_DATABASE_URL"

// OpenStore is the central function to open the strategy database.
func OpenStore() (*store.Store, error) {
	url := *databaseURL
	if url == "" {
		url = os.Getenv(databaseURLEnv)
	}
	if url == "" {
		return nil, fmt.Errorf("database URL is not set, use the -database-url flag or the %s environment variable", databaseURLEnv)
	}
	return store.Open(url)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the renderer cannot be set up.
func printMarkdown(doc string) {
	out, err := glamour.Render(doc, "auto")
	if err != nil {
		fmt.Print(doc)
		return
	}
	fmt.Print(out)
}

// tokenPath returns the location of the cached IOL bearer token.
func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate user config dir: %w", err)
	}
	return filepath.Join(dir, "operar", "token"), nil
}

// readToken reads the cached bearer token. It returns an empty string when
// no token has been cached yet.
func readToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cannot read token file %q: %w", path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// writeToken caches the bearer token for later commands.
func writeToken(token string) (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("cannot write token file %q: %w", path, err)
	}
	return path, nil
}
