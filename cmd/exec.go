package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"pennybid/config"
)

// TokenEnv holds the bearer token used by one-shot commands
const TokenEnv = "PENNYBID_TOKEN"

// Exec runs a single command and exits. Events are not published, so a running
// service picks up new auctions through discovery.
func Exec(ctx context.Context, name string, args []string, out io.Writer) error {
	app, err := NewApp(ctx, config.Get(), EventsDiscard)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	session := NewSession(app, out)
	if _, ok := session.Lookup(name); !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	session.Token = os.Getenv(TokenEnv)

	return session.Execute(ctx, name, args)
}
