package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortenctl/internal/app"
)

// errSomeFailed makes the process exit with status 1 after a batch in which
// at least one URL failed. The report already explains the failures.
var errSomeFailed = errors.New("one or more URLs failed to shorten")

// appFactory builds the application for a command invocation.
type appFactory func(ctx context.Context) (*app.App, error)

func newRootCmd(newApp appFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "shortenctl",
		Short: "Shorten URLs with cuty.io, ouo.io and shrinkme.io",
		Long: `shortenctl shortens URLs through the cuty.io, ouo.io and shrinkme.io APIs.

API keys are read from the .env file named by SHORTENCTL_ENV_FILE
(CUTY_API_KEY, OUO_API_KEY, SHRINKME_API_KEY); environment variables
with the same names take precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newShortenCmd(newApp),
		newKeysCmd(newApp),
		newHistoryCmd(newApp),
		newServeCmd(newApp),
	)
	return root
}

// withApp builds the app, runs fn and shuts the app down.
func withApp(cmd *cobra.Command, newApp appFactory, fn func(a *app.App) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Shutdown(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
		}
	}()
	return fn(a)
}
