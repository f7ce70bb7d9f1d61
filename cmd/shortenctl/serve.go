package main

import (
	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortenctl/internal/app"
)

func newServeCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, newApp, func(a *app.App) error {
				return a.Start(cmd.Context())
			})
		},
	}
}
