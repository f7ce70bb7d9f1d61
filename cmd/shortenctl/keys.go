package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortenctl/internal/app"
	"github.com/sundayezeilo/shortenctl/internal/credentials"
	"github.com/sundayezeilo/shortenctl/internal/shortener"
)

func newKeysCmd(newApp appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys",
	}
	cmd.AddCommand(newKeysListCmd(newApp), newKeysSetCmd(newApp))
	return cmd
}

func newKeysListCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the configured API key of each service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, newApp, func(a *app.App) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SERVICE\tVARIABLE\tKEY")
				for _, id := range shortener.Services {
					key := "(not set)"
					if v, ok := a.Credentials.Credential(id); ok {
						key = credentials.Mask(v)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", id, id.CredentialKey(), key)
				}
				return tw.Flush()
			})
		},
	}
}

func newKeysSetCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:     "set <service> <key>",
		Short:   "Store an API key in the .env file",
		Example: "  shortenctl keys set cuty.io 0123456789abcdef",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shortener.ParseServiceID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, newApp, func(a *app.App) error {
				if err := a.Credentials.Set(id, args[1]); err != nil {
					return err
				}
				if err := a.Credentials.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s for %s to %s\n", id.CredentialKey(), id, a.Credentials.Path())
				return nil
			})
		},
	}
}
