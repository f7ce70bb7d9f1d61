package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortenctl/internal/app"
	"github.com/sundayezeilo/shortenctl/internal/history"
)

var errHistoryDisabled = errors.New("history is disabled (set HISTORY_DRIVER to bolt or postgres)")

func newHistoryCmd(newApp appFactory) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently shortened URLs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			return withApp(cmd, newApp, func(a *app.App) error {
				if a.History == nil {
					return errHistoryDisabled
				}

				records, err := a.History.List(cmd.Context(), limit)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tSERVICE\tORIGINAL\tRESULT")
				for _, rec := range records {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						rec.CreatedAt.Local().Format(time.DateTime), rec.Service, rec.OriginalURL, result(rec))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "number of records to show")
	return cmd
}

func result(rec history.Record) string {
	if rec.OK() {
		return rec.ShortURL
	}
	return "error: " + rec.ErrorMessage
}
