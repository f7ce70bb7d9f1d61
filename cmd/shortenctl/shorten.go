package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortenctl/internal/app"
	"github.com/sundayezeilo/shortenctl/internal/shortener"
	"github.com/sundayezeilo/shortenctl/internal/urlfile"
)

func newShortenCmd(newApp appFactory) *cobra.Command {
	var (
		service string
		file    string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "shorten [URL...]",
		Short: "Shorten URLs given as arguments or read from a file",
		Example: `  shortenctl shorten https://example.com
  shortenctl shorten --service ouo --file urls.txt --out shortened_urls.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shortener.ParseServiceID(service)
			if err != nil {
				return err
			}

			urls := append([]string(nil), args...)
			if file != "" {
				if !cmd.Flags().Changed("out") {
					out = urlfile.DefaultOutputName
				}
				fromFile, err := urlfile.ReadURLsFile(file)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given: pass them as arguments or with --file")
			}

			return withApp(cmd, newApp, func(a *app.App) error {
				outcomes, err := a.Client.ShortenBatch(cmd.Context(), id, urls)
				if err != nil {
					return err
				}

				if err := urlfile.WriteReport(cmd.OutOrStdout(), outcomes); err != nil {
					return err
				}

				succeeded := 0
				for _, o := range outcomes {
					if o.OK() {
						succeeded++
					}
				}

				switch {
				case out == "":
				case succeeded == 0:
					fmt.Fprintf(cmd.ErrOrStderr(), "No results to save; %s not written\n", out)
				default:
					n, err := urlfile.WriteShortenedFile(out, outcomes)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d shortened URL(s) to %s\n", n, out)
				}

				if succeeded < len(outcomes) {
					return errSomeFailed
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&service, "service", "s", shortener.Cuty.String(), "shortening service (cuty.io, ouo.io, shrinkme.io)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read URLs from this file, one per line")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the shortened URLs to this file (default "+urlfile.DefaultOutputName+" with --file)")
	return cmd
}
