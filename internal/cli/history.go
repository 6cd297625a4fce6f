package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the listening history",
	}

	cmd.AddCommand(newHistoryListCommand(opts), newHistoryClearCommand(opts))
	return cmd
}

func newHistoryListCommand(opts *options) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.newApplication()
			if err != nil {
				return err
			}
			defer application.Shutdown()

			log := application.History().Log()
			out := cmd.OutOrStdout()

			if jsonOut {
				data, err := json.MarshalIndent(log, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			if len(log) == 0 {
				_, err := fmt.Fprintln(out, "No history yet.")
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTIME\tMOOD\tSONGS")
			for _, entry := range log {
				titles := make([]string, len(entry.Songs))
				for i, song := range entry.Songs {
					titles[i] = song.Title
					if song.Artist != "" {
						titles[i] += " - " + song.Artist
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Date, entry.Time, entry.Mood, strings.Join(titles, "; "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func newHistoryClearCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the listening history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.newApplication()
			if err != nil {
				return err
			}
			defer application.Shutdown()

			application.History().Clear()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return err
		},
	}
}
