package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukaszgryglicki/butterbrot/internal/ledger"
)

func newRunsCmd() *cobra.Command {
	var (
		path  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := ledger.Open(path)
			if err != nil {
				return err
			}
			defer l.Close()
			entries, err := l.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tSIZE\tTHREADS\tSAMPLES\tACCEPTED\tPOINTS\tSTATUS\tOUTPUT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
					e.ID, e.StartedAt.Local().Format(time.DateTime), e.FinishedAt.Sub(e.StartedAt).Round(time.Second),
					e.Width, e.Height, e.Threads, e.Samples, e.Accepted, e.Points, status(e), e.Output)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "ledger", "butterbrot.db", "SQLite ledger database")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many runs, 0 shows all")
	return cmd
}

func status(e ledger.Entry) string {
	switch {
	case e.Completed:
		return "completed"
	case e.TimedOut:
		return "timed out"
	default:
		return "interrupted"
	}
}
