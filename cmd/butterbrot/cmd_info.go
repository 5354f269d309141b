package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/lukaszgryglicki/butterbrot/internal/blob"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info birb [birb...]",
		Short: "Print dimensions and counter statistics of birb files",
		Long: `info prints the size and the counter statistics of birb files.

A directory or an s3://bucket/prefix/ argument lists every .birb below it.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var locs []string
			for _, arg := range args {
				l, err := blob.Expand(cmd.Context(), arg)
				if err != nil {
					return err
				}
				locs = append(locs, l...)
			}
			for _, loc := range locs {
				b, err := blob.Load(cmd.Context(), loc)
				if err != nil {
					return err
				}
				total := b.Total()
				saturated := ""
				if total == math.MaxUint64 {
					saturated = " (saturated)"
				}
				fmt.Fprintf(out, "%s\n  width: %d\theight: %d\n  total: %d%s\tmax: %d\tnon-zero: %d / %d\n",
					loc, b.Width(), b.Height(), total, saturated, b.Max(), b.NonZero(), len(b.Counts()))
			}
			return nil
		},
	}
}
