package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lukaszgryglicki/butterbrot/internal/blob"
	"github.com/lukaszgryglicki/butterbrot/internal/butterbrot"
)

func newCombineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "combine [output] birb1 birb2 [birb...]",
		Short: "Sum birb files of the same size",
		Long: `combine adds up the counters of several birb files.

With two arguments both are inputs and the output gets a random name.
With three or more the first argument is the output. A directory or an
s3://bucket/prefix/ input stands for every .birb below it. Inputs whose size
differs from the first input are skipped with a warning, counters that
overflow are capped at the uint64 maximum.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, inputs := butterbrot.GenFilename("birb"), args
			if len(args) > 2 {
				output, inputs = args[0], args[1:]
			}
			return combine(cmd, output, inputs)
		},
	}
}

func combine(cmd *cobra.Command, output string, args []string) error {
	ctx := cmd.Context()
	var inputs []string
	for _, arg := range args {
		locs, err := blob.Expand(ctx, arg)
		if err != nil {
			return err
		}
		inputs = append(inputs, locs...)
	}
	first, err := blob.Load(ctx, inputs[0])
	if err != nil {
		return err
	}
	birbs := []butterbrot.Birb{first}
	for _, in := range inputs[1:] {
		b, err := blob.Load(ctx, in)
		if err != nil {
			return err
		}
		if b.Width() != first.Width() || b.Height() != first.Height() {
			slog.Warn("skipping birb with a different size", "file", in,
				"width", b.Width(), "height", b.Height(), "want_width", first.Width(), "want_height", first.Height())
			continue
		}
		birbs = append(birbs, b)
	}
	acc, overflowed, err := butterbrot.CombineAll(birbs...)
	if err != nil {
		return err
	}
	if overflowed {
		slog.Warn("overflow detected, counters capped to the uint64 maximum", "output", output)
	}
	info, err := blob.Save(ctx, output, acc, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "combined %d of %d birbs into %s (%d bytes)\n", len(birbs), len(inputs), output, info.Size)
	return nil
}
