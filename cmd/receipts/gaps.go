package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type gapsOptions struct {
	start string
	end   string
	noise []string
}

func newGapsCmd(a *app) *cobra.Command {
	o := &gapsOptions{}

	cmd := &cobra.Command{
		Use:   "gaps [files or directories...]",
		Short: "List receipt lines no extraction rule recognizes",
		Long: `Scans the charges region of each receipt (from the line containing --start
up to the line containing --end) and prints every line that no rule of the
receipt's locale matches, with the closest known field when one is similar.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGaps(cmd, a, o, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.start, "start", "", "line marker opening the region (default from RECEIPTS_GAP_START)")
	f.StringVar(&o.end, "end", "", "line marker closing the region (default from RECEIPTS_GAP_END)")
	f.StringSliceVar(&o.noise, "noise", nil, "markers of lines never reported (default from RECEIPTS_NOISE)")
	return cmd
}

func runGaps(cmd *cobra.Command, a *app, o *gapsOptions, args []string) error {
	deps := a.deps
	ex := &deps.Config.Extraction
	ex.DetectGaps = true
	if o.start != "" {
		ex.GapStart = o.start
	}
	if o.end != "" {
		ex.GapEnd = o.end
	}
	if cmd.Flags().Changed("noise") {
		ex.Noise = o.noise
	}
	if ex.GapStart == "" || ex.GapEnd == "" {
		return errors.New("both --start and --end markers are required")
	}

	paths, err := collectFiles(args)
	if err != nil {
		return err
	}

	report, err := deps.NewService(nil, nil).ProcessFiles(cmd.Context(), paths)
	if report == nil {
		return err
	}

	total := 0
	for _, out := range report.Outcomes {
		if !out.OK() {
			cmd.PrintErrf("skipped %v\n", out.Err)
			continue
		}
		for _, g := range out.Gaps.Gaps {
			total++
			if g.Suggestion != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %s (%s?)\n", out.Source, g.Line, g.Text, g.Suggestion)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %s\n", out.Source, g.Line, g.Text)
			}
		}
	}
	if total == 0 && report.Succeeded > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No unrecognized lines.")
	}

	if err != nil {
		return err
	}
	return report.Err()
}
