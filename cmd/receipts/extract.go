package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/export"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/insights"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
)

type extractOptions struct {
	patterns    []string
	fill        []string
	out         string
	format      string
	metricsFile string
	workers     int
	timeout     time.Duration
	summary     bool
}

func newExtractCmd(a *app) *cobra.Command {
	o := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [files or directories...]",
		Short: "Extract receipt fields into a CSV or XLSX file",
		Long: `Extracts every catalogue field from each receipt and writes one row per
receipt. Directories are scanned for .pdf and .txt files. Fields no rule
matched are written as "Not Available"; dates that do not parse as
"Invalid Format". A receipt that cannot be read is reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, a, o, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&o.patterns, "pattern", "p", nil, `ad-hoc rule as "Field=regex" (repeatable)`)
	f.StringArrayVar(&o.fill, "fill", nil, `rule as "Field=regex" applied only where the catalogue found nothing (repeatable)`)
	f.StringVarP(&o.out, "out", "o", "", "output file (default from RECEIPTS_OUTPUT)")
	f.StringVar(&o.format, "format", "", "csv or xlsx (default from the output extension)")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	f.IntVar(&o.workers, "workers", 0, "parallel documents (default GOMAXPROCS)")
	f.DurationVar(&o.timeout, "timeout", 0, "per-document timeout")
	f.BoolVar(&o.summary, "summary", true, "print and export batch totals")
	return cmd
}

func runExtract(cmd *cobra.Command, a *app, o *extractOptions, args []string) error {
	deps := a.deps
	cfg := deps.Config

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Batch.Workers = o.workers
	}
	if flags.Changed("timeout") {
		cfg.Batch.DocumentTimeout = o.timeout
	}
	if o.metricsFile != "" {
		cfg.Output.MetricsFile = o.metricsFile
	}

	overrides, err := parsePatterns(o.patterns)
	if err != nil {
		return err
	}

	fill, err := parsePatterns(o.fill)
	if err != nil {
		return err
	}

	paths, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no .pdf or .txt files found")
	}

	report, err := deps.NewService(overrides, fill).ProcessFiles(cmd.Context(), paths)
	if report == nil {
		return err
	}

	for _, out := range report.Outcomes {
		if !out.OK() {
			cmd.PrintErrf("skipped %v\n", out.Err)
		}
	}

	if report.Succeeded > 0 {
		path, format := outputTarget(cfg.Output.Path, cfg.Output.Format, o)
		var summary *insights.Summary
		if o.summary {
			summary = &report.Summary
		}
		records := report.Records()
		cols := export.Columns(deps.Catalogue.Fields(), records)
		if werr := export.WriteFile(path, format, cols, records, summary); werr != nil {
			return werr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d of %d receipts to %s\n", report.Succeeded, len(report.Outcomes), path)
		if o.summary {
			printSummary(cmd, report.Summary)
		}
	}

	if cfg.Output.MetricsFile != "" {
		if merr := deps.Metrics.WriteTextfile(cfg.Output.MetricsFile); merr != nil {
			return fmt.Errorf("write metrics: %w", merr)
		}
	}

	if err != nil {
		return err
	}
	return report.Err()
}

// outputTarget resolves the output path and format from flags and config.
func outputTarget(cfgPath, cfgFormat string, o *extractOptions) (string, string) {
	path := cfgPath
	if o.out != "" {
		path = o.out
	}
	switch {
	case o.format != "":
		return path, o.format
	case o.out != "":
		return path, export.FormatFor(path)
	default:
		return path, cfgFormat
	}
}

// parsePatterns turns "Field=regex" flags into override rules.
func parsePatterns(specs []string) ([]patterns.Rule, error) {
	rules := make([]patterns.Rule, 0, len(specs))
	for _, s := range specs {
		field, expr, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("pattern %q: want Field=regex", s)
		}
		r, err := patterns.Override(strings.TrimSpace(field), expr)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", s, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// collectFiles expands directories to the receipts they contain, sorted by name.
func collectFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			// unreadable files are reported per document
			paths = append(paths, arg)
			continue
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".pdf" || ext == ".txt") {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		slices.Sort(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

func printSummary(cmd *cobra.Command, s insights.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	for _, row := range export.MetricRows(s) {
		fmt.Fprintf(out, "  %-24s %s\n", row.Metric, row.Value)
	}
	for _, code := range s.Currencies() {
		fmt.Fprintf(out, "  %-24s %s\n", "Total "+code, s.TotalsByCurrency[code].Display())
	}
}
