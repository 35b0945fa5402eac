package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
)

func newCatalogueCmd(a *app) *cobra.Command {
	var showRules bool

	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Show the extraction catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printCatalogue(cmd, a.deps.Catalogue, showRules)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showRules, "rules", false, "print every rule pattern")
	return cmd
}

func printCatalogue(cmd *cobra.Command, cat *patterns.Catalogue, showRules bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalogue %s\n\n", cat.Version())

	fmt.Fprintln(out, "Locales:")
	for _, p := range cat.Profiles() {
		def := ""
		if p.Tag == cat.Default() {
			def = " (default)"
		}
		fmt.Fprintf(out, "  %-4s %s %s markers=%s%s\n", p.Tag, p.Country, p.Currency, strings.Join(p.Markers, ","), def)
	}

	fmt.Fprintln(out, "\nFields:")
	for _, f := range cat.FieldSpecs() {
		if f.Role != patterns.RoleNone {
			fmt.Fprintf(out, "  %s [%s]\n", f.Name, f.Role)
		} else {
			fmt.Fprintf(out, "  %s\n", f.Name)
		}
	}

	if !showRules {
		return
	}
	printRules(cmd, "global", cat.Global())
	for _, p := range cat.Profiles() {
		printRules(cmd, string(p.Tag), cat.LocaleRules(p.Tag))
	}
}

func printRules(cmd *cobra.Command, layer string, rules []patterns.Rule) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRules (%s):\n", layer)
	for _, r := range rules {
		fmt.Fprintf(out, "  %s -> %s\n      %s\n", r.ID, strings.Join(r.Fields(), ", "), r.Pattern.String())
	}
}
