package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "receipts version %s (catalogue %s)\n", version, patterns.DefaultVersion)
		},
	}
}
