// Package main provides the ashaboard CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ashaboard",
		Short: "Village health risk leaderboard",
		Long: `ashaboard ranks villages by health risk from open ASHA worker cases and
water source test results, and classifies water-quality readings.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRankCmd(),
		newClassifyCmd(),
		newValidateCmd(),
		newPublishCmd(),
		newMigrateCmd(),
	)
	return rootCmd
}
