// Package main provides the joule command-line interface for running
// techno-economic assessments locally from scenario files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "joule",
	Short: "Techno-economic analysis validation and quality assessment",
	Long: `Joule validates techno-economic analyses of clean energy projects.

It calculates discounted cash flow metrics (LCOE, NPV, IRR) from a scenario
file, checks them against physical constraints and industry benchmarks,
reconciles internal consistency, quantifies parameter sensitivity, and runs
a multi-stage quality pipeline that decides whether the analysis is solid
enough for an investor-facing report.`,
}

func init() {
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sensitivityCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
