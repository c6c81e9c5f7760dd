package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/kamilpajak/joule/internal/calculator"
	"github.com/kamilpajak/joule/internal/reconcile"
	"github.com/kamilpajak/joule/internal/scenario"
	"github.com/kamilpajak/joule/internal/validation"
	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/spf13/cobra"
)

var (
	validateJSON    bool
	validateVerbose bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Validate and reconcile a scenario without the quality pipeline",
	Long: `Validate calculates the scenario's economics and runs only the structural
checks: dimensional and physical constraints, benchmark comparison, cross
validation, and internal reconciliation of balances, metrics, and cash flows.

Examples:
  joule validate scenario.yaml
  joule validate scenario.yaml -v`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output results as JSON")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Show every check, not just failures")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	in := sc.Input()

	res, err := calculator.NewDCF().Calculate(ctx, in)
	if err != nil {
		return fmt.Errorf("calculation failed: %w", err)
	}

	validator, err := validation.New()
	if err != nil {
		return err
	}
	val := validator.Validate(in, res, sc.InputProvenance())
	recon := reconcile.New().Reconcile(in, res)

	if validateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"result":         res,
			"validation":     val,
			"reconciliation": recon,
		})
	}

	printValidation(sc.Name, res, val, recon)

	if !val.Valid || !recon.Reconciled {
		os.Exit(1)
	}
	return nil
}

func printValidation(name string, res *tea.Result, val tea.ValidationResult, recon tea.ReconciliationResult) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Println()
	_, _ = bold.Println(name)
	fmt.Println()

	printMetrics(os.Stdout, res)
	fmt.Println()

	_, _ = bold.Println("VALIDATION")
	for _, c := range val.Checks {
		if !validateVerbose && c.Passed {
			continue
		}
		fmt.Printf("  %s [%s] %s: %s\n", checkMark(c.Passed), c.Kind, c.Metric, c.Message)
		if !c.Passed && c.Reference != "" {
			_, _ = dim.Printf("      source: %s\n", c.Reference)
		}
	}
	printConfidenceBar(os.Stdout, "Confidence:", val.OverallConfidence)
	fmt.Println()

	_, _ = bold.Println("RECONCILIATION")
	for _, c := range recon.Checks {
		if !validateVerbose && c.Passed {
			continue
		}
		fmt.Printf("  %s [%s] %s: %s\n", checkMark(c.Passed), c.Category, c.Metric, c.Message)
	}
	printConfidenceBar(os.Stdout, "Confidence:", recon.Confidence)

	printIssueList(os.Stdout, "CRITICAL ISSUES", append(val.CriticalIssues, recon.CriticalIssues...), color.New(color.FgRed))
	printIssueList(os.Stdout, "WARNINGS", append(val.Warnings, recon.Warnings...), color.New(color.FgYellow))

	fmt.Println()
	if val.Valid && recon.Reconciled {
		_, _ = color.New(color.FgGreen, color.Bold).Println("  VALID: no critical failures")
	} else {
		_, _ = color.New(color.FgRed, color.Bold).Println("  INVALID: critical failures present")
	}
}
