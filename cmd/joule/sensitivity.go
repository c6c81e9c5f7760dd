package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/kamilpajak/joule/internal/calculator"
	"github.com/kamilpajak/joule/internal/scenario"
	"github.com/kamilpajak/joule/internal/sensitivity"
	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/spf13/cobra"
)

var (
	sensSteps  int
	sensJSON   bool
	sensSweep  []string
	sensGridN  int
	sensParams []string
)

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity <scenario.yaml>",
	Short: "Run one-at-a-time sensitivity analysis on a scenario",
	Long: `Sensitivity perturbs each input parameter across its variation range,
ranks parameters by NPV impact (tornado analysis), and reports elasticities
and an overall robustness score.

With --sweep, two named parameters are varied simultaneously and the NPV
grid is written as JSON for heat-map visualization.

Examples:
  joule sensitivity scenario.yaml
  joule sensitivity scenario.yaml --param capex_per_kw --param electricity_price
  joule sensitivity scenario.yaml --sweep capex_per_kw,electricity_price --grid 15`,
	Args: cobra.ExactArgs(1),
	RunE: runSensitivity,
}

func init() {
	sensitivityCmd.Flags().IntVar(&sensSteps, "steps", 0, "Points per parametric curve (default engine setting)")
	sensitivityCmd.Flags().BoolVar(&sensJSON, "json", false, "Output the full result as JSON")
	sensitivityCmd.Flags().StringSliceVar(&sensSweep, "sweep", nil, "Two comma-separated parameter names for a 2-D sweep")
	sensitivityCmd.Flags().IntVar(&sensGridN, "grid", 0, "Grid size per axis for --sweep (default 10, max 25)")
	sensitivityCmd.Flags().StringSliceVar(&sensParams, "param", nil, "Restrict analysis to the named parameters")
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	in := sc.Input()

	engine := sensitivity.New(calculator.NewDCF())

	if len(sensSweep) > 0 {
		return runSweep(ctx, engine, in)
	}

	cfg := sensitivity.Config{Baseline: in, VariationSteps: sensSteps}
	if len(sensParams) > 0 {
		cfg.Parameters, err = selectParameters(in, sensParams)
		if err != nil {
			return err
		}
	}

	result, err := engine.Analyze(ctx, cfg)
	if err != nil {
		return fmt.Errorf("sensitivity analysis failed: %w", err)
	}

	if sensJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printTornado(sc.Name, result)
	return nil
}

func selectParameters(in tea.Input, names []string) ([]tea.Parameter, error) {
	defaults := sensitivity.DefaultParameters(in)
	byName := make(map[string]tea.Parameter, len(defaults))
	for _, p := range defaults {
		byName[p.Name] = p
	}

	params := make([]tea.Parameter, 0, len(names))
	for _, name := range names {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		params = append(params, p)
	}
	return params, nil
}

func runSweep(ctx context.Context, engine *sensitivity.Engine, in tea.Input) error {
	if len(sensSweep) != 2 {
		return fmt.Errorf("--sweep requires exactly two parameter names, got %d", len(sensSweep))
	}
	params, err := selectParameters(in, sensSweep)
	if err != nil {
		return err
	}

	grid, err := engine.TwoParameterSweep(ctx, in, params[0], params[1], sensGridN)
	if err != nil {
		return fmt.Errorf("two-parameter sweep failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(grid)
}

func printTornado(name string, result *tea.SensitivityResult) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Println()
	_, _ = bold.Println(name)
	if result.Baseline != nil {
		fmt.Printf("  Base NPV: %s   Base LCOE: $%.4f/kWh\n", formatMoney(result.Baseline.NPV), result.Baseline.LCOE)
	}
	fmt.Println()

	maxImpact := 0.0
	for _, e := range result.Tornado {
		impact := math.Max(math.Abs(e.LowImpact), math.Abs(e.HighImpact))
		if impact > maxImpact {
			maxImpact = impact
		}
	}

	_, _ = bold.Println("TORNADO (NPV impact)")
	for _, e := range result.Tornado {
		impact := math.Max(math.Abs(e.LowImpact), math.Abs(e.HighImpact))
		fmt.Printf("  %2d. %-22s %s %-10s", e.Rank, e.Parameter, tornadoBar(impact, maxImpact), formatMoney(impact))
		_, _ = dim.Printf("  elasticity %.2f\n", e.Elasticity)
	}
	fmt.Println()

	_, _ = bold.Println("CRITICAL PARAMETERS")
	fmt.Printf("  %s\n", strings.Join(result.CriticalParameters, ", "))
	fmt.Println()

	printConfidenceBar(os.Stdout, "Robustness:", result.Summary.RobustnessScore)
	_, _ = dim.Printf("  Most sensitive: %s (max NPV swing %s)\n",
		result.Summary.MostSensitiveParameter, formatMoney(result.Summary.MaxNPVImpact))
}

func tornadoBar(impact, maxImpact float64) string {
	const barWidth = 20
	if maxImpact <= 0 {
		return strings.Repeat("░", barWidth)
	}
	filled := int(impact / maxImpact * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
