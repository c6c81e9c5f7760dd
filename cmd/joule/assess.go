package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/kamilpajak/joule/internal/calculator"
	"github.com/kamilpajak/joule/internal/quality"
	"github.com/kamilpajak/joule/internal/reasoning"
	"github.com/kamilpajak/joule/internal/reconcile"
	"github.com/kamilpajak/joule/internal/scenario"
	"github.com/kamilpajak/joule/internal/sensitivity"
	"github.com/kamilpajak/joule/internal/validation"
	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/spf13/cobra"
)

var (
	assessCollaborator string
	assessJSON         bool
	assessSkipSens     bool
	assessConfidence   float64
	assessQuality      float64
)

var assessCmd = &cobra.Command{
	Use:   "assess <scenario.yaml>",
	Short: "Run the full quality assessment pipeline on a scenario",
	Long: `Assess calculates the scenario's economics, runs sensitivity analysis,
and drives the multi-stage quality pipeline: literature research, refinement
of discrepancies, self-critique, and final validation. The verdict states
whether the analysis clears the report-generation gate.

By default the pipeline runs offline with a deterministic collaborator.
Pass --collaborator gemini or --collaborator anthropic to consult a real
reasoning model (requires GOOGLE_API_KEY or ANTHROPIC_API_KEY).

Examples:
  joule assess scenario.yaml
  joule assess scenario.yaml --collaborator gemini
  joule assess scenario.yaml --json > assessment.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().StringVarP(&assessCollaborator, "collaborator", "c", "offline", "Reasoning collaborator (offline, gemini, anthropic)")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "Output the full result as JSON")
	assessCmd.Flags().BoolVar(&assessSkipSens, "skip-sensitivity", false, "Skip the sensitivity analysis stage")
	assessCmd.Flags().Float64Var(&assessConfidence, "confidence-threshold", quality.DefaultConfidenceThreshold, "Minimum pipeline confidence for the report gate")
	assessCmd.Flags().Float64Var(&assessQuality, "quality-threshold", quality.DefaultQualityThreshold, "Minimum rubric score for the report gate")
}

func newCollaborator(name string) (reasoning.Collaborator, error) {
	switch name {
	case "offline":
		return &reasoning.Canned{}, nil
	case "gemini":
		return reasoning.NewGemini()
	case "anthropic":
		return reasoning.NewAnthropic()
	default:
		return nil, fmt.Errorf("unknown collaborator %q (use offline, gemini, or anthropic)", name)
	}
}

// progressSpinner adapts the pipeline's progress events to a terminal
// spinner, falling back to plain stderr lines when not attached to a tty.
type progressSpinner struct {
	sp *spinner.Spinner
}

func newProgressSpinner() *progressSpinner {
	if !stderrIsTerminal() || assessJSON {
		return &progressSpinner{}
	}
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " assessing..."
	sp.Start()
	return &progressSpinner{sp: sp}
}

func (p *progressSpinner) Emit(ev quality.ProgressEvent) {
	if p.sp != nil {
		p.sp.Suffix = fmt.Sprintf(" [%s] %s", ev.Stage, ev.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Stage, ev.Message)
}

func (p *progressSpinner) Stop() {
	if p.sp != nil {
		p.sp.Stop()
	}
}

func runAssess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	in := sc.Input()

	collab, err := newCollaborator(assessCollaborator)
	if err != nil {
		return err
	}

	calc := calculator.NewDCF()
	res, err := calc.Calculate(ctx, in)
	if err != nil {
		return fmt.Errorf("calculation failed: %w", err)
	}

	var sens *tea.SensitivityResult
	if !assessSkipSens {
		engine := sensitivity.New(calc)
		sens, err = engine.Analyze(ctx, sensitivity.Config{Baseline: in})
		if err != nil {
			return fmt.Errorf("sensitivity analysis failed: %w", err)
		}
	}

	validator, err := validation.New()
	if err != nil {
		return err
	}

	progress := newProgressSpinner()
	orch := quality.New(collab, validator, reconcile.New(),
		quality.WithThresholds(assessConfidence, assessQuality),
		quality.WithEmitter(progress),
	)
	out, err := orch.Run(ctx, quality.Request{
		Input:       in,
		Result:      res,
		Provenance:  sc.InputProvenance(),
		Sensitivity: sens,
		DataQuality: sc.DataQuality,
	})
	progress.Stop()
	if err != nil {
		return fmt.Errorf("quality assessment failed: %w", err)
	}

	if assessJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printAssessment(sc.Name, out)
	return nil
}

func printAssessment(name string, out *tea.OrchestrationResult) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Println()
	_, _ = bold.Printf("%s\n", name)
	_, _ = dim.Println("  " + strings.Repeat("━", 50))

	if out.FinalResults != nil {
		printMetrics(os.Stdout, out.FinalResults)
		fmt.Println()
	}

	_, _ = bold.Println("PIPELINE")
	for _, st := range out.Stages {
		mark := checkMark(st.Status == tea.StageComplete)
		line := fmt.Sprintf("  %s %-18s %5.1f%%", mark, st.Kind, st.Confidence)
		if st.Error != "" {
			line += "  " + st.Error
		}
		fmt.Println(line)
	}
	fmt.Println()

	printConfidenceBar(os.Stdout, "Confidence:", out.OverallConfidence)

	if out.Assessment != nil {
		fmt.Printf("  Quality:    %.1f/10 (grade %s)\n", out.Assessment.OverallScore, out.Assessment.Grade)
		for _, s := range out.Assessment.Scores {
			_, _ = dim.Printf("    %-14s %.1f/%.0f\n", s.Criterion, s.PointsAwarded, s.MaxPoints)
		}
	}

	fmt.Println()
	if out.ShouldGenerateReport {
		_, _ = color.New(color.FgGreen, color.Bold).Println("  PASS: analysis clears the report-generation gate")
	} else {
		_, _ = color.New(color.FgRed, color.Bold).Println("  HOLD: analysis does not clear the report-generation gate")
	}

	printIssueList(os.Stdout, "RECOMMENDATIONS", out.Recommendations, color.New(color.FgYellow))
}
