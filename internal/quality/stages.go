package quality

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kamilpajak/joule/internal/reasoning"
	"github.com/kamilpajak/joule/pkg/tea"
)

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stageTimeout > 0 {
		return context.WithTimeout(ctx, o.stageTimeout)
	}
	return context.WithCancel(ctx)
}

func startStage(kind tea.StageKind) tea.Stage {
	return tea.Stage{
		Kind:      kind,
		Status:    tea.StageInProgress,
		StartedAt: time.Now().UTC(),
	}
}

func failStage(s tea.Stage, err error) tea.Stage {
	s.Status = tea.StageFailed
	s.Confidence = 0
	s.Error = err.Error()
	s.CompletedAt = time.Now().UTC()
	return s
}

// runResearch asks the research collaborator to cross-reference the headline
// metrics and key inputs against literature.
func (o *Orchestrator) runResearch(ctx context.Context, req Request, val tea.ValidationResult) tea.Stage {
	stage := startStage(tea.StageResearch)

	callCtx, cancel := o.stageContext(ctx)
	defer cancel()

	resp, err := o.collab.Research(callCtx, reasoning.ResearchRequest{
		Query:   researchQuery(req, val),
		Domain:  string(req.Input.Technology),
		Sources: []string{"NREL ATB", "IEA", "NETL cost baselines"},
		Depth:   "standard",
	})
	if err != nil {
		return failStage(stage, err)
	}

	stage.Status = tea.StageComplete
	stage.Confidence = clampConfidence(resp.Confidence)
	stage.Findings = resp.Findings
	stage.Discrepancies = resp.Discrepancies
	stage.References = resp.References
	stage.CompletedAt = time.Now().UTC()
	return stage
}

// runRefinement asks the refinement collaborator to propose corrections for
// the open discrepancies.
func (o *Orchestrator) runRefinement(ctx context.Context, discrepancies []string, results *tea.Result, references []string) tea.Stage {
	stage := startStage(tea.StageRefinement)

	callCtx, cancel := o.stageContext(ctx)
	defer cancel()

	resp, err := o.collab.Refine(callCtx, reasoning.RefineRequest{
		Prompt: "Propose corrections for the discrepancies found in this techno-economic analysis.",
		Context: reasoning.RefineContext{
			Discrepancies:  discrepancies,
			CurrentResults: results,
			References:     references,
		},
	})
	if err != nil {
		return failStage(stage, err)
	}

	stage.Status = tea.StageComplete
	stage.Confidence = clampConfidence(resp.Confidence)
	stage.Findings = resp.Findings
	stage.Corrections = resp.Corrections
	stage.References = resp.NewReferences
	stage.CompletedAt = time.Now().UTC()
	return stage
}

// runCritique asks the self-critique collaborator to review the analysis.
// Reported weaknesses become the stage's discrepancies and can trigger a
// second refinement pass.
func (o *Orchestrator) runCritique(ctx context.Context, req Request, val tea.ValidationResult, recon tea.ReconciliationResult, prior []tea.Stage) tea.Stage {
	stage := startStage(tea.StageSelfCritique)

	callCtx, cancel := o.stageContext(ctx)
	defer cancel()

	resp, err := o.collab.Critique(callCtx, reasoning.CritiqueRequest{
		Subject: fmt.Sprintf("%s project techno-economic analysis", req.Input.Technology),
		Content: critiqueContent(req, val, recon, prior),
		Criteria: []string{
			"calculation accuracy",
			"assumption quality",
			"internal consistency",
			"benchmark plausibility",
		},
	})
	if err != nil {
		return failStage(stage, err)
	}

	stage.Status = tea.StageComplete
	stage.Confidence = clampConfidence(resp.OverallScore)
	stage.Findings = resp.Strengths
	stage.Discrepancies = resp.Weaknesses
	stage.Corrections = resp.Suggestions
	stage.CompletedAt = time.Now().UTC()
	return stage
}

// finalValidationStage wraps the closing validator and reconciler pass into
// a stage record. Its confidence is the mean of both confidences.
func finalValidationStage(val tea.ValidationResult, recon tea.ReconciliationResult) tea.Stage {
	now := time.Now().UTC()
	stage := tea.Stage{
		Kind:        tea.StageFinalValidation,
		Status:      tea.StageComplete,
		Confidence:  (val.OverallConfidence + recon.Confidence) / 2,
		StartedAt:   now,
		CompletedAt: now,
	}

	stage.Findings = append(stage.Findings,
		fmt.Sprintf("validation: %d/%d checks passed (confidence %.0f)", passedCount(len(val.Checks), len(val.CriticalIssues)+len(val.Warnings)), len(val.Checks), val.OverallConfidence),
		fmt.Sprintf("reconciliation: %d/%d checks passed (confidence %.0f)", passedCount(len(recon.Checks), len(recon.CriticalIssues)+len(recon.Warnings)), len(recon.Checks), recon.Confidence),
	)
	stage.Discrepancies = append(stage.Discrepancies, val.CriticalIssues...)
	stage.Discrepancies = append(stage.Discrepancies, recon.CriticalIssues...)
	return stage
}

func passedCount(total, failed int) int {
	return total - failed
}

func researchQuery(req Request, val tea.ValidationResult) string {
	var b strings.Builder
	in, res := req.Input, req.Result

	fmt.Fprintf(&b, "Verify these techno-economic results for a %.0f MW %s project:\n", in.CapacityMW, in.Technology)
	fmt.Fprintf(&b, "- LCOE: %.4f $/kWh\n", res.LCOE)
	fmt.Fprintf(&b, "- NPV: %.0f USD at %.1f%% discount rate\n", res.NPV, in.DiscountRate*100)
	fmt.Fprintf(&b, "- IRR: %.1f%%\n", res.IRR*100)
	fmt.Fprintf(&b, "- CAPEX: %.0f $/kW, OPEX: %.0f $/kW-yr\n", in.CapexPerKW, in.OpexPerKWYear)
	fmt.Fprintf(&b, "- Capacity factor: %.1f%%, lifetime: %d years\n", in.CapacityFactor, in.LifetimeYears)

	if len(val.Warnings) > 0 {
		b.WriteString("\nThe structural validator flagged:\n")
		for _, w := range val.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	b.WriteString("\nCross-reference each value against published ranges and report discrepancies.")
	return b.String()
}

func critiqueContent(req Request, val tea.ValidationResult, recon tea.ReconciliationResult, prior []tea.Stage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Results\nLCOE %.4f $/kWh, NPV %.0f, IRR %.1f%%, payback %.1f years\n",
		req.Result.LCOE, req.Result.NPV, req.Result.IRR*100, req.Result.PaybackYears)

	fmt.Fprintf(&b, "\n## Structural validation\nvalid=%t confidence=%.0f, %d critical issues, %d warnings\n",
		val.Valid, val.OverallConfidence, len(val.CriticalIssues), len(val.Warnings))
	fmt.Fprintf(&b, "reconciled=%t confidence=%.0f, %d critical issues, %d warnings\n",
		recon.Reconciled, recon.Confidence, len(recon.CriticalIssues), len(recon.Warnings))

	for _, s := range prior {
		fmt.Fprintf(&b, "\n## Stage %s (%s, confidence %.0f)\n", s.Kind, s.Status, s.Confidence)
		for _, f := range s.Findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		for _, d := range s.Discrepancies {
			fmt.Fprintf(&b, "- discrepancy: %s\n", d)
		}
	}

	return b.String()
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
