// Package quality orchestrates the multi-stage confidence pipeline that
// gates report generation: literature research, refinement of discrepancies,
// self-critique, and a final validation pass. External reasoning
// collaborators are consulted per stage; the constraint validator, the
// reconciler, and the rubric evaluator supply the structural evidence.
package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/kamilpajak/joule/internal/reasoning"
	"github.com/kamilpajak/joule/internal/reconcile"
	"github.com/kamilpajak/joule/internal/rubric"
	"github.com/kamilpajak/joule/internal/validation"
	"github.com/kamilpajak/joule/pkg/tea"
)

// Default gate thresholds and timeouts.
const (
	DefaultConfidenceThreshold = 95.0
	DefaultQualityThreshold    = rubric.PassThreshold
	DefaultStageTimeout        = 60 * time.Second
)

// stageWeights is keyed by stage kind, not by position in the stage log, so
// a missing stage can never inherit another stage's weight. When a kind
// appears more than once (a second refinement pass) the confidences of that
// kind are averaged before weighting; failed stages count at confidence 0.
var stageWeights = map[tea.StageKind]float64{
	tea.StageResearch:        0.20,
	tea.StageRefinement:      0.25,
	tea.StageSelfCritique:    0.25,
	tea.StageFinalValidation: 0.30,
}

// ProgressEvent reports pipeline progress to an optional emitter.
type ProgressEvent struct {
	Stage   tea.StageKind
	Message string
}

// ProgressEmitter receives progress events during orchestration.
type ProgressEmitter interface {
	Emit(ev ProgressEvent)
}

// Request describes one orchestration run.
type Request struct {
	Input      tea.Input
	Result     *tea.Result
	Provenance *validation.Provenance

	// Sensitivity, if supplied, counts as quantified uncertainty for the
	// rubric. The sensitivity engine is invoked separately; the orchestrator
	// only reads its summary.
	Sensitivity *tea.SensitivityResult

	// DataQuality rates the primary input data: "high", "medium" (default),
	// or "low".
	DataQuality string
}

// Orchestrator sequences the four-stage confidence pipeline.
type Orchestrator struct {
	collab     reasoning.Collaborator
	validator  *validation.Validator
	reconciler *reconcile.Reconciler

	confidenceThreshold float64
	qualityThreshold    float64
	stageTimeout        time.Duration
	overallTimeout      time.Duration
	emitter             ProgressEmitter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithThresholds overrides the report-generation gate thresholds.
func WithThresholds(confidence, quality float64) Option {
	return func(o *Orchestrator) {
		o.confidenceThreshold = confidence
		o.qualityThreshold = quality
	}
}

// WithStageTimeout bounds each collaborator call. An expired stage is marked
// failed and the pipeline continues.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

// WithOverallTimeout bounds the whole orchestration. On expiry the pipeline
// short-circuits to whatever stages completed.
func WithOverallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.overallTimeout = d }
}

// WithEmitter attaches a progress emitter.
func WithEmitter(e ProgressEmitter) Option {
	return func(o *Orchestrator) { o.emitter = e }
}

// New creates an orchestrator around a reasoning collaborator.
func New(collab reasoning.Collaborator, v *validation.Validator, r *reconcile.Reconciler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		collab:              collab,
		validator:           v,
		reconciler:          r,
		confidenceThreshold: DefaultConfidenceThreshold,
		qualityThreshold:    DefaultQualityThreshold,
		stageTimeout:        DefaultStageTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) emit(stage tea.StageKind, msg string) {
	if o.emitter != nil {
		o.emitter.Emit(ProgressEvent{Stage: stage, Message: msg})
	}
}

// Run executes the pipeline:
//
//	research -> [discrepancies?] -> refinement -> applyCorrections
//	          -> self-critique -> [new discrepancies?] -> refinement(2)
//	          -> final-validation
//
// Collaborator failure is non-fatal: the stage is marked failed with
// confidence 0 and the pipeline continues. The returned stage log is an
// append-only record of everything that ran.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*tea.OrchestrationResult, error) {
	if req.Result == nil {
		return nil, fmt.Errorf("orchestration requires a calculated result")
	}

	if o.overallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.overallTimeout)
		defer cancel()
	}

	// Structural evidence first: the research query and critique content are
	// built from the validator's and reconciler's check lists.
	valResult := o.validator.Validate(req.Input, req.Result, req.Provenance)
	reconResult := o.reconciler.Reconcile(req.Input, req.Result)

	var stages []tea.Stage
	var recommendations []string
	currentResults := req.Result
	var references []string

	// Stage 1: research.
	o.emit(tea.StageResearch, "cross-referencing results against literature")
	research := o.runResearch(ctx, req, valResult)
	stages = append(stages, research)
	references = append(references, research.References...)

	// Conditional refinement after research.
	if research.Status == tea.StageComplete && len(research.Discrepancies) > 0 && ctx.Err() == nil {
		o.emit(tea.StageRefinement, "proposing corrections for research discrepancies")
		refinement := o.runRefinement(ctx, research.Discrepancies, currentResults, references)
		stages = append(stages, refinement)
		references = append(references, refinement.References...)

		var note string
		currentResults, note = applyCorrections(currentResults, refinement.Corrections)
		if note != "" {
			recommendations = append(recommendations, note)
		}
	}

	// Stage: self-critique.
	var critiqueDiscrepancies []string
	if ctx.Err() == nil {
		o.emit(tea.StageSelfCritique, "running self-critique")
		critique := o.runCritique(ctx, req, valResult, reconResult, stages)
		stages = append(stages, critique)
		critiqueDiscrepancies = critique.Discrepancies
	}

	// Second conditional refinement when the critique surfaced new problems.
	if len(critiqueDiscrepancies) > 0 && ctx.Err() == nil {
		o.emit(tea.StageRefinement, "proposing corrections for critique findings")
		refinement := o.runRefinement(ctx, critiqueDiscrepancies, currentResults, references)
		stages = append(stages, refinement)

		var note string
		currentResults, note = applyCorrections(currentResults, refinement.Corrections)
		if note != "" {
			recommendations = append(recommendations, note)
		}
	}

	// Final validation always runs, even after an overall timeout: it is
	// local and cheap, and the gate must never rely on stale evidence.
	o.emit(tea.StageFinalValidation, "running final validation pass")
	finalVal := o.validator.Validate(req.Input, currentResults, req.Provenance)
	finalRecon := o.reconciler.Reconcile(req.Input, currentResults)
	stages = append(stages, finalValidationStage(finalVal, finalRecon))

	report := buildReport(req, finalVal, finalRecon, stages)
	assessment := rubric.Evaluate(report)

	confidence := aggregateConfidence(stages)

	recommendations = append(recommendations, orderRecommendations(finalVal, finalRecon)...)
	for _, s := range assessment.Scores {
		recommendations = append(recommendations, s.Improvements...)
	}

	return &tea.OrchestrationResult{
		OverallConfidence:    confidence,
		QualityScore:         assessment.OverallScore,
		Stages:               stages,
		FinalResults:         currentResults,
		Report:               report,
		Assessment:           &assessment,
		ShouldGenerateReport: confidence >= o.confidenceThreshold && assessment.OverallScore >= o.qualityThreshold,
		Recommendations:      recommendations,
	}, nil
}

// applyCorrections is deliberately a pass-through: proposed corrections are
// not fed back into the calculator. Closing that loop automatically would
// let a reasoning collaborator silently rewrite investor-facing numbers, so
// corrections surface as a manual-review recommendation instead.
func applyCorrections(results *tea.Result, corrections []string) (*tea.Result, string) {
	if len(corrections) == 0 {
		return results, ""
	}
	return results, fmt.Sprintf("manual review required: %d correction(s) proposed but not applied automatically", len(corrections))
}

// aggregateConfidence computes the weighted average confidence over the
// executed stages, with weights keyed by stage kind and renormalized over
// the kinds actually present. Failed stages stay in the denominator at
// confidence 0: a run where every collaborator failed must read as low
// confidence, not renormalize to whatever completed locally.
func aggregateConfidence(stages []tea.Stage) float64 {
	type kindAgg struct {
		sum   float64
		count int
	}
	byKind := make(map[tea.StageKind]*kindAgg)
	for _, s := range stages {
		agg, ok := byKind[s.Kind]
		if !ok {
			agg = &kindAgg{}
			byKind[s.Kind] = agg
		}
		if s.Status == tea.StageComplete {
			agg.sum += s.Confidence
		}
		agg.count++
	}

	weightTotal := 0.0
	weighted := 0.0
	for kind, agg := range byKind {
		w := stageWeights[kind]
		weightTotal += w
		weighted += w * agg.sum / float64(agg.count)
	}
	if weightTotal == 0 {
		return 0
	}
	return weighted / weightTotal
}

// orderRecommendations surfaces what to fix: critical issues first, each
// distinctly prefixed, then the remaining warnings.
func orderRecommendations(val tea.ValidationResult, recon tea.ReconciliationResult) []string {
	var recs []string
	for _, issue := range val.CriticalIssues {
		recs = append(recs, "CRITICAL: "+issue)
	}
	for _, issue := range recon.CriticalIssues {
		recs = append(recs, "CRITICAL: "+issue)
	}
	for _, w := range val.Warnings {
		recs = append(recs, "Review: "+w)
	}
	for _, w := range recon.Warnings {
		recs = append(recs, "Review: "+w)
	}
	return recs
}
