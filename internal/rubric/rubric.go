// Package rubric scores a techno-economic analysis against a fixed 10-point
// quality rubric with six weighted criteria. The evaluator reads the facts
// recorded on the caller-supplied validation report; it does not re-derive
// them from raw checks.
package rubric

import (
	"fmt"

	"github.com/kamilpajak/joule/pkg/tea"
)

// Criterion names, in rubric order.
const (
	CriterionCalculationAccuracy = "calculation_accuracy"
	CriterionAssumptionQuality   = "assumption_quality"
	CriterionDataCompleteness    = "data_completeness"
	CriterionInternalConsistency = "internal_consistency"
	CriterionBenchmarking        = "benchmarking"
	CriterionMethodologyRigor    = "methodology_rigor"
)

// PassThreshold is the overall score required for an investor-facing report.
const PassThreshold = 7.0

const maxScore = 10.0

// Evaluate maps a validation report onto the fixed rubric. The overall score
// is the unweighted sum of awarded points; criterion weights sum to 10.
func Evaluate(report tea.ValidationReport) tea.QualityAssessment {
	scores := []tea.RubricScore{
		calculationAccuracy(report),
		assumptionQuality(report),
		dataCompleteness(report),
		internalConsistency(report),
		benchmarking(report),
		methodologyRigor(report),
	}

	total := 0.0
	for _, s := range scores {
		total += s.PointsAwarded
	}

	return tea.QualityAssessment{
		OverallScore: total,
		Percentage:   total / maxScore * 100,
		Passed:       total >= PassThreshold,
		Grade:        grade(total),
		Scores:       scores,
	}
}

func grade(score float64) string {
	switch {
	case score >= 9:
		return "A"
	case score >= 7:
		return "B"
	case score >= 5:
		return "C"
	case score >= 3:
		return "D"
	default:
		return "F"
	}
}

// calculationAccuracy awards 3 points: formula validation, dimensional
// consistency, and benchmark comparison, one point each.
func calculationAccuracy(r tea.ValidationReport) tea.RubricScore {
	s := tea.RubricScore{Criterion: CriterionCalculationAccuracy, MaxPoints: 3}

	if r.FormulasValidated {
		s.PointsAwarded++
		s.Evidence = append(s.Evidence, "financial formulas cross-checked against independent recalculation")
	} else {
		s.Improvements = append(s.Improvements, "validate financial formulas against an independent recalculation")
	}
	if r.DimensionallyConsistent {
		s.PointsAwarded++
		s.Evidence = append(s.Evidence, "all metrics pass dimensional bounds")
	} else {
		s.Improvements = append(s.Improvements, "resolve dimensional inconsistencies before reporting")
	}
	if r.BenchmarkCompared {
		s.PointsAwarded++
		s.Evidence = append(s.Evidence, "results compared against technology benchmark ranges")
	} else {
		s.Improvements = append(s.Improvements, "compare results against published technology benchmarks")
	}

	s.Rationale = fmt.Sprintf("%g of 3 accuracy indicators satisfied", s.PointsAwarded)
	return s
}

// assumptionQuality awards 2 points: sourced, literature-consistent
// assumptions, and quantified uncertainty.
func assumptionQuality(r tea.ValidationReport) tea.RubricScore {
	s := tea.RubricScore{Criterion: CriterionAssumptionQuality, MaxPoints: 2}

	if r.AssumptionsSourced && r.LiteratureConsistent {
		s.PointsAwarded++
		s.Evidence = append(s.Evidence, "assumptions carry citations consistent with literature")
	} else {
		s.Improvements = append(s.Improvements, "cite sources for key assumptions and reconcile against literature values")
	}
	if r.UncertaintyQuantified {
		s.PointsAwarded++
		s.Evidence = append(s.Evidence, "input uncertainty quantified")
	} else {
		s.Improvements = append(s.Improvements, "quantify uncertainty on key inputs (ranges or distributions)")
	}

	s.Rationale = fmt.Sprintf("%g of 2 assumption-quality indicators satisfied", s.PointsAwarded)
	return s
}

// dataCompleteness awards 2 points: one for complete inputs with minimal
// defaults, one graded by primary data quality (full for high, half for
// medium).
func dataCompleteness(r tea.ValidationReport) tea.RubricScore {
	s := tea.RubricScore{Criterion: CriterionDataCompleteness, MaxPoints: 2}

	if r.RequiredParametersPresent && r.MinimalDefaultUsage {
		s.PointsAwarded++
		s.Evidence = append(s.Evidence, "all required parameters supplied with minimal default usage")
	} else {
		s.Improvements = append(s.Improvements, "supply all required parameters instead of relying on defaults")
	}

	switch r.PrimaryDataQuality {
	case "high":
		s.PointsAwarded++
		s.Evidence = append(s.Evidence, "primary data quality rated high")
	case "medium":
		s.PointsAwarded += 0.5
		s.Evidence = append(s.Evidence, "primary data quality rated medium")
		s.Improvements = append(s.Improvements, "replace medium-quality data sources with primary measurements or vendor quotes")
	default:
		s.Improvements = append(s.Improvements, "improve primary data quality; current sources rated low")
	}

	s.Rationale = fmt.Sprintf("%g of 2 completeness points earned", s.PointsAwarded)
	return s
}

// internalConsistency is all-or-nothing: balances converged, metrics
// consistent, and no contradictions.
func internalConsistency(r tea.ValidationReport) tea.RubricScore {
	s := tea.RubricScore{Criterion: CriterionInternalConsistency, MaxPoints: 1}

	if r.BalancesConverged && r.MetricsConsistent && r.NoContradictions {
		s.PointsAwarded = 1
		s.Rationale = "balances converge, metrics agree, no contradictions found"
		s.Evidence = append(s.Evidence, "reconciliation checks all passed")
	} else {
		s.Rationale = "internal consistency requirements not fully met"
		if !r.BalancesConverged {
			s.Improvements = append(s.Improvements, "resolve mass/energy balance convergence failures")
		}
		if !r.MetricsConsistent {
			s.Improvements = append(s.Improvements, "reconcile disagreeing investment metrics")
		}
		if !r.NoContradictions {
			s.Improvements = append(s.Improvements, "eliminate contradictory findings across pipeline stages")
		}
	}
	return s
}

// benchmarking is all-or-nothing: within range, alternatives compared, and
// industry validated.
func benchmarking(r tea.ValidationReport) tea.RubricScore {
	s := tea.RubricScore{Criterion: CriterionBenchmarking, MaxPoints: 1}

	if r.WithinBenchmarkRange && r.AlternativesCompared && r.IndustryValidated {
		s.PointsAwarded = 1
		s.Rationale = "results benchmarked within range against alternatives and industry data"
		s.Evidence = append(s.Evidence, "all benchmark checks passed")
	} else {
		s.Rationale = "benchmarking requirements not fully met"
		if !r.WithinBenchmarkRange {
			s.Improvements = append(s.Improvements, "investigate metrics outside published benchmark ranges")
		}
		if !r.AlternativesCompared {
			s.Improvements = append(s.Improvements, "compare against alternative technology options")
		}
		if !r.IndustryValidated {
			s.Improvements = append(s.Improvements, "validate results against industry project data")
		}
	}
	return s
}

// methodologyRigor is all-or-nothing: documented methodology, appropriate
// sensitivity analysis, and quantified uncertainty.
func methodologyRigor(r tea.ValidationReport) tea.RubricScore {
	s := tea.RubricScore{Criterion: CriterionMethodologyRigor, MaxPoints: 1}

	if r.MethodologyDocumented && r.SensitivityAppropriate && r.UncertaintyQuantified {
		s.PointsAwarded = 1
		s.Rationale = "methodology documented with appropriate sensitivity and uncertainty treatment"
		s.Evidence = append(s.Evidence, "methodology and sensitivity requirements satisfied")
	} else {
		s.Rationale = "methodology rigor requirements not fully met"
		if !r.MethodologyDocumented {
			s.Improvements = append(s.Improvements, "document the calculation methodology")
		}
		if !r.SensitivityAppropriate {
			s.Improvements = append(s.Improvements, "run sensitivity analysis appropriate to the project scale")
		}
		if !r.UncertaintyQuantified {
			s.Improvements = append(s.Improvements, "quantify uncertainty on the reported metrics")
		}
	}
	return s
}
