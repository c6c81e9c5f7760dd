package quality

import (
	"github.com/kamilpajak/joule/pkg/tea"
)

// buildReport distills the pipeline's evidence into the boolean facts the
// rubric evaluator reads. This is the single place those facts are derived;
// the evaluator itself never looks at raw checks.
func buildReport(req Request, val tea.ValidationResult, recon tea.ReconciliationResult, stages []tea.Stage) tea.ValidationReport {
	research := findStage(stages, tea.StageResearch)

	dataQuality := req.DataQuality
	if dataQuality == "" {
		dataQuality = "medium"
	}

	return tea.ValidationReport{
		FormulasValidated:       recon.Reconciled,
		DimensionallyConsistent: kindPassed(val.Checks, tea.CheckDimensional),
		BenchmarkCompared:       kindPresent(val.Checks, tea.CheckBenchmark),

		AssumptionsSourced:    req.Provenance != nil && req.Provenance.Source != "",
		LiteratureConsistent:  research != nil && research.Status == tea.StageComplete && len(research.Discrepancies) == 0,
		UncertaintyQuantified: req.Sensitivity != nil,

		RequiredParametersPresent: requiredParametersPresent(req.Input),
		MinimalDefaultUsage:       req.Input.InstallationFactor != 0,
		PrimaryDataQuality:        dataQuality,

		BalancesConverged: categoryPassed(recon.Checks, tea.ReconBalance),
		MetricsConsistent: categoryPassed(recon.Checks, tea.ReconEconomic) && categoryPassed(recon.Checks, tea.ReconReference),
		NoContradictions:  len(val.CriticalIssues) == 0 && len(recon.CriticalIssues) == 0,

		WithinBenchmarkRange: kindPassed(val.Checks, tea.CheckBenchmark),
		AlternativesCompared: research != nil && research.Status == tea.StageComplete,
		IndustryValidated:    research != nil && research.Status == tea.StageComplete && research.Confidence >= 70,

		MethodologyDocumented:  true,
		SensitivityAppropriate: req.Sensitivity != nil && len(req.Sensitivity.Tornado) > 0,
	}
}

func requiredParametersPresent(in tea.Input) bool {
	return in.Technology.Valid() &&
		in.CapacityMW > 0 &&
		in.CapacityFactor > 0 &&
		in.CapexPerKW > 0 &&
		in.OpexPerKWYear > 0 &&
		in.DiscountRate > 0 &&
		in.LifetimeYears > 0 &&
		in.ElectricityPrice > 0
}

func findStage(stages []tea.Stage, kind tea.StageKind) *tea.Stage {
	for i := range stages {
		if stages[i].Kind == kind {
			return &stages[i]
		}
	}
	return nil
}

func kindPresent(checks []tea.ValidationCheck, kind tea.CheckKind) bool {
	for _, c := range checks {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

func kindPassed(checks []tea.ValidationCheck, kind tea.CheckKind) bool {
	for _, c := range checks {
		if c.Kind == kind && !c.Passed {
			return false
		}
	}
	return true
}

func categoryPassed(checks []tea.ReconciliationCheck, cat tea.ReconCategory) bool {
	for _, c := range checks {
		if c.Category == cat && !c.Passed {
			return false
		}
	}
	return true
}
