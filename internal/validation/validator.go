// Package validation checks a computed techno-economic result against
// dimensional bounds, physical constraints, technology benchmark ranges, and
// cross-metric consistency. It judges absolute plausibility; relative
// self-consistency of the result set is the reconcile package's job.
package validation

import (
	"fmt"
	"math"

	"github.com/kamilpajak/joule/pkg/tea"
)

// Dimensional and physical bounds. LCOE above 10 $/kWh or an IRR outside
// [-100%, 1000%] indicates a unit error rather than a bad project.
const (
	maxPlausibleLCOE    = 10.0
	maxNPVCapexRatio    = 5.0
	minPlausibleIRR     = -1.0
	maxPlausibleIRR     = 10.0
	capexSumTolerance   = 0.01
	productionTolerance = 0.05
	criticalPenalty     = 20.0
)

// Provenance describes where the project input data came from. When
// supplied, benchmark checks cite it alongside the literature reference.
type Provenance struct {
	Source      string `json:"source"`
	RetrievedAt string `json:"retrieved_at,omitempty"`
}

// Validator runs the fixed check sequence against a calculation result.
type Validator struct {
	benchmarks BenchmarkTable
}

// New creates a validator backed by the embedded benchmark table.
func New() (*Validator, error) {
	table, err := LoadBenchmarks()
	if err != nil {
		return nil, err
	}
	return &Validator{benchmarks: table}, nil
}

// NewWithBenchmarks creates a validator with a caller-supplied table.
func NewWithBenchmarks(table BenchmarkTable) *Validator {
	return &Validator{benchmarks: table}
}

// Validate runs dimensional, physical, benchmark, and cross-validation
// checks in that fixed order. It is a pure function of its inputs: calling
// it twice on the same pair yields identical checks. prov may be nil.
func (v *Validator) Validate(in tea.Input, res *tea.Result, prov *Provenance) tea.ValidationResult {
	var checks []tea.ValidationCheck

	checks = append(checks, v.dimensionalChecks(res)...)
	checks = append(checks, v.physicalChecks(in, res)...)
	checks = append(checks, v.benchmarkChecks(in, res, prov)...)
	checks = append(checks, v.crossValidationChecks(in, res)...)

	return summarize(checks)
}

func (v *Validator) dimensionalChecks(res *tea.Result) []tea.ValidationCheck {
	var checks []tea.ValidationCheck

	lcoeRange := &tea.Range{Min: 0, Max: maxPlausibleLCOE}
	if res.LCOE > 0 && res.LCOE < maxPlausibleLCOE {
		checks = append(checks, passCheck("lcoe", tea.CheckDimensional,
			fmt.Sprintf("LCOE %.4f $/kWh is dimensionally plausible", res.LCOE), lcoeRange, res.LCOE))
	} else {
		checks = append(checks, failCheck("lcoe", tea.CheckDimensional, tea.SeverityCritical,
			fmt.Sprintf("LCOE %.4f $/kWh is outside (0, %.0f) $/kWh; likely a unit conversion error", res.LCOE, maxPlausibleLCOE),
			lcoeRange, res.LCOE))
	}

	if res.TotalCapex > 0 {
		ratio := math.Abs(res.NPV) / res.TotalCapex
		npvRange := &tea.Range{Min: 0, Max: maxNPVCapexRatio}
		if ratio <= maxNPVCapexRatio {
			checks = append(checks, passCheck("npv_magnitude", tea.CheckDimensional,
				fmt.Sprintf("|NPV| is %.2fx total CAPEX", ratio), npvRange, ratio))
		} else {
			checks = append(checks, failCheck("npv_magnitude", tea.CheckDimensional, tea.SeverityMajor,
				fmt.Sprintf("|NPV| is %.2fx total CAPEX, exceeding the %.0fx plausibility bound", ratio, maxNPVCapexRatio),
				npvRange, ratio))
		}
	}

	irrRange := &tea.Range{Min: minPlausibleIRR, Max: maxPlausibleIRR}
	if res.IRR >= minPlausibleIRR && res.IRR <= maxPlausibleIRR {
		checks = append(checks, passCheck("irr", tea.CheckDimensional,
			fmt.Sprintf("IRR %.1f%% lies within [-100%%, 1000%%]", res.IRR*100), irrRange, res.IRR))
	} else {
		checks = append(checks, failCheck("irr", tea.CheckDimensional, tea.SeverityCritical,
			fmt.Sprintf("IRR %.1f%% lies outside [-100%%, 1000%%]", res.IRR*100), irrRange, res.IRR))
	}

	return checks
}

func (v *Validator) physicalChecks(in tea.Input, res *tea.Result) []tea.ValidationCheck {
	var checks []tea.ValidationCheck

	cfRange := &tea.Range{Min: 0, Max: 100}
	if cfRange.Contains(in.CapacityFactor) {
		checks = append(checks, passCheck("capacity_factor", tea.CheckPhysical,
			fmt.Sprintf("capacity factor %.1f%% is physically possible", in.CapacityFactor), cfRange, in.CapacityFactor))
	} else {
		checks = append(checks, failCheck("capacity_factor", tea.CheckPhysical, tea.SeverityCritical,
			fmt.Sprintf("capacity factor %.1f%% is outside [0, 100]%%", in.CapacityFactor), cfRange, in.CapacityFactor))
	}

	lifeRange := &tea.Range{Min: 1, Max: 100}
	lifetime := float64(in.LifetimeYears)
	if lifeRange.Contains(lifetime) {
		checks = append(checks, passCheck("lifetime", tea.CheckPhysical,
			fmt.Sprintf("project lifetime %d years is plausible", in.LifetimeYears), lifeRange, lifetime))
	} else {
		checks = append(checks, failCheck("lifetime", tea.CheckPhysical, tea.SeverityCritical,
			fmt.Sprintf("project lifetime %d years is outside [1, 100]", in.LifetimeYears), lifeRange, lifetime))
	}

	paybackRange := &tea.Range{Min: 0, Max: lifetime}
	if res.PaybackYears <= lifetime {
		checks = append(checks, passCheck("payback", tea.CheckPhysical,
			fmt.Sprintf("payback period %.1f years is within the project lifetime", res.PaybackYears), paybackRange, res.PaybackYears))
	} else {
		checks = append(checks, failCheck("payback", tea.CheckPhysical, tea.SeverityMajor,
			fmt.Sprintf("payback period %.1f years exceeds the %d-year project lifetime", res.PaybackYears, in.LifetimeYears),
			paybackRange, res.PaybackYears))
	}

	return checks
}

func (v *Validator) benchmarkChecks(in tea.Input, res *tea.Result, prov *Provenance) []tea.ValidationCheck {
	row := v.benchmarks.ForTechnology(in.Technology)

	reference := row.Reference
	if prov != nil && prov.Source != "" {
		reference = fmt.Sprintf("%s; input data: %s", row.Reference, prov.Source)
	}

	values := []struct {
		metric string
		value  float64
		r      tea.Range
		unit   string
	}{
		{"lcoe_benchmark", res.LCOE, row.LCOE, "$/kWh"},
		{"capex_benchmark", in.CapexPerKW, row.CapexPerKW, "$/kW"},
		{"opex_benchmark", in.OpexPerKWYear, row.OpexPerKWYear, "$/kW-yr"},
		{"capacity_factor_benchmark", in.CapacityFactor, row.CapacityFactor, "%"},
		{"lifetime_benchmark", float64(in.LifetimeYears), row.Lifetime, "years"},
	}

	checks := make([]tea.ValidationCheck, 0, len(values))
	for _, bc := range values {
		r := bc.r
		check := tea.ValidationCheck{
			Metric:    bc.metric,
			Kind:      tea.CheckBenchmark,
			Expected:  &r,
			Actual:    tea.Float64(bc.value),
			Reference: reference,
		}
		if r.Contains(bc.value) {
			check.Passed = true
			check.Message = fmt.Sprintf("%s %.4g %s falls inside the %s literature range [%.4g, %.4g]",
				bc.metric, bc.value, bc.unit, in.Technology, r.Min, r.Max)
		} else {
			dev := boundDeviationPct(bc.value, r)
			check.Severity = tea.SeverityMajor
			check.DeviationPct = tea.Float64(dev)
			check.Message = fmt.Sprintf("%s %.4g %s is %+.1f%% outside the %s literature range [%.4g, %.4g]",
				bc.metric, bc.value, bc.unit, dev, in.Technology, r.Min, r.Max)
		}
		checks = append(checks, check)
	}

	return checks
}

func (v *Validator) crossValidationChecks(in tea.Input, res *tea.Result) []tea.ValidationCheck {
	var checks []tea.ValidationCheck

	// NPV and IRR must tell the same story relative to the discount rate.
	npvPositive := res.NPV > 0
	irrAboveDiscount := res.IRR > in.DiscountRate
	if npvPositive == irrAboveDiscount {
		checks = append(checks, passCheck("npv_irr_agreement", tea.CheckCrossValidation,
			"NPV sign agrees with IRR relative to the discount rate", nil, res.NPV))
	} else {
		checks = append(checks, failCheck("npv_irr_agreement", tea.CheckCrossValidation, tea.SeverityCritical,
			fmt.Sprintf("NPV %.0f and IRR %.1f%% disagree relative to the %.1f%% discount rate",
				res.NPV, res.IRR*100, in.DiscountRate*100), nil, res.NPV))
	}

	if len(res.CapexBreakdown) > 0 {
		sum := 0.0
		for _, c := range res.CapexBreakdown {
			sum += c
		}
		check := tea.ValidationCheck{
			Metric: "capex_components",
			Kind:   tea.CheckCrossValidation,
			Actual: tea.Float64(sum),
		}
		dev := relativeDeviation(sum, res.TotalCapex)
		check.DeviationPct = tea.Float64(dev * 100)
		if dev <= capexSumTolerance {
			check.Passed = true
			check.Message = fmt.Sprintf("CAPEX component sum matches total CAPEX within %.1f%%", capexSumTolerance*100)
		} else {
			check.Severity = tea.SeverityMajor
			check.Message = fmt.Sprintf("CAPEX components sum to %.0f but total CAPEX is %.0f (%.1f%% apart)",
				sum, res.TotalCapex, dev*100)
		}
		checks = append(checks, check)
	}

	// Annual production must match capacity x capacity factor x 8760 h.
	implied := in.ImpliedProductionMWh()
	actual := res.AnnualProductionMWh
	if in.AnnualProductionMWh != nil {
		actual = *in.AnnualProductionMWh
	}
	if implied > 0 && actual > 0 {
		check := tea.ValidationCheck{
			Metric: "annual_production",
			Kind:   tea.CheckCrossValidation,
			Actual: tea.Float64(actual),
		}
		dev := relativeDeviation(actual, implied)
		check.DeviationPct = tea.Float64(dev * 100)
		if dev <= productionTolerance {
			check.Passed = true
			check.Message = fmt.Sprintf("annual production %.0f MWh matches capacity x capacity factor (%.1f%% deviation)",
				actual, dev*100)
		} else {
			check.Severity = tea.SeverityMajor
			check.Message = fmt.Sprintf("annual production %.0f MWh deviates %.1f%% from the %.0f MWh implied by capacity and capacity factor",
				actual, dev*100, implied)
		}
		checks = append(checks, check)
	}

	return checks
}

// summarize computes the overall verdict from the check list: confidence is
// 100 x passed/total minus 20 points per critical failure, clamped to
// [0,100]; valid means zero critical failures.
func summarize(checks []tea.ValidationCheck) tea.ValidationResult {
	passed, criticals := 0, 0
	var criticalIssues, warnings, recommendations []string

	for _, c := range checks {
		if c.Passed {
			passed++
			continue
		}
		switch c.Severity {
		case tea.SeverityCritical:
			criticals++
			criticalIssues = append(criticalIssues, c.Message)
			recommendations = append(recommendations, "CRITICAL: "+c.Message)
		default:
			warnings = append(warnings, c.Message)
		}
	}
	for _, c := range checks {
		if !c.Passed && c.Severity != tea.SeverityCritical {
			recommendations = append(recommendations, "Review: "+c.Message)
		}
	}

	confidence := 0.0
	if len(checks) > 0 {
		confidence = 100*float64(passed)/float64(len(checks)) - criticalPenalty*float64(criticals)
	}
	confidence = clamp(confidence, 0, 100)

	return tea.ValidationResult{
		Valid:             criticals == 0,
		OverallConfidence: confidence,
		Checks:            checks,
		CriticalIssues:    criticalIssues,
		Warnings:          warnings,
		Recommendations:   recommendations,
	}
}

func passCheck(metric string, kind tea.CheckKind, msg string, expected *tea.Range, actual float64) tea.ValidationCheck {
	return tea.ValidationCheck{
		Metric:   metric,
		Kind:     kind,
		Passed:   true,
		Message:  msg,
		Expected: expected,
		Actual:   tea.Float64(actual),
	}
}

func failCheck(metric string, kind tea.CheckKind, sev tea.Severity, msg string, expected *tea.Range, actual float64) tea.ValidationCheck {
	return tea.ValidationCheck{
		Metric:   metric,
		Kind:     kind,
		Severity: sev,
		Message:  msg,
		Expected: expected,
		Actual:   tea.Float64(actual),
	}
}

// boundDeviationPct returns the signed percentage deviation from the nearest
// bound: positive above the max, negative below the min.
func boundDeviationPct(v float64, r tea.Range) float64 {
	switch {
	case v > r.Max && r.Max != 0:
		return (v - r.Max) / r.Max * 100
	case v < r.Min && r.Min != 0:
		return -(r.Min - v) / r.Min * 100
	case v > r.Max:
		return math.Inf(1)
	default:
		return 0
	}
}

func relativeDeviation(actual, expected float64) float64 {
	if expected == 0 {
		if actual == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(actual-expected) / math.Abs(expected)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
