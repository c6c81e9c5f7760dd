package tea

// Severity grades how serious a failed check is. Critical failures flip the
// overall valid/reconciled verdict; major and minor failures only lower
// confidence.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// CheckKind classifies a validation check.
type CheckKind string

const (
	CheckDimensional     CheckKind = "dimensional"
	CheckPhysical        CheckKind = "physical"
	CheckBenchmark       CheckKind = "benchmark"
	CheckCrossValidation CheckKind = "cross_validation"
)

// ReconCategory classifies a reconciliation check.
type ReconCategory string

const (
	ReconBalance     ReconCategory = "balance"
	ReconEconomic    ReconCategory = "economic"
	ReconSensitivity ReconCategory = "sensitivity"
	ReconReference   ReconCategory = "reference"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ValidationCheck is one atomic assertion about a calculated result. Checks
// are append-only evidence and never mutated after creation.
type ValidationCheck struct {
	Metric       string    `json:"metric"`
	Kind         CheckKind `json:"kind"`
	Passed       bool      `json:"passed"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	Expected     *Range    `json:"expected_range,omitempty"`
	Actual       *float64  `json:"actual,omitempty"`
	DeviationPct *float64  `json:"deviation_pct,omitempty"`
	Reference    string    `json:"reference,omitempty"`
}

// ReconciliationCheck is one internal-consistency assertion. For numeric
// checks the expected/actual/difference/tolerance quadruple is populated.
type ReconciliationCheck struct {
	Metric     string        `json:"metric"`
	Category   ReconCategory `json:"category"`
	Passed     bool          `json:"passed"`
	Severity   Severity      `json:"severity"`
	Message    string        `json:"message"`
	Expected   *float64      `json:"expected,omitempty"`
	Actual     *float64      `json:"actual,omitempty"`
	Difference *float64      `json:"difference,omitempty"`
	Tolerance  *float64      `json:"tolerance,omitempty"`
}

// ValidationResult is the output of the constraint and benchmark validator.
type ValidationResult struct {
	Valid             bool              `json:"valid"`
	OverallConfidence float64           `json:"overall_confidence"` // 0-100
	Checks            []ValidationCheck `json:"checks"`
	CriticalIssues    []string          `json:"critical_issues,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
	Recommendations   []string          `json:"recommendations,omitempty"`
}

// ReconciliationResult is the output of the result reconciliator.
type ReconciliationResult struct {
	Reconciled      bool                  `json:"reconciled"`
	Confidence      float64               `json:"confidence"` // 0-100
	Checks          []ReconciliationCheck `json:"checks"`
	CriticalIssues  []string              `json:"critical_issues,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
	Recommendations []string              `json:"recommendations,omitempty"`
}

// Float64 returns a pointer to v. Convenience for optional check fields.
func Float64(v float64) *float64 {
	return &v
}
