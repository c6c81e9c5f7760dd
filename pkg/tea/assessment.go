package tea

// QualityAssessment scores a techno-economic analysis against a fixed
// 10-point rubric. PassThreshold is the score required for an
// investor-facing report.
type QualityAssessment struct {
	OverallScore float64       `json:"overall_score"` // 0-10
	Percentage   float64       `json:"percentage"`    // 0-100
	Passed       bool          `json:"passed"`
	Grade        string        `json:"grade"` // A-F
	Scores       []RubricScore `json:"scores"`
}

// RubricScore is the outcome for one rubric criterion.
type RubricScore struct {
	Criterion     string   `json:"criterion"`
	PointsAwarded float64  `json:"points_awarded"`
	MaxPoints     float64  `json:"max_points"`
	Rationale     string   `json:"rationale"`
	Evidence      []string `json:"evidence,omitempty"`
	Improvements  []string `json:"improvements,omitempty"`
}

// ValidationReport aggregates the upstream pipeline's conclusions into the
// boolean and enum facts the rubric evaluator reads. The evaluator trusts
// these fields; it does not re-derive them from raw checks.
type ValidationReport struct {
	FormulasValidated       bool `json:"formulas_validated"`
	DimensionallyConsistent bool `json:"dimensionally_consistent"`
	BenchmarkCompared       bool `json:"benchmark_compared"`

	AssumptionsSourced    bool `json:"assumptions_sourced"`
	LiteratureConsistent  bool `json:"literature_consistent"`
	UncertaintyQuantified bool `json:"uncertainty_quantified"`

	RequiredParametersPresent bool `json:"required_parameters_present"`
	MinimalDefaultUsage       bool `json:"minimal_default_usage"`
	// PrimaryDataQuality is "high", "medium", or "low".
	PrimaryDataQuality string `json:"primary_data_quality"`

	BalancesConverged bool `json:"balances_converged"`
	MetricsConsistent bool `json:"metrics_consistent"`
	NoContradictions  bool `json:"no_contradictions"`

	WithinBenchmarkRange bool `json:"within_benchmark_range"`
	AlternativesCompared bool `json:"alternatives_compared"`
	IndustryValidated    bool `json:"industry_validated"`

	MethodologyDocumented  bool `json:"methodology_documented"`
	SensitivityAppropriate bool `json:"sensitivity_appropriate"`
}

// OrchestrationResult is the final output of the quality orchestration
// pipeline: the go/no-go gate for report generation.
type OrchestrationResult struct {
	OverallConfidence    float64            `json:"overall_confidence"` // 0-100
	QualityScore         float64            `json:"quality_score"`      // 0-10
	Stages               []Stage            `json:"stages"`
	FinalResults         *Result            `json:"final_results,omitempty"`
	Report               ValidationReport   `json:"validation_report"`
	Assessment           *QualityAssessment `json:"assessment,omitempty"`
	ShouldGenerateReport bool               `json:"should_generate_report"`
	Recommendations      []string           `json:"recommendations,omitempty"`
}
