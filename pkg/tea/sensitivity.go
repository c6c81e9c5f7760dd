package tea

// Parameter describes one input to vary during sensitivity analysis.
// LowPct and HighPct are signed percentage deltas from the base value
// (-30 and +30 for a +/-30% range).
type Parameter struct {
	Name      string  `json:"name"`
	BaseValue float64 `json:"base_value"`
	Unit      string  `json:"unit,omitempty"`
	LowPct    float64 `json:"low_pct"`
	HighPct   float64 `json:"high_pct"`
	Steps     int     `json:"steps,omitempty"`
}

// TornadoCase is one evaluated point of a tornado bar: the perturbed
// parameter value and the resulting headline metrics.
type TornadoCase struct {
	Value float64 `json:"value"`
	NPV   float64 `json:"npv"`
	LCOE  float64 `json:"lcoe"`
}

// TornadoEntry is one bar of a tornado plot. Impact fields are NPV deltas
// against the base case; Elasticity is the average-case local elasticity.
type TornadoEntry struct {
	Parameter     string      `json:"parameter"`
	Unit          string      `json:"unit,omitempty"`
	Base          TornadoCase `json:"base"`
	Low           TornadoCase `json:"low"`
	High          TornadoCase `json:"high"`
	LowImpact     float64     `json:"low_impact"`
	HighImpact    float64     `json:"high_impact"`
	LowImpactPct  float64     `json:"low_impact_pct"`
	HighImpactPct float64     `json:"high_impact_pct"`
	Elasticity    float64     `json:"elasticity"`
	Rank          int         `json:"rank"`
}

// ParametricPoint is one point of a parametric sweep curve.
type ParametricPoint struct {
	Value float64  `json:"value"`
	LCOE  float64  `json:"lcoe"`
	NPV   float64  `json:"npv"`
	IRR   float64  `json:"irr"`
	MSP   *float64 `json:"msp,omitempty"`
}

// ParametricCurve is a full one-dimensional sweep of a single parameter.
type ParametricCurve struct {
	Parameter string            `json:"parameter"`
	Unit      string            `json:"unit,omitempty"`
	Points    []ParametricPoint `json:"points"`
}

// SensitivitySummary condenses a sensitivity analysis into headline facts.
type SensitivitySummary struct {
	MostSensitiveParameter string  `json:"most_sensitive_parameter"`
	MaxNPVImpact           float64 `json:"max_npv_impact"`
	MaxLCOEImpact          float64 `json:"max_lcoe_impact"`
	RobustnessScore        float64 `json:"robustness_score"` // 0-100
}

// SensitivityResult is the full output of a one-at-a-time sensitivity
// analysis: tornado ranking, critical parameters, parametric curves for
// the top parameters, and an elasticity table.
type SensitivityResult struct {
	Baseline           *Result            `json:"baseline"`
	Tornado            []TornadoEntry     `json:"tornado"`
	CriticalParameters []string           `json:"critical_parameters"`
	Curves             []ParametricCurve  `json:"curves,omitempty"`
	Elasticities       map[string]float64 `json:"elasticities"`
	Summary            SensitivitySummary `json:"summary"`
}

// SweepGrid is the output of a two-parameter sweep: an NxN grid of NPV and
// LCOE values for heat-map visualization. NPV[i][j] corresponds to
// XValues[i] and YValues[j].
type SweepGrid struct {
	ParameterX string      `json:"parameter_x"`
	ParameterY string      `json:"parameter_y"`
	XValues    []float64   `json:"x_values"`
	YValues    []float64   `json:"y_values"`
	NPV        [][]float64 `json:"npv"`
	LCOE       [][]float64 `json:"lcoe"`
}
