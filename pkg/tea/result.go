package tea

// Result is the output of one techno-economic calculation. It is produced
// once per Input by the calculator and treated as read-only by validation,
// reconciliation, and sensitivity analysis.
type Result struct {
	LCOE         float64 `json:"lcoe"` // $/kWh
	NPV          float64 `json:"npv"`
	IRR          float64 `json:"irr"` // decimal, 0.12 = 12%
	PaybackYears float64 `json:"payback_years"`

	TotalCapex     float64            `json:"total_capex"`
	TotalOpexYear  float64            `json:"total_opex_year"`
	CapexBreakdown map[string]float64 `json:"capex_breakdown,omitempty"`
	OpexBreakdown  map[string]float64 `json:"opex_breakdown,omitempty"`

	AnnualProductionMWh float64 `json:"annual_production_mwh"`

	// CashFlows has one entry per project year including year 0.
	CashFlows []CashFlowYear `json:"cash_flows,omitempty"`

	// Extended metrics. Nil when the calculator does not produce them.
	MSP                *float64 `json:"msp,omitempty"` // $/kWh break-even price
	ROI                *float64 `json:"roi,omitempty"`
	ProfitabilityIndex *float64 `json:"profitability_index,omitempty"`
}

// CashFlowYear is one row of the project cash-flow sequence. Year 0 carries
// the capital outlay; operating years carry revenue and operating cost.
type CashFlowYear struct {
	Year       int     `json:"year"`
	Revenue    float64 `json:"revenue"`
	Opex       float64 `json:"opex"`
	Capex      float64 `json:"capex"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"`
	Discounted float64 `json:"discounted"`
}
