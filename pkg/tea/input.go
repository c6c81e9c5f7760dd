package tea

// Input holds the project parameters a techno-economic calculation starts
// from. Fractional rates (discount, interest, tax, escalation) are expressed
// as decimals (0.08 = 8%); capacity factor is a percentage in [0,100].
type Input struct {
	Technology     Technology `json:"technology"`
	CapacityMW     float64    `json:"capacity_mw"`
	CapacityFactor float64    `json:"capacity_factor"` // percent, 0-100
	CapexPerKW     float64    `json:"capex_per_kw"`    // $/kW installed
	OpexPerKWYear  float64    `json:"opex_per_kw_year"`

	// Financial parameters.
	DiscountRate  float64 `json:"discount_rate"`
	LifetimeYears int     `json:"lifetime_years"`
	DebtRatio     float64 `json:"debt_ratio,omitempty"`
	InterestRate  float64 `json:"interest_rate,omitempty"`
	TaxRate       float64 `json:"tax_rate,omitempty"`

	// Revenue parameters.
	ElectricityPrice float64 `json:"electricity_price"` // $/kWh
	PriceEscalation  float64 `json:"price_escalation,omitempty"`

	// InstallationFactor scales bare equipment cost to installed cost.
	// Zero means the calculator's default applies.
	InstallationFactor float64 `json:"installation_factor,omitempty"`

	// AnnualProductionMWh, if set, overrides the production implied by
	// capacity and capacity factor. Cross-validation flags disagreement.
	AnnualProductionMWh *float64 `json:"annual_production_mwh,omitempty"`

	// Optional process balance attachments for plants with material flows.
	MassBalance   *Balance `json:"mass_balance,omitempty"`
	EnergyBalance *Balance `json:"energy_balance,omitempty"`
}

// Balance is a material or energy balance summary: total inlet and outlet
// flow in consistent units (kg/h for mass, MW for energy).
type Balance struct {
	TotalIn  float64 `json:"total_in"`
	TotalOut float64 `json:"total_out"`
}

// Convergence returns the relative imbalance |in-out|/in, or 0 when the
// inlet flow is zero.
func (b Balance) Convergence() float64 {
	if b.TotalIn == 0 {
		return 0
	}
	diff := b.TotalIn - b.TotalOut
	if diff < 0 {
		diff = -diff
	}
	return diff / b.TotalIn
}

// ImpliedProductionMWh returns annual production from capacity and capacity
// factor: MW x CF x 8760 h.
func (in Input) ImpliedProductionMWh() float64 {
	return in.CapacityMW * in.CapacityFactor / 100 * 8760
}
