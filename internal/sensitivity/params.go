package sensitivity

import (
	"fmt"
	"math"

	"github.com/kamilpajak/joule/pkg/tea"
)

// Parameter names the engine knows how to apply to an input.
const (
	ParamCapexPerKW         = "capex_per_kw"
	ParamOpexPerKWYear      = "opex_per_kw_year"
	ParamCapacityFactor     = "capacity_factor"
	ParamElectricityPrice   = "electricity_price"
	ParamDiscountRate       = "discount_rate"
	ParamLifetimeYears      = "lifetime_years"
	ParamInstallationFactor = "installation_factor"
)

// DefaultParameters returns the standard one-at-a-time parameter set with
// base values taken from the baseline input. Variation ranges follow typical
// TEA practice: cost parameters get the widest bands.
func DefaultParameters(in tea.Input) []tea.Parameter {
	installFactor := in.InstallationFactor
	if installFactor == 0 {
		installFactor = 1
	}
	return []tea.Parameter{
		{Name: ParamCapexPerKW, BaseValue: in.CapexPerKW, Unit: "$/kW", LowPct: -30, HighPct: 30},
		{Name: ParamOpexPerKWYear, BaseValue: in.OpexPerKWYear, Unit: "$/kW-yr", LowPct: -20, HighPct: 20},
		{Name: ParamCapacityFactor, BaseValue: in.CapacityFactor, Unit: "%", LowPct: -20, HighPct: 20},
		{Name: ParamElectricityPrice, BaseValue: in.ElectricityPrice, Unit: "$/kWh", LowPct: -30, HighPct: 30},
		{Name: ParamDiscountRate, BaseValue: in.DiscountRate, Unit: "", LowPct: -30, HighPct: 30},
		{Name: ParamLifetimeYears, BaseValue: float64(in.LifetimeYears), Unit: "years", LowPct: -20, HighPct: 20},
		{Name: ParamInstallationFactor, BaseValue: installFactor, Unit: "", LowPct: -15, HighPct: 15},
	}
}

// apply returns a copy of in with the named parameter set to value. All
// other fields stay at baseline; Input is a value type so the caller's copy
// is never touched.
func apply(in tea.Input, name string, value float64) (tea.Input, error) {
	switch name {
	case ParamCapexPerKW:
		in.CapexPerKW = value
	case ParamOpexPerKWYear:
		in.OpexPerKWYear = value
	case ParamCapacityFactor:
		in.CapacityFactor = value
	case ParamElectricityPrice:
		in.ElectricityPrice = value
	case ParamDiscountRate:
		in.DiscountRate = value
	case ParamLifetimeYears:
		years := int(math.Round(value))
		if years < 1 {
			years = 1
		}
		in.LifetimeYears = years
	case ParamInstallationFactor:
		in.InstallationFactor = value
	default:
		return in, fmt.Errorf("unknown sensitivity parameter %q", name)
	}
	return in, nil
}
