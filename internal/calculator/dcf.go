package calculator

import (
	"context"
	"fmt"
	"math"

	"github.com/kamilpajak/joule/pkg/tea"
)

// DCF is the reference discounted-cash-flow calculator. It produces the full
// metric set the validation subsystem expects (LCOE, NPV, IRR, payback, MSP,
// ROI, profitability index, per-year cash flows) from a straightforward
// levelized-cost model: year-0 capital outlay, escalating revenue, flat
// operating cost, profit taxed at the input tax rate.
type DCF struct{}

// NewDCF returns the reference calculator.
func NewDCF() *DCF {
	return &DCF{}
}

const kwPerMW = 1000

// Calculate implements Calculator.
func (c *DCF) Calculate(ctx context.Context, in tea.Input) (*tea.Result, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	installFactor := in.InstallationFactor
	if installFactor == 0 {
		installFactor = 1
	}

	capacityKW := in.CapacityMW * kwPerMW
	equipmentCapex := capacityKW * in.CapexPerKW
	totalCapex := equipmentCapex * installFactor
	annualOpex := capacityKW * in.OpexPerKWYear
	productionMWh := in.ImpliedProductionMWh()
	productionKWh := productionMWh * 1000

	lifetime := in.LifetimeYears
	r := in.DiscountRate

	flows := make([]tea.CashFlowYear, 0, lifetime+1)
	flows = append(flows, tea.CashFlowYear{
		Year:       0,
		Capex:      totalCapex,
		Net:        -totalCapex,
		Cumulative: -totalCapex,
		Discounted: -totalCapex,
	})

	// Discounted sums for NPV, LCOE, and the break-even price. LCOE is the
	// discounted lifetime cost divided by discounted lifetime energy.
	npv := -totalCapex
	cumulative := -totalCapex
	pvCosts := totalCapex
	pvEnergyKWh := 0.0
	pvRevenuePerUnit := 0.0 // present value of selling 1 $/kWh

	for year := 1; year <= lifetime; year++ {
		discount := math.Pow(1+r, float64(year))
		escalation := math.Pow(1+in.PriceEscalation, float64(year-1))

		revenue := productionKWh * in.ElectricityPrice * escalation
		profit := revenue - annualOpex
		tax := 0.0
		if profit > 0 {
			tax = profit * in.TaxRate
		}
		net := profit - tax
		discounted := net / discount
		npv += discounted
		cumulative += net

		pvCosts += (annualOpex + tax) / discount
		pvEnergyKWh += productionKWh / discount
		pvRevenuePerUnit += productionKWh * escalation / discount

		flows = append(flows, tea.CashFlowYear{
			Year:       year,
			Revenue:    revenue,
			Opex:       annualOpex,
			Net:        net,
			Cumulative: cumulative,
			Discounted: discounted,
		})
	}

	lcoe := 0.0
	if pvEnergyKWh > 0 {
		lcoe = pvCosts / pvEnergyKWh
	}

	msp := 0.0
	if pvRevenuePerUnit > 0 {
		// Unit price at which discounted revenue equals discounted cost.
		msp = pvCosts / pvRevenuePerUnit
	}

	irr := internalRateOfReturn(flows)
	payback := paybackYears(flows, lifetime)

	roi := 0.0
	pi := 0.0
	if totalCapex > 0 {
		roi = cumulative / totalCapex
		pi = 1 + npv/totalCapex
	}

	return &tea.Result{
		LCOE:          lcoe,
		NPV:           npv,
		IRR:           irr,
		PaybackYears:  payback,
		TotalCapex:    totalCapex,
		TotalOpexYear: annualOpex,
		CapexBreakdown: map[string]float64{
			"equipment":    equipmentCapex,
			"installation": totalCapex - equipmentCapex,
		},
		OpexBreakdown: map[string]float64{
			"fixed_om": annualOpex,
		},
		AnnualProductionMWh: productionMWh,
		CashFlows:           flows,
		MSP:                 tea.Float64(msp),
		ROI:                 tea.Float64(roi),
		ProfitabilityIndex:  tea.Float64(pi),
	}, nil
}

func checkInput(in tea.Input) error {
	if in.CapacityMW <= 0 {
		return fmt.Errorf("capacity must be positive, got %g MW", in.CapacityMW)
	}
	if in.LifetimeYears < 1 {
		return fmt.Errorf("lifetime must be at least 1 year, got %d", in.LifetimeYears)
	}
	if in.DiscountRate <= -1 {
		return fmt.Errorf("discount rate must be greater than -100%%, got %g", in.DiscountRate)
	}
	return nil
}

// internalRateOfReturn solves NPV(r) = 0 by bisection over [-0.99, 10].
// Returns the bracket edge when the cash flows never change sign.
func internalRateOfReturn(flows []tea.CashFlowYear) float64 {
	npvAt := func(r float64) float64 {
		total := 0.0
		for _, f := range flows {
			total += f.Net / math.Pow(1+r, float64(f.Year))
		}
		return total
	}

	lo, hi := -0.99, 10.0
	fLo, fHi := npvAt(lo), npvAt(hi)
	if fLo*fHi > 0 {
		if fLo > 0 {
			return hi
		}
		return lo
	}

	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		fMid := npvAt(mid)
		if math.Abs(fMid) < 1e-9 {
			return mid
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return (lo + hi) / 2
}

// paybackYears finds the first year the cumulative cash flow turns
// non-negative, interpolating within that year. Projects that never pay back
// report one year past the end of life.
func paybackYears(flows []tea.CashFlowYear, lifetime int) float64 {
	for i := 1; i < len(flows); i++ {
		if flows[i].Cumulative >= 0 {
			prev := flows[i-1].Cumulative
			net := flows[i].Net
			if net <= 0 {
				return float64(flows[i].Year)
			}
			return float64(flows[i-1].Year) + (-prev)/net
		}
	}
	return float64(lifetime + 1)
}
