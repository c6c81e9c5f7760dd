// Package reconcile checks a computed techno-economic result for internal
// self-consistency: balances converge, NPV and IRR agree, derived metrics
// match their definitions, and the cash-flow arithmetic sums correctly.
// A failed check here points at a calculator bug rather than bad input data.
package reconcile

import (
	"fmt"
	"math"

	"github.com/kamilpajak/joule/pkg/tea"
)

// Per-check tolerances. The lifetime-cost tolerance is deliberately wide:
// tax and depreciation effects are legitimate causes of deviation.
const (
	massBalanceTolerance   = 0.01
	energyBalanceTolerance = 0.02
	piTolerance            = 0.001
	lifetimeCostTolerance  = 0.10
	mspTolerance           = 0.01
	cumulativeTolerance    = 0.001

	// Heavier than the validator's penalty: internal-consistency failures
	// are implementation bugs, not input-quality issues.
	criticalPenalty = 25.0
)

// Reconciler checks results for internal self-consistency.
type Reconciler struct{}

// New creates a reconciler.
func New() *Reconciler {
	return &Reconciler{}
}

// Reconcile runs every applicable self-consistency check. It is a pure
// function of its inputs.
func (r *Reconciler) Reconcile(in tea.Input, res *tea.Result) tea.ReconciliationResult {
	var checks []tea.ReconciliationCheck

	checks = append(checks, balanceChecks(in)...)
	checks = append(checks, economicChecks(in, res)...)
	if res.MSP != nil {
		checks = append(checks, mspCheck(in, res, *res.MSP))
	}
	checks = append(checks, cashFlowChecks(in, res)...)

	return summarize(checks)
}

func balanceChecks(in tea.Input) []tea.ReconciliationCheck {
	var checks []tea.ReconciliationCheck

	if in.MassBalance != nil {
		conv := in.MassBalance.Convergence()
		check := numericCheck("mass_balance", tea.ReconBalance,
			in.MassBalance.TotalIn, in.MassBalance.TotalOut, massBalanceTolerance*in.MassBalance.TotalIn)
		if conv < massBalanceTolerance {
			check.Passed = true
			check.Message = fmt.Sprintf("mass balance converges within %.1f%% of total inlet flow", conv*100)
		} else {
			check.Severity = tea.SeverityCritical
			check.Message = fmt.Sprintf("mass balance is off by %.1f%% of total inlet flow (limit %.0f%%)",
				conv*100, massBalanceTolerance*100)
		}
		checks = append(checks, check)
	}

	if in.EnergyBalance != nil {
		conv := in.EnergyBalance.Convergence()
		check := numericCheck("energy_balance", tea.ReconBalance,
			in.EnergyBalance.TotalIn, in.EnergyBalance.TotalOut, energyBalanceTolerance*in.EnergyBalance.TotalIn)
		if conv < energyBalanceTolerance {
			check.Passed = true
			check.Message = fmt.Sprintf("energy balance converges within %.1f%% of total inlet", conv*100)
		} else {
			check.Severity = tea.SeverityMajor
			check.Message = fmt.Sprintf("energy balance is off by %.1f%% of total inlet (limit %.0f%%)",
				conv*100, energyBalanceTolerance*100)
		}
		checks = append(checks, check)
	}

	return checks
}

func economicChecks(in tea.Input, res *tea.Result) []tea.ReconciliationCheck {
	var checks []tea.ReconciliationCheck

	// NPV and IRR must agree relative to the discount rate.
	npvPositive := res.NPV > 0
	irrAboveDiscount := res.IRR > in.DiscountRate
	signCheck := tea.ReconciliationCheck{
		Metric:   "npv_irr_sign",
		Category: tea.ReconEconomic,
		Actual:   tea.Float64(res.NPV),
	}
	if npvPositive == irrAboveDiscount {
		signCheck.Passed = true
		signCheck.Message = "NPV sign agrees with IRR relative to the discount rate"
	} else {
		signCheck.Severity = tea.SeverityCritical
		signCheck.Message = fmt.Sprintf("NPV %.0f and IRR %.1f%% disagree relative to the %.1f%% discount rate",
			res.NPV, res.IRR*100, in.DiscountRate*100)
	}
	checks = append(checks, signCheck)

	// Profitability index must equal 1 + NPV/CAPEX by definition.
	if res.ProfitabilityIndex != nil && res.TotalCapex > 0 {
		expected := 1 + res.NPV/res.TotalCapex
		check := numericCheck("profitability_index", tea.ReconEconomic,
			expected, *res.ProfitabilityIndex, piTolerance*math.Abs(expected))
		if withinRelative(*res.ProfitabilityIndex, expected, piTolerance) {
			check.Passed = true
			check.Message = "profitability index matches 1 + NPV/CAPEX"
		} else {
			check.Severity = tea.SeverityMajor
			check.Message = fmt.Sprintf("profitability index %.4f does not match 1 + NPV/CAPEX = %.4f",
				*res.ProfitabilityIndex, expected)
		}
		checks = append(checks, check)
	}

	// Lifetime cost from the cash-flow sequence vs CAPEX + OPEX x lifetime.
	if len(res.CashFlows) > 0 {
		actual := 0.0
		for _, f := range res.CashFlows {
			actual += f.Capex + f.Opex
		}
		expected := res.TotalCapex + res.TotalOpexYear*float64(in.LifetimeYears)
		check := numericCheck("lifetime_cost", tea.ReconEconomic,
			expected, actual, lifetimeCostTolerance*math.Abs(expected))
		if withinRelative(actual, expected, lifetimeCostTolerance) {
			check.Passed = true
			check.Message = "lifetime cost matches CAPEX + OPEX x lifetime"
		} else {
			check.Severity = tea.SeverityMinor
			check.Message = fmt.Sprintf("lifetime cost %.0f deviates from CAPEX + OPEX x lifetime = %.0f by more than %.0f%%",
				actual, expected, lifetimeCostTolerance*100)
		}
		checks = append(checks, check)
	}

	return checks
}

// mspCheck verifies the break-even property that defines the minimum selling
// price: discounting the revenue stream at the MSP must recover the
// discounted total cost, where cost is capex, opex, and the tax levied on
// each year's operating profit at the project's actual price. A deviation
// means the reported MSP is not actually the break-even price.
func mspCheck(in tea.Input, res *tea.Result, msp float64) tea.ReconciliationCheck {
	productionKWh := in.ImpliedProductionMWh() * 1000
	r := in.DiscountRate

	discountedRevenue := 0.0
	discountedCost := res.TotalCapex
	for year := 1; year <= in.LifetimeYears; year++ {
		discount := math.Pow(1+r, float64(year))
		escalation := math.Pow(1+in.PriceEscalation, float64(year-1))

		tax := 0.0
		if profit := productionKWh*in.ElectricityPrice*escalation - res.TotalOpexYear; profit > 0 {
			tax = profit * in.TaxRate
		}

		discountedRevenue += msp * productionKWh * escalation / discount
		discountedCost += (res.TotalOpexYear + tax) / discount
	}

	check := numericCheck("msp_break_even", tea.ReconReference,
		discountedCost, discountedRevenue, mspTolerance*math.Abs(discountedCost))
	if withinRelative(discountedRevenue, discountedCost, mspTolerance) {
		check.Passed = true
		check.Message = "discounted revenue at MSP recovers discounted total cost"
	} else {
		check.Severity = tea.SeverityMajor
		check.Message = fmt.Sprintf("discounted revenue at MSP (%.0f) does not recover discounted total cost (%.0f)",
			discountedRevenue, discountedCost)
	}
	return check
}

func cashFlowChecks(in tea.Input, res *tea.Result) []tea.ReconciliationCheck {
	var checks []tea.ReconciliationCheck

	// The length requirement applies even to a missing sequence: a result
	// with no cash flows at all must not pass by omission.
	wantLen := in.LifetimeYears + 1
	lenCheck := numericCheck("cash_flow_length", tea.ReconEconomic,
		float64(wantLen), float64(len(res.CashFlows)), 0)
	if len(res.CashFlows) == wantLen {
		lenCheck.Passed = true
		lenCheck.Message = fmt.Sprintf("cash-flow sequence has lifetime+1 = %d entries", wantLen)
	} else {
		lenCheck.Severity = tea.SeverityMajor
		lenCheck.Message = fmt.Sprintf("cash-flow sequence has %d entries, expected lifetime+1 = %d",
			len(res.CashFlows), wantLen)
	}
	checks = append(checks, lenCheck)

	if len(res.CashFlows) == 0 {
		return checks
	}

	year0 := res.CashFlows[0]
	zeroCheck := tea.ReconciliationCheck{
		Metric:   "year_zero_flow",
		Category: tea.ReconEconomic,
		Actual:   tea.Float64(year0.Net),
	}
	if year0.Net < 0 {
		zeroCheck.Passed = true
		zeroCheck.Message = "year-0 cash flow is negative (capital outlay)"
	} else {
		zeroCheck.Severity = tea.SeverityCritical
		zeroCheck.Message = fmt.Sprintf("year-0 cash flow is %.0f; the construction year must carry a negative outlay", year0.Net)
	}
	checks = append(checks, zeroCheck)

	// Cumulative column must be the running sum of the per-year net flows.
	running := 0.0
	maxDev := 0.0
	for _, f := range res.CashFlows {
		running += f.Net
		dev := math.Abs(f.Cumulative - running)
		if scale := math.Abs(running); scale > 0 {
			dev /= scale
		}
		if dev > maxDev {
			maxDev = dev
		}
	}
	cumCheck := numericCheck("cumulative_flow", tea.ReconEconomic, 0, maxDev, cumulativeTolerance)
	if maxDev <= cumulativeTolerance {
		cumCheck.Passed = true
		cumCheck.Message = "cumulative column matches the running sum of per-year flows"
	} else {
		cumCheck.Severity = tea.SeverityMajor
		cumCheck.Message = fmt.Sprintf("cumulative column deviates from the running sum by up to %.2f%%", maxDev*100)
	}
	checks = append(checks, cumCheck)

	return checks
}

// summarize mirrors the validator's aggregation with a heavier critical
// penalty: confidence is 100 x passed/total minus 25 per critical failure.
func summarize(checks []tea.ReconciliationCheck) tea.ReconciliationResult {
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
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return tea.ReconciliationResult{
		Reconciled:      criticals == 0,
		Confidence:      confidence,
		Checks:          checks,
		CriticalIssues:  criticalIssues,
		Warnings:        warnings,
		Recommendations: recommendations,
	}
}

func numericCheck(metric string, cat tea.ReconCategory, expected, actual, tolerance float64) tea.ReconciliationCheck {
	diff := actual - expected
	return tea.ReconciliationCheck{
		Metric:     metric,
		Category:   cat,
		Expected:   tea.Float64(expected),
		Actual:     tea.Float64(actual),
		Difference: tea.Float64(diff),
		Tolerance:  tea.Float64(tolerance),
	}
}

func withinRelative(actual, expected, tolerance float64) bool {
	if expected == 0 {
		return math.Abs(actual) <= tolerance
	}
	return math.Abs(actual-expected)/math.Abs(expected) <= tolerance
}
