package reconcile

import (
	"context"
	"testing"

	"github.com/kamilpajak/joule/internal/calculator"
	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profitableInput() tea.Input {
	return tea.Input{
		Technology:       tea.TechSolar,
		CapacityMW:       100,
		CapacityFactor:   25,
		CapexPerKW:       900,
		OpexPerKWYear:    15,
		DiscountRate:     0.07,
		LifetimeYears:    30,
		ElectricityPrice: 0.07,
	}
}

// calculate produces a real result so the self-consistency checks exercise
// actual cash-flow arithmetic rather than hand-built fixtures.
func calculate(t *testing.T, in tea.Input) *tea.Result {
	t.Helper()
	res, err := calculator.NewDCF().Calculate(context.Background(), in)
	require.NoError(t, err)
	return res
}

func TestConsistentResultReconciles(t *testing.T) {
	r := New()
	in := profitableInput()
	res := calculate(t, in)

	result := r.Reconcile(in, res)

	assert.True(t, result.Reconciled)
	assert.Empty(t, result.CriticalIssues)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 100.0)

	for _, c := range result.Checks {
		assert.True(t, c.Passed, "%s: %s", c.Metric, c.Message)
	}
}

func TestNPVIRRSignInvariant(t *testing.T) {
	r := New()
	in := profitableInput()
	res := calculate(t, in)

	result := r.Reconcile(in, res)
	require.True(t, result.Reconciled)

	// For any reconciled result: NPV > 0 iff IRR > discount rate.
	assert.Equal(t, res.NPV > 0, res.IRR > in.DiscountRate)

	// Break the agreement and the check must go critical.
	res.IRR = in.DiscountRate - 0.05
	result = r.Reconcile(in, res)
	assert.False(t, result.Reconciled)
	check := checkByMetric(t, result.Checks, "npv_irr_sign")
	assert.Equal(t, tea.SeverityCritical, check.Severity)
}

func TestProfitabilityIndexDefinition(t *testing.T) {
	r := New()
	in := profitableInput()
	res := calculate(t, in)

	wrong := 3.5
	res.ProfitabilityIndex = &wrong

	result := r.Reconcile(in, res)
	check := checkByMetric(t, result.Checks, "profitability_index")
	assert.False(t, check.Passed)
	assert.Equal(t, tea.SeverityMajor, check.Severity)
	require.NotNil(t, check.Expected)
	assert.InDelta(t, 1+res.NPV/res.TotalCapex, *check.Expected, 1e-9)
}

func TestMassBalanceCriticalWhenDiverged(t *testing.T) {
	r := New()
	in := profitableInput()
	in.MassBalance = &tea.Balance{TotalIn: 1000, TotalOut: 950} // 5% off

	result := r.Reconcile(in, calculate(t, in))

	assert.False(t, result.Reconciled)
	check := checkByMetric(t, result.Checks, "mass_balance")
	assert.Equal(t, tea.SeverityCritical, check.Severity)
	require.NotNil(t, check.Tolerance)
	assert.InDelta(t, 10, *check.Tolerance, 1e-9) // 1% of 1000 kg/h inlet
}

func TestEnergyBalanceMajorWhenDiverged(t *testing.T) {
	r := New()
	in := profitableInput()
	in.EnergyBalance = &tea.Balance{TotalIn: 500, TotalOut: 480} // 4% off

	result := r.Reconcile(in, calculate(t, in))

	// Major, not critical: the overall verdict survives.
	assert.True(t, result.Reconciled)
	check := checkByMetric(t, result.Checks, "energy_balance")
	assert.False(t, check.Passed)
	assert.Equal(t, tea.SeverityMajor, check.Severity)
}

func TestConvergedBalancesPass(t *testing.T) {
	r := New()
	in := profitableInput()
	in.MassBalance = &tea.Balance{TotalIn: 1000, TotalOut: 998}
	in.EnergyBalance = &tea.Balance{TotalIn: 500, TotalOut: 495}

	result := r.Reconcile(in, calculate(t, in))
	assert.True(t, checkByMetric(t, result.Checks, "mass_balance").Passed)
	assert.True(t, checkByMetric(t, result.Checks, "energy_balance").Passed)
}

func TestYearZeroMustBeNegative(t *testing.T) {
	r := New()
	in := profitableInput()
	res := calculate(t, in)

	res.CashFlows[0].Net = 100 // calculator bug: no construction outlay

	result := r.Reconcile(in, res)
	assert.False(t, result.Reconciled)
	check := checkByMetric(t, result.Checks, "year_zero_flow")
	assert.Equal(t, tea.SeverityCritical, check.Severity)
}

func TestCashFlowLengthMismatch(t *testing.T) {
	r := New()
	in := profitableInput()
	res := calculate(t, in)

	res.CashFlows = res.CashFlows[:len(res.CashFlows)-2]

	result := r.Reconcile(in, res)
	check := checkByMetric(t, result.Checks, "cash_flow_length")
	assert.False(t, check.Passed)
	assert.Equal(t, tea.SeverityMajor, check.Severity)
}

func TestCumulativeColumnMismatch(t *testing.T) {
	r := New()
	in := profitableInput()
	res := calculate(t, in)

	res.CashFlows[5].Cumulative *= 1.10

	result := r.Reconcile(in, res)
	check := checkByMetric(t, result.Checks, "cumulative_flow")
	assert.False(t, check.Passed)
}

func TestMSPBreakEvenTautology(t *testing.T) {
	r := New()
	in := profitableInput()
	res := calculate(t, in)

	// The calculator's MSP must satisfy its own definition.
	result := r.Reconcile(in, res)
	assert.True(t, checkByMetric(t, result.Checks, "msp_break_even").Passed)

	// An MSP that is not the break-even price is a calculator bug.
	wrong := *res.MSP * 1.2
	res.MSP = &wrong
	result = r.Reconcile(in, res)
	check := checkByMetric(t, result.Checks, "msp_break_even")
	assert.False(t, check.Passed)
	assert.Equal(t, tea.SeverityMajor, check.Severity)
	assert.Equal(t, tea.ReconReference, check.Category)
}

func TestMSPBreakEvenIncludesTaxStream(t *testing.T) {
	r := New()
	in := profitableInput()
	in.TaxRate = 0.25
	res := calculate(t, in)

	// The cost basis behind the MSP includes the tax on each year's
	// operating profit; the replay must recover it, not just capex + opex.
	result := r.Reconcile(in, res)
	check := checkByMetric(t, result.Checks, "msp_break_even")
	assert.True(t, check.Passed, check.Message)
	assert.True(t, result.Reconciled)
}

func TestMissingCashFlowSequenceFailsLengthCheck(t *testing.T) {
	r := New()
	in := profitableInput()
	res := calculate(t, in)
	res.CashFlows = nil

	result := r.Reconcile(in, res)
	check := checkByMetric(t, result.Checks, "cash_flow_length")
	assert.False(t, check.Passed)
	assert.Equal(t, tea.SeverityMajor, check.Severity)
	assert.Contains(t, check.Message, "0 entries")
}

func TestCriticalPenaltyHeavierThanValidator(t *testing.T) {
	r := New()
	in := profitableInput()
	in.MassBalance = &tea.Balance{TotalIn: 1000, TotalOut: 900}
	res := calculate(t, in)
	res.CashFlows[0].Net = 1 // second critical

	result := r.Reconcile(in, res)
	assert.False(t, result.Reconciled)

	// Two criticals subtract 50 points on top of the pass-rate loss.
	total := float64(len(result.Checks))
	passed := total - float64(len(result.CriticalIssues)) - float64(len(result.Warnings))
	expected := 100*passed/total - 50
	if expected < 0 {
		expected = 0
	}
	assert.InDelta(t, expected, result.Confidence, 1e-9)
}

func checkByMetric(t *testing.T, checks []tea.ReconciliationCheck, metric string) tea.ReconciliationCheck {
	t.Helper()
	for _, c := range checks {
		if c.Metric == metric {
			return c
		}
	}
	t.Fatalf("no check with metric %q", metric)
	return tea.ReconciliationCheck{}
}
