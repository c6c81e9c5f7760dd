package calculator

import (
	"context"
	"math"
	"testing"

	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func windInput() tea.Input {
	return tea.Input{
		Technology:       tea.TechWind,
		CapacityMW:       50,
		CapacityFactor:   35,
		CapexPerKW:       1400,
		OpexPerKWYear:    40,
		DiscountRate:     0.08,
		LifetimeYears:    25,
		ElectricityPrice: 0.08,
	}
}

func TestCalculateBasicShape(t *testing.T) {
	res, err := NewDCF().Calculate(context.Background(), windInput())
	require.NoError(t, err)

	assert.Len(t, res.CashFlows, 26, "lifetime+1 entries including year 0")
	assert.Negative(t, res.CashFlows[0].Net, "year 0 carries the capital outlay")
	assert.Equal(t, 50*1000*1400.0, res.TotalCapex)
	assert.Equal(t, 50*1000*40.0, res.TotalOpexYear)
	assert.InDelta(t, 50*0.35*8760, res.AnnualProductionMWh, 1e-6)
	assert.Positive(t, res.LCOE)
	require.NotNil(t, res.MSP)
	require.NotNil(t, res.ProfitabilityIndex)
}

func TestCapexBreakdownSumsToTotal(t *testing.T) {
	in := windInput()
	in.InstallationFactor = 1.15

	res, err := NewDCF().Calculate(context.Background(), in)
	require.NoError(t, err)

	sum := 0.0
	for _, c := range res.CapexBreakdown {
		sum += c
	}
	assert.InDelta(t, res.TotalCapex, sum, 1e-6)
}

func TestNPVAgreesWithIRR(t *testing.T) {
	res, err := NewDCF().Calculate(context.Background(), windInput())
	require.NoError(t, err)

	// NPV positive implies IRR above the discount rate, and vice versa.
	assert.Equal(t, res.NPV > 0, res.IRR > windInput().DiscountRate)

	// NPV discounted at the IRR itself must be approximately zero.
	npvAtIRR := 0.0
	for _, f := range res.CashFlows {
		npvAtIRR += f.Net / math.Pow(1+res.IRR, float64(f.Year))
	}
	assert.InDelta(t, 0, npvAtIRR, math.Abs(res.NPV)*1e-4+1)
}

func TestMSPYieldsZeroNPV(t *testing.T) {
	in := windInput()
	res, err := NewDCF().Calculate(context.Background(), in)
	require.NoError(t, err)

	// Re-run the calculation selling at the MSP: NPV must be ~0.
	in.ElectricityPrice = *res.MSP
	breakEven, err := NewDCF().Calculate(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 0, breakEven.NPV, math.Abs(res.NPV)*1e-6+1)
}

func TestCumulativeIsRunningSum(t *testing.T) {
	res, err := NewDCF().Calculate(context.Background(), windInput())
	require.NoError(t, err)

	running := 0.0
	for _, f := range res.CashFlows {
		running += f.Net
		assert.InDelta(t, running, f.Cumulative, 1e-6)
	}
}

func TestPaybackInterpolation(t *testing.T) {
	res, err := NewDCF().Calculate(context.Background(), windInput())
	require.NoError(t, err)

	assert.Greater(t, res.PaybackYears, 0.0)
	assert.LessOrEqual(t, res.PaybackYears, 26.0)

	// At the payback year boundary the cumulative flow crosses zero.
	year := int(res.PaybackYears)
	if year+1 < len(res.CashFlows) {
		assert.Negative(t, res.CashFlows[year].Cumulative)
		assert.GreaterOrEqual(t, res.CashFlows[year+1].Cumulative, 0.0)
	}
}

func TestUnprofitableProjectNeverPaysBack(t *testing.T) {
	in := windInput()
	in.ElectricityPrice = 0.01

	res, err := NewDCF().Calculate(context.Background(), in)
	require.NoError(t, err)

	assert.Negative(t, res.NPV)
	assert.Equal(t, float64(in.LifetimeYears+1), res.PaybackYears)
	assert.Less(t, res.IRR, in.DiscountRate)
}

func TestTaxReducesNPV(t *testing.T) {
	in := windInput()
	untaxed, err := NewDCF().Calculate(context.Background(), in)
	require.NoError(t, err)

	in.TaxRate = 0.25
	taxed, err := NewDCF().Calculate(context.Background(), in)
	require.NoError(t, err)

	assert.Less(t, taxed.NPV, untaxed.NPV)
}

func TestInvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*tea.Input)
	}{
		{"zero capacity", func(in *tea.Input) { in.CapacityMW = 0 }},
		{"zero lifetime", func(in *tea.Input) { in.LifetimeYears = 0 }},
		{"discount rate at -100%", func(in *tea.Input) { in.DiscountRate = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := windInput()
			tt.mutate(&in)
			_, err := NewDCF().Calculate(context.Background(), in)
			assert.Error(t, err)
		})
	}
}

func TestCalculateRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDCF().Calculate(ctx, windInput())
	assert.ErrorIs(t, err, context.Canceled)
}
