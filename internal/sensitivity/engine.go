// Package sensitivity quantifies how much each project input moves the
// headline investment metrics. It runs one-at-a-time tornado analysis,
// parametric sweeps of the most influential parameters, and two-parameter
// grids for heat-map visualization, re-invoking the external calculator for
// every perturbed input.
package sensitivity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kamilpajak/joule/internal/calculator"
	"github.com/kamilpajak/joule/pkg/tea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultSteps       = 10
	defaultConcurrency = 4
	criticalParamCount = 5
	curveParamCount    = 3

	// Elasticity 1.0 maps to a robustness score of 50.
	robustnessSlope = 25.0
)

// Config describes one sensitivity analysis. An empty Parameters list
// selects the default seven-parameter set.
type Config struct {
	Baseline       tea.Input       `json:"baseline"`
	Parameters     []tea.Parameter `json:"parameters,omitempty"`
	VariationSteps int             `json:"variation_steps,omitempty"`
}

// Engine runs sensitivity analyses against a calculator. Per-parameter
// evaluations are mutually independent and run concurrently; results land at
// deterministic input-order positions.
type Engine struct {
	calc        calculator.Calculator
	limiter     *rate.Limiter
	concurrency int

	mu    sync.Mutex
	cache map[sweepKey]*tea.Result
}

// Option configures an Engine.
type Option func(*Engine)

// WithRateLimit throttles calculator invocations to n calls per second.
// Useful when the calculator is a rate-limited remote service.
func WithRateLimit(n float64) Option {
	return func(e *Engine) {
		e.limiter = rate.NewLimiter(rate.Limit(n), 1)
	}
}

// WithConcurrency bounds the number of simultaneous calculator calls.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates a sensitivity engine.
func New(calc calculator.Calculator, opts ...Option) *Engine {
	e := &Engine{
		calc:        calc,
		concurrency: defaultConcurrency,
		cache:       make(map[sweepKey]*tea.Result),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs one-at-a-time tornado analysis: each parameter is perturbed
// to its low and high bound with all others at baseline, the calculator is
// invoked once per side, and parameters are ranked by total absolute NPV
// impact. The top parameters additionally get full parametric curves.
//
// A failing baseline aborts before any perturbation. A failing perturbed
// evaluation aborts the whole analysis with an error naming the parameter
// and direction.
func (e *Engine) Analyze(ctx context.Context, cfg Config) (*tea.SensitivityResult, error) {
	baseline, err := e.calculate(ctx, cfg.Baseline)
	if err != nil {
		return nil, fmt.Errorf("baseline calculation failed: %w", err)
	}

	params := cfg.Parameters
	if len(params) == 0 {
		params = DefaultParameters(cfg.Baseline)
	}

	entries := make([]tea.TornadoEntry, len(params))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, p := range params {
		g.Go(func() error {
			entry, err := e.tornadoEntry(gctx, cfg.Baseline, baseline, p)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rankEntries(entries)

	critical := make([]string, 0, criticalParamCount)
	for _, entry := range entries {
		if len(critical) == criticalParamCount {
			break
		}
		critical = append(critical, entry.Parameter)
	}

	steps := cfg.VariationSteps
	if steps <= 0 {
		steps = defaultSteps
	}
	curveCount := curveParamCount
	if curveCount > len(entries) {
		curveCount = len(entries)
	}
	curves := make([]tea.ParametricCurve, 0, curveCount)
	for _, entry := range entries[:curveCount] {
		p := findParameter(params, entry.Parameter)
		curve, err := e.parametricCurve(ctx, cfg.Baseline, p, steps)
		if err != nil {
			return nil, err
		}
		curves = append(curves, curve)
	}

	elasticities := make(map[string]float64, len(entries))
	elasticitySum := 0.0
	maxNPVImpact := 0.0
	maxLCOEImpact := 0.0
	for _, entry := range entries {
		elasticities[entry.Parameter] = entry.Elasticity
		elasticitySum += entry.Elasticity
		maxNPVImpact = math.Max(maxNPVImpact, math.Max(math.Abs(entry.LowImpact), math.Abs(entry.HighImpact)))
		maxLCOEImpact = math.Max(maxLCOEImpact,
			math.Max(math.Abs(entry.Low.LCOE-baseline.LCOE), math.Abs(entry.High.LCOE-baseline.LCOE)))
	}

	robustness := 100.0
	if len(entries) > 0 {
		avgElasticity := elasticitySum / float64(len(entries))
		robustness = clamp(100-avgElasticity*robustnessSlope, 0, 100)
	}

	mostSensitive := ""
	if len(entries) > 0 {
		mostSensitive = entries[0].Parameter
	}

	return &tea.SensitivityResult{
		Baseline:           baseline,
		Tornado:            entries,
		CriticalParameters: critical,
		Curves:             curves,
		Elasticities:       elasticities,
		Summary: tea.SensitivitySummary{
			MostSensitiveParameter: mostSensitive,
			MaxNPVImpact:           maxNPVImpact,
			MaxLCOEImpact:          maxLCOEImpact,
			RobustnessScore:        robustness,
		},
	}, nil
}

func (e *Engine) tornadoEntry(ctx context.Context, base tea.Input, baseline *tea.Result, p tea.Parameter) (tea.TornadoEntry, error) {
	lowValue := p.BaseValue * (1 + p.LowPct/100)
	highValue := p.BaseValue * (1 + p.HighPct/100)

	low, err := e.evaluate(ctx, base, p.Name, lowValue)
	if err != nil {
		return tea.TornadoEntry{}, fmt.Errorf("parameter %s low case (%+g%%): %w", p.Name, p.LowPct, err)
	}
	high, err := e.evaluate(ctx, base, p.Name, highValue)
	if err != nil {
		return tea.TornadoEntry{}, fmt.Errorf("parameter %s high case (%+g%%): %w", p.Name, p.HighPct, err)
	}

	lowImpact := low.NPV - baseline.NPV
	highImpact := high.NPV - baseline.NPV
	lowPctImpact := pctImpact(lowImpact, baseline.NPV)
	highPctImpact := pctImpact(highImpact, baseline.NPV)

	return tea.TornadoEntry{
		Parameter:     p.Name,
		Unit:          p.Unit,
		Base:          tea.TornadoCase{Value: p.BaseValue, NPV: baseline.NPV, LCOE: baseline.LCOE},
		Low:           tea.TornadoCase{Value: lowValue, NPV: low.NPV, LCOE: low.LCOE},
		High:          tea.TornadoCase{Value: highValue, NPV: high.NPV, LCOE: high.LCOE},
		LowImpact:     lowImpact,
		HighImpact:    highImpact,
		LowImpactPct:  lowPctImpact,
		HighImpactPct: highPctImpact,
		Elasticity:    elasticity(lowPctImpact, highPctImpact, p.LowPct, p.HighPct),
	}, nil
}

func (e *Engine) parametricCurve(ctx context.Context, base tea.Input, p tea.Parameter, steps int) (tea.ParametricCurve, error) {
	if p.Steps > 0 {
		steps = p.Steps
	}
	if steps < 2 {
		steps = 2
	}

	lowValue := p.BaseValue * (1 + p.LowPct/100)
	highValue := p.BaseValue * (1 + p.HighPct/100)

	points := make([]tea.ParametricPoint, steps)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range steps {
		value := lowValue + (highValue-lowValue)*float64(i)/float64(steps-1)
		g.Go(func() error {
			res, err := e.evaluate(gctx, base, p.Name, value)
			if err != nil {
				return fmt.Errorf("parametric sweep of %s at %g: %w", p.Name, value, err)
			}
			points[i] = tea.ParametricPoint{
				Value: value,
				LCOE:  res.LCOE,
				NPV:   res.NPV,
				IRR:   res.IRR,
				MSP:   res.MSP,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tea.ParametricCurve{}, err
	}

	return tea.ParametricCurve{Parameter: p.Name, Unit: p.Unit, Points: points}, nil
}

func (e *Engine) evaluate(ctx context.Context, base tea.Input, name string, value float64) (*tea.Result, error) {
	in, err := apply(base, name, value)
	if err != nil {
		return nil, err
	}
	return e.calculate(ctx, in)
}

func (e *Engine) calculate(ctx context.Context, in tea.Input) (*tea.Result, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return e.calc.Calculate(ctx, in)
}

// rankEntries sorts by total absolute NPV impact descending and assigns
// ranks. The sort is stable so equal-impact parameters keep input order and
// re-runs on a deterministic calculator reproduce the ranking exactly.
func rankEntries(entries []tea.TornadoEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return totalImpact(entries[i]) > totalImpact(entries[j])
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

func totalImpact(e tea.TornadoEntry) float64 {
	return math.Abs(e.LowImpact) + math.Abs(e.HighImpact)
}

func pctImpact(impact, baseNPV float64) float64 {
	if baseNPV == 0 {
		return 0
	}
	return impact / math.Abs(baseNPV) * 100
}

// elasticity is the average-case local elasticity: mean absolute percentage
// output change over mean absolute percentage input change. Cheap (two extra
// evaluations per parameter) and captures asymmetry, but not a derivative.
func elasticity(lowPctImpact, highPctImpact, lowPct, highPct float64) float64 {
	denom := (math.Abs(lowPct) + math.Abs(highPct)) / 2
	if denom == 0 {
		return 0
	}
	return (math.Abs(lowPctImpact) + math.Abs(highPctImpact)) / 2 / denom
}

func findParameter(params []tea.Parameter, name string) tea.Parameter {
	for _, p := range params {
		if p.Name == name {
			return p
		}
	}
	return tea.Parameter{Name: name}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
