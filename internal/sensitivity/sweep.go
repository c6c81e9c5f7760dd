package sensitivity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kamilpajak/joule/pkg/tea"
	"golang.org/x/sync/errgroup"
)

// Two-parameter sweeps cost O(n^2) calculator invocations, so the grid size
// is capped hard.
const (
	defaultGridSize = 10
	maxGridSize     = 25
)

type sweepKey struct {
	baseline       string
	paramX, paramY string
	x, y           float64
}

// TwoParameterSweep varies two named parameters simultaneously across their
// variation ranges and returns an n x n grid of NPV and LCOE values for
// heat-map visualization. Results are cached per engine, keyed by the
// baseline input and the two perturbed values, so repeated sweeps over
// overlapping grids of the same project reuse prior evaluations. n defaults
// to 10 and may not exceed 25.
func (e *Engine) TwoParameterSweep(ctx context.Context, base tea.Input, px, py tea.Parameter, n int) (*tea.SweepGrid, error) {
	if n <= 0 {
		n = defaultGridSize
	}
	if n > maxGridSize {
		return nil, fmt.Errorf("grid size %d exceeds the %d ceiling (%d calculator calls)", n, maxGridSize, n*n)
	}
	if px.Name == py.Name {
		return nil, fmt.Errorf("two-parameter sweep requires distinct parameters, got %q twice", px.Name)
	}

	baseKey, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encode baseline: %w", err)
	}

	xValues := sweepValues(px, n)
	yValues := sweepValues(py, n)

	npv := makeGrid(n)
	lcoe := makeGrid(n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, x := range xValues {
		for j, y := range yValues {
			g.Go(func() error {
				res, err := e.sweepPoint(gctx, base, string(baseKey), px.Name, x, py.Name, y)
				if err != nil {
					return fmt.Errorf("sweep point (%s=%g, %s=%g): %w", px.Name, x, py.Name, y, err)
				}
				npv[i][j] = res.NPV
				lcoe[i][j] = res.LCOE
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &tea.SweepGrid{
		ParameterX: px.Name,
		ParameterY: py.Name,
		XValues:    xValues,
		YValues:    yValues,
		NPV:        npv,
		LCOE:       lcoe,
	}, nil
}

func (e *Engine) sweepPoint(ctx context.Context, base tea.Input, baseKey, nameX string, x float64, nameY string, y float64) (*tea.Result, error) {
	key := sweepKey{baseline: baseKey, paramX: nameX, paramY: nameY, x: x, y: y}

	e.mu.Lock()
	cached, ok := e.cache[key]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	in, err := apply(base, nameX, x)
	if err != nil {
		return nil, err
	}
	in, err = apply(in, nameY, y)
	if err != nil {
		return nil, err
	}

	res, err := e.calculate(ctx, in)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[key] = res
	e.mu.Unlock()

	return res, nil
}

func sweepValues(p tea.Parameter, n int) []float64 {
	low := p.BaseValue * (1 + p.LowPct/100)
	high := p.BaseValue * (1 + p.HighPct/100)

	if n == 1 {
		return []float64{p.BaseValue}
	}
	values := make([]float64, n)
	for i := range n {
		values[i] = low + (high-low)*float64(i)/float64(n-1)
	}
	return values
}

func makeGrid(n int) [][]float64 {
	grid := make([][]float64, n)
	for i := range grid {
		grid[i] = make([]float64, n)
	}
	return grid
}
