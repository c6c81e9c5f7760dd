// Package calculator defines the financial-model calculator contract and a
// reference discounted-cash-flow implementation. Validation, reconciliation,
// and sensitivity analysis treat the calculator as a black box; any
// implementation of Calculator can be substituted.
package calculator

import (
	"context"

	"github.com/kamilpajak/joule/pkg/tea"
)

// Calculator turns project inputs into investment metrics. Implementations
// must be deterministic for deterministic inputs: the sensitivity engine
// calls Calculate dozens of times and ranks parameters by comparing outputs.
type Calculator interface {
	Calculate(ctx context.Context, in tea.Input) (*tea.Result, error)
}

// Func adapts a plain function to the Calculator interface.
type Func func(ctx context.Context, in tea.Input) (*tea.Result, error)

// Calculate implements Calculator.
func (f Func) Calculate(ctx context.Context, in tea.Input) (*tea.Result, error) {
	return f(ctx, in)
}
