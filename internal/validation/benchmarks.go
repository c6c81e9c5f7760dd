package validation

import (
	_ "embed"
	"fmt"

	"github.com/kamilpajak/joule/pkg/tea"
	"gopkg.in/yaml.v3"
)

//go:embed benchmarks.yaml
var benchmarksYAML []byte

// Benchmark holds the literature-derived plausible ranges for one
// technology.
type Benchmark struct {
	Reference      string    `yaml:"reference"`
	LCOE           tea.Range `yaml:"lcoe"`
	CapexPerKW     tea.Range `yaml:"capex_per_kw"`
	OpexPerKWYear  tea.Range `yaml:"opex_per_kw_year"`
	CapacityFactor tea.Range `yaml:"capacity_factor"`
	Lifetime       tea.Range `yaml:"lifetime"`
}

// BenchmarkTable maps every technology to its benchmark ranges.
type BenchmarkTable map[tea.Technology]Benchmark

// LoadBenchmarks parses the embedded benchmark table and verifies that every
// technology has a row with well-formed ranges.
func LoadBenchmarks() (BenchmarkTable, error) {
	var table BenchmarkTable
	if err := yaml.Unmarshal(benchmarksYAML, &table); err != nil {
		return nil, fmt.Errorf("failed to parse benchmark table: %w", err)
	}

	for _, t := range tea.Technologies {
		row, ok := table[t]
		if !ok {
			return nil, fmt.Errorf("benchmark table missing technology %q", t)
		}
		for name, r := range map[string]tea.Range{
			"lcoe":             row.LCOE,
			"capex_per_kw":     row.CapexPerKW,
			"opex_per_kw_year": row.OpexPerKWYear,
			"capacity_factor":  row.CapacityFactor,
			"lifetime":         row.Lifetime,
		} {
			if r.Min >= r.Max {
				return nil, fmt.Errorf("benchmark %s/%s: min %g is not below max %g", t, name, r.Min, r.Max)
			}
		}
	}

	return table, nil
}

// ForTechnology returns the benchmark row for t, falling back to the generic
// row for unknown technologies.
func (bt BenchmarkTable) ForTechnology(t tea.Technology) Benchmark {
	if row, ok := bt[t]; ok {
		return row
	}
	return bt[tea.TechGeneric]
}
