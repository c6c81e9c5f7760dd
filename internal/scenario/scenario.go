// Package scenario loads YAML project definitions from disk: the inputs a
// calculation starts from, plus assessment metadata like data provenance and
// quality rating.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/kamilpajak/joule/internal/validation"
	"github.com/kamilpajak/joule/pkg/tea"
	"gopkg.in/yaml.v3"
)

// Defaults applied to fields a scenario file leaves unset.
const (
	DefaultDiscountRate       = 0.08
	DefaultLifetimeYears      = 30
	DefaultInstallationFactor = 1.0
)

// Scenario is one project definition file.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	Technology          string   `yaml:"technology"`
	CapacityMW          float64  `yaml:"capacity_mw"`
	CapacityFactor      float64  `yaml:"capacity_factor"` // percent
	CapexPerKW          float64  `yaml:"capex_per_kw"`
	OpexPerKWYear       float64  `yaml:"opex_per_kw_year"`
	DiscountRate        float64  `yaml:"discount_rate,omitempty"`
	LifetimeYears       int      `yaml:"lifetime_years,omitempty"`
	DebtRatio           float64  `yaml:"debt_ratio,omitempty"`
	InterestRate        float64  `yaml:"interest_rate,omitempty"`
	TaxRate             float64  `yaml:"tax_rate,omitempty"`
	ElectricityPrice    float64  `yaml:"electricity_price"`
	PriceEscalation     float64  `yaml:"price_escalation,omitempty"`
	InstallationFactor  float64  `yaml:"installation_factor,omitempty"`
	AnnualProductionMWh *float64 `yaml:"annual_production_mwh,omitempty"`

	MassBalance   *balance `yaml:"mass_balance,omitempty"`
	EnergyBalance *balance `yaml:"energy_balance,omitempty"`

	Provenance  *provenance `yaml:"provenance,omitempty"`
	DataQuality string      `yaml:"data_quality,omitempty"` // high, medium, low
}

type balance struct {
	TotalIn  float64 `yaml:"total_in"`
	TotalOut float64 `yaml:"total_out"`
}

type provenance struct {
	Source      string `yaml:"source"`
	RetrievedAt string `yaml:"retrieved_at,omitempty"`
}

// Load reads and parses a scenario file, applies defaults, and validates
// required fields.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario YAML, applies defaults, and validates required
// fields.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	s.applyDefaults()
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if s.DiscountRate == 0 {
		s.DiscountRate = DefaultDiscountRate
	}
	if s.LifetimeYears == 0 {
		s.LifetimeYears = DefaultLifetimeYears
	}
	if s.InstallationFactor == 0 {
		s.InstallationFactor = DefaultInstallationFactor
	}
	if s.DataQuality == "" {
		s.DataQuality = "medium"
	}
}

func (s *Scenario) validate() error {
	var missing []string
	if s.Technology == "" {
		missing = append(missing, "technology")
	}
	if s.CapacityMW <= 0 {
		missing = append(missing, "capacity_mw")
	}
	if s.CapacityFactor <= 0 {
		missing = append(missing, "capacity_factor")
	}
	if s.CapexPerKW <= 0 {
		missing = append(missing, "capex_per_kw")
	}
	if s.OpexPerKWYear <= 0 {
		missing = append(missing, "opex_per_kw_year")
	}
	if s.ElectricityPrice <= 0 {
		missing = append(missing, "electricity_price")
	}
	if len(missing) > 0 {
		return fmt.Errorf("scenario missing required fields: %s", strings.Join(missing, ", "))
	}

	if !tea.Technology(s.Technology).Valid() {
		return fmt.Errorf("unknown technology %q (valid: %s)", s.Technology, technologyList())
	}
	if s.CapacityFactor > 100 {
		return fmt.Errorf("capacity_factor %g must be a percentage in (0,100]", s.CapacityFactor)
	}
	switch s.DataQuality {
	case "high", "medium", "low":
	default:
		return fmt.Errorf("data_quality %q must be high, medium, or low", s.DataQuality)
	}
	return nil
}

// Input converts the scenario to calculation inputs.
func (s *Scenario) Input() tea.Input {
	in := tea.Input{
		Technology:          tea.Technology(s.Technology),
		CapacityMW:          s.CapacityMW,
		CapacityFactor:      s.CapacityFactor,
		CapexPerKW:          s.CapexPerKW,
		OpexPerKWYear:       s.OpexPerKWYear,
		DiscountRate:        s.DiscountRate,
		LifetimeYears:       s.LifetimeYears,
		DebtRatio:           s.DebtRatio,
		InterestRate:        s.InterestRate,
		TaxRate:             s.TaxRate,
		ElectricityPrice:    s.ElectricityPrice,
		PriceEscalation:     s.PriceEscalation,
		InstallationFactor:  s.InstallationFactor,
		AnnualProductionMWh: s.AnnualProductionMWh,
	}
	if s.MassBalance != nil {
		in.MassBalance = &tea.Balance{TotalIn: s.MassBalance.TotalIn, TotalOut: s.MassBalance.TotalOut}
	}
	if s.EnergyBalance != nil {
		in.EnergyBalance = &tea.Balance{TotalIn: s.EnergyBalance.TotalIn, TotalOut: s.EnergyBalance.TotalOut}
	}
	return in
}

// InputProvenance converts the scenario's provenance block, or nil when the
// scenario does not cite a source.
func (s *Scenario) InputProvenance() *validation.Provenance {
	if s.Provenance == nil || s.Provenance.Source == "" {
		return nil
	}
	return &validation.Provenance{
		Source:      s.Provenance.Source,
		RetrievedAt: s.Provenance.RetrievedAt,
	}
}

func technologyList() string {
	names := make([]string, len(tea.Technologies))
	for i, t := range tea.Technologies {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
