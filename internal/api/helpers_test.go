package api

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/stretchr/testify/assert"
)

func TestParseProjectID(t *testing.T) {
	t.Run("valid UUID", func(t *testing.T) {
		expected := uuid.New()
		req := httptest.NewRequest("GET", "/api/projects/"+expected.String(), nil)
		req.SetPathValue("projectID", expected.String())

		got, err := parseProjectID(req)

		assert.NoError(t, err)
		assert.Equal(t, expected, got)
	})

	t.Run("invalid UUID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/projects/not-a-uuid", nil)
		req.SetPathValue("projectID", "not-a-uuid")

		_, err := parseProjectID(req)

		assert.Error(t, err)
	})

	t.Run("empty value", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/projects/", nil)
		req.SetPathValue("projectID", "")

		_, err := parseProjectID(req)

		assert.Error(t, err)
	})
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 0},
		{"?limit=10", 10},
		{"?limit=-3", 0},
		{"?limit=abc", 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/api/projects"+tt.query, nil)
		assert.Equal(t, tt.want, parseLimit(req), tt.query)
	}
}

func TestValidateInput(t *testing.T) {
	valid := tea.Input{
		Technology:       tea.TechSolar,
		CapacityMW:       100,
		CapacityFactor:   22,
		CapexPerKW:       1000,
		OpexPerKWYear:    15,
		DiscountRate:     0.08,
		LifetimeYears:    30,
		ElectricityPrice: 0.06,
	}
	assert.NoError(t, validateInput(valid))

	tests := []struct {
		name   string
		mutate func(*tea.Input)
	}{
		{"unknown technology", func(in *tea.Input) { in.Technology = "fusion" }},
		{"zero capacity", func(in *tea.Input) { in.CapacityMW = 0 }},
		{"capacity factor above 100", func(in *tea.Input) { in.CapacityFactor = 150 }},
		{"zero capex", func(in *tea.Input) { in.CapexPerKW = 0 }},
		{"zero opex", func(in *tea.Input) { in.OpexPerKWYear = 0 }},
		{"zero lifetime", func(in *tea.Input) { in.LifetimeYears = 0 }},
		{"zero price", func(in *tea.Input) { in.ElectricityPrice = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			assert.Error(t, validateInput(in))
		})
	}
}
