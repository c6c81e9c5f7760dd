package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/kamilpajak/joule/internal/auth"
	"github.com/kamilpajak/joule/internal/database"
	"github.com/kamilpajak/joule/pkg/tea"
)

// requireProject resolves the "projectID" path parameter to a project owned
// by the authenticated user. A project owned by someone else reads as not
// found rather than forbidden, so project IDs don't leak across accounts.
func (s *Server) requireProject(w http.ResponseWriter, r *http.Request) (*database.Project, bool) {
	ctx := r.Context()

	userID := auth.UserID(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	projectID, err := parseProjectID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project ID")
		return nil, false
	}

	project, err := s.db.GetProjectByID(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return nil, false
	}
	if project == nil || project.OwnerID != userID {
		writeError(w, http.StatusNotFound, "project not found")
		return nil, false
	}

	return project, true
}

// parseProjectID parses the project ID from the path parameter.
func parseProjectID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("projectID"))
}

// parseAssessmentID parses the assessment ID from the path parameter.
func parseAssessmentID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("assessmentID"))
}

// parseLimit parses an optional positive "limit" query parameter.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// validateInput checks the fields a calculation cannot proceed without.
func validateInput(in tea.Input) error {
	if !in.Technology.Valid() {
		return fmt.Errorf("unknown technology %q", in.Technology)
	}
	if in.CapacityMW <= 0 {
		return fmt.Errorf("capacity_mw must be positive")
	}
	if in.CapacityFactor <= 0 || in.CapacityFactor > 100 {
		return fmt.Errorf("capacity_factor must be a percentage in (0,100]")
	}
	if in.CapexPerKW <= 0 {
		return fmt.Errorf("capex_per_kw must be positive")
	}
	if in.OpexPerKWYear <= 0 {
		return fmt.Errorf("opex_per_kw_year must be positive")
	}
	if in.LifetimeYears < 1 {
		return fmt.Errorf("lifetime_years must be at least 1")
	}
	if in.ElectricityPrice <= 0 {
		return fmt.Errorf("electricity_price must be positive")
	}
	return nil
}
