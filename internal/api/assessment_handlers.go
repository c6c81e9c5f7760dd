package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kamilpajak/joule/internal/auth"
	"github.com/kamilpajak/joule/internal/database"
	"github.com/kamilpajak/joule/internal/quality"
	"github.com/kamilpajak/joule/internal/sensitivity"
	"github.com/kamilpajak/joule/pkg/tea"
)

type createAssessmentRequest struct {
	// RunSensitivity additionally runs a default sensitivity analysis and
	// feeds it into the quality report as quantified uncertainty.
	RunSensitivity bool `json:"run_sensitivity,omitempty"`
}

type assessmentResponse struct {
	ID                   uuid.UUID                `json:"id"`
	ProjectID            uuid.UUID                `json:"project_id"`
	OverallConfidence    float64                  `json:"overall_confidence"`
	QualityScore         float64                  `json:"quality_score"`
	Grade                string                   `json:"grade"`
	ShouldGenerateReport bool                     `json:"should_generate_report"`
	Result               *tea.OrchestrationResult `json:"result"`
	CreatedAt            time.Time                `json:"created_at"`
}

func toAssessmentResponse(a *database.Assessment) assessmentResponse {
	return assessmentResponse{
		ID:                   a.ID,
		ProjectID:            a.ProjectID,
		OverallConfidence:    a.OverallConfidence,
		QualityScore:         a.QualityScore,
		Grade:                a.Grade,
		ShouldGenerateReport: a.ShouldGenerateReport,
		Result:               a.Result,
		CreatedAt:            a.CreatedAt,
	}
}

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	project, ok := s.requireProject(w, r)
	if !ok {
		return
	}

	var req createAssessmentRequest
	if r.ContentLength > 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ctx := r.Context()
	result, err := s.calc.Calculate(ctx, project.Input)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "calculation failed: "+err.Error())
		return
	}

	var sens *tea.SensitivityResult
	if req.RunSensitivity {
		sens, err = s.engine.Analyze(ctx, sensitivity.Config{Baseline: project.Input})
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "sensitivity analysis failed: "+err.Error())
			return
		}
		if _, err := s.db.CreateSensitivityRun(ctx, project.ID, sens); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store sensitivity run")
			return
		}
	}

	orchestration, err := s.orchestrator.Run(ctx, quality.Request{
		Input:       project.Input,
		Result:      result,
		Sensitivity: sens,
		DataQuality: project.DataQuality,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "assessment failed: "+err.Error())
		return
	}

	assessment, err := s.db.CreateAssessment(ctx, project.ID, orchestration)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store assessment")
		return
	}

	writeJSON(w, http.StatusCreated, toAssessmentResponse(assessment))
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	project, ok := s.requireProject(w, r)
	if !ok {
		return
	}

	assessments, err := s.db.ListProjectAssessments(r.Context(), project.ID, parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assessments")
		return
	}

	resp := make([]assessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		resp = append(resp, toAssessmentResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": resp})
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	assessmentID, err := parseAssessmentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment ID")
		return
	}

	assessment, err := s.db.GetAssessmentByID(ctx, assessmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if assessment == nil {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}

	// Ownership flows through the parent project.
	project, err := s.db.GetProjectByID(ctx, assessment.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if project == nil || project.OwnerID != auth.UserID(ctx) {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}

	writeJSON(w, http.StatusOK, toAssessmentResponse(assessment))
}
