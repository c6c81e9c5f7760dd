package api

import (
	"net/http"

	"github.com/kamilpajak/joule/internal/sensitivity"
	"github.com/kamilpajak/joule/pkg/tea"
)

type runSensitivityRequest struct {
	Parameters     []tea.Parameter `json:"parameters,omitempty"`
	VariationSteps int             `json:"variation_steps,omitempty"`
}

func (s *Server) handleRunSensitivity(w http.ResponseWriter, r *http.Request) {
	project, ok := s.requireProject(w, r)
	if !ok {
		return
	}

	var req runSensitivityRequest
	if r.ContentLength > 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ctx := r.Context()
	result, err := s.engine.Analyze(ctx, sensitivity.Config{
		Baseline:       project.Input,
		Parameters:     req.Parameters,
		VariationSteps: req.VariationSteps,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "sensitivity analysis failed: "+err.Error())
		return
	}

	run, err := s.db.CreateSensitivityRun(ctx, project.ID, result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store sensitivity run")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         run.ID,
		"project_id": run.ProjectID,
		"result":     run.Result,
		"created_at": run.CreatedAt,
	})
}

type similarProjectResponse struct {
	Project  projectResponse `json:"project"`
	Distance float64         `json:"distance"`
}

func (s *Server) handleSimilarProjects(w http.ResponseWriter, r *http.Request) {
	project, ok := s.requireProject(w, r)
	if !ok {
		return
	}

	similar, err := s.db.SimilarProjects(r.Context(), project.ID, project.OwnerID, parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query similar projects")
		return
	}

	resp := make([]similarProjectResponse, 0, len(similar))
	for _, sp := range similar {
		resp = append(resp, similarProjectResponse{
			Project:  toProjectResponse(sp.Project),
			Distance: sp.Distance,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"similar": resp})
}
