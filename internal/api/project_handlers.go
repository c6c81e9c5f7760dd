package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kamilpajak/joule/internal/auth"
	"github.com/kamilpajak/joule/internal/database"
	"github.com/kamilpajak/joule/pkg/tea"
)

type createProjectRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DataQuality string    `json:"data_quality,omitempty"`
	Input       tea.Input `json:"input"`
}

type projectResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Technology  string    `json:"technology"`
	Input       tea.Input `json:"input"`
	DataQuality string    `json:"data_quality"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResponse(p *database.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Technology:  p.Technology,
		Input:       p.Input,
		DataQuality: p.DataQuality,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := validateInput(req.Input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := s.db.CreateProject(r.Context(), database.CreateProjectParams{
		OwnerID:     auth.UserID(r.Context()),
		Workspace:   auth.Workspace(r.Context()),
		Name:        req.Name,
		Description: req.Description,
		Input:       req.Input,
		DataQuality: req.DataQuality,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(project))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	params := database.ListProjectsParams{
		OwnerID: auth.UserID(r.Context()),
		Limit:   parseLimit(r),
	}
	if tech := r.URL.Query().Get("technology"); tech != "" {
		params.Technology = &tech
	}

	projects, err := s.db.ListProjects(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	resp := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": resp})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.requireProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}
