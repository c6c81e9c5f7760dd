package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/kamilpajak/joule/internal/auth"
	"github.com/kamilpajak/joule/internal/calculator"
	"github.com/kamilpajak/joule/internal/database"
	"github.com/kamilpajak/joule/internal/quality"
	"github.com/kamilpajak/joule/internal/reasoning"
	"github.com/kamilpajak/joule/internal/reconcile"
	"github.com/kamilpajak/joule/internal/sensitivity"
	"github.com/kamilpajak/joule/internal/validation"
	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB returns a connected DB or skips if DATABASE_URL is not set.
// It also ensures migrations are run before tests.
func testDB(t *testing.T) *database.DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	err := database.Migrate(dbURL)
	require.NoError(t, err)

	ctx := context.Background()
	db, err := database.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

// testServer creates a test API server without auth middleware.
// Tests inject auth via withAuthContext helper.
func testServer(t *testing.T, db *database.DB) *Server {
	t.Helper()

	validator, err := validation.New()
	require.NoError(t, err)
	reconciler := reconcile.New()
	calc := calculator.NewDCF()

	server := &Server{
		db:           db,
		calc:         calc,
		validator:    validator,
		reconciler:   reconciler,
		engine:       sensitivity.New(calc),
		orchestrator: quality.New(&reasoning.Canned{}, validator, reconciler),
		mux:          http.NewServeMux(),
	}

	// Register routes WITHOUT auth middleware for testing.
	// Tests use withAuthContext to inject claims directly.
	server.mux.HandleFunc("GET /health", server.handleHealth)
	server.mux.HandleFunc("POST /api/projects", server.handleCreateProject)
	server.mux.HandleFunc("GET /api/projects", server.handleListProjects)
	server.mux.HandleFunc("GET /api/projects/{projectID}", server.handleGetProject)
	server.mux.HandleFunc("POST /api/projects/{projectID}/assessments", server.handleCreateAssessment)
	server.mux.HandleFunc("GET /api/projects/{projectID}/assessments", server.handleListAssessments)
	server.mux.HandleFunc("GET /api/assessments/{assessmentID}", server.handleGetAssessment)
	server.mux.HandleFunc("POST /api/projects/{projectID}/sensitivity", server.handleRunSensitivity)
	server.mux.HandleFunc("GET /api/projects/{projectID}/similar", server.handleSimilarProjects)

	return server
}

// withAuthContext wraps a request with authenticated user claims.
func withAuthContext(r *http.Request, userID, email string) *http.Request {
	claims := auth.NewTestClaims(userID, email)
	ctx := auth.WithClaims(r.Context(), claims)
	return r.WithContext(ctx)
}

func solarProjectBody() createProjectRequest {
	return createProjectRequest{
		Name:        "desert-sun-100",
		DataQuality: "high",
		Input: tea.Input{
			Technology:         tea.TechSolar,
			CapacityMW:         100,
			CapacityFactor:     22,
			CapexPerKW:         1000,
			OpexPerKWYear:      15,
			DiscountRate:       0.08,
			LifetimeYears:      30,
			ElectricityPrice:   0.06,
			InstallationFactor: 1.0,
		},
	}
}

func postJSON(t *testing.T, server *Server, userID, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest("POST", path, &buf)
	req = withAuthContext(req, userID, userID+"@example.com")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, server *Server, userID, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req = withAuthContext(req, userID, userID+"@example.com")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func createProjectViaAPI(t *testing.T, server *Server, userID string) projectResponse {
	t.Helper()
	rec := postJSON(t, server, userID, "/api/projects", solarProjectBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p projectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestHealthEndpoint(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflightHandled(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)

	req := httptest.NewRequest("OPTIONS", "/api/projects", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreateAndGetProject(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)
	userID := "user_" + uuid.New().String()[:8]

	p := createProjectViaAPI(t, server, userID)
	assert.Equal(t, "solar", p.Technology)
	assert.Equal(t, "high", p.DataQuality)

	rec := getJSON(t, server, userID, "/api/projects/"+p.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var got projectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 100.0, got.Input.CapacityMW)
}

func TestCreateProjectValidation(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)
	userID := "user_val"

	body := solarProjectBody()
	body.Name = ""
	rec := postJSON(t, server, userID, "/api/projects", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = solarProjectBody()
	body.Input.CapacityFactor = 150
	rec = postJSON(t, server, userID, "/api/projects", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "capacity_factor")
}

func TestProjectOwnershipIsolation(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)

	owner := "user_" + uuid.New().String()[:8]
	p := createProjectViaAPI(t, server, owner)

	// Another user sees someone else's project as not found.
	rec := getJSON(t, server, "user_intruder", "/api/projects/"+p.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProjectsFilters(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)
	userID := "user_" + uuid.New().String()[:8]

	createProjectViaAPI(t, server, userID)

	rec := getJSON(t, server, userID, "/api/projects?technology=solar")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Projects []projectResponse `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Projects, 1)

	rec = getJSON(t, server, userID, "/api/projects?technology=nuclear")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Projects)
}

func TestAssessmentLifecycle(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)
	userID := "user_" + uuid.New().String()[:8]
	p := createProjectViaAPI(t, server, userID)

	rec := postJSON(t, server, userID, "/api/projects/"+p.ID.String()+"/assessments",
		createAssessmentRequest{RunSensitivity: true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created assessmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, p.ID, created.ProjectID)
	assert.Greater(t, created.OverallConfidence, 0.0)
	require.NotNil(t, created.Result)
	assert.NotEmpty(t, created.Result.Stages)
	assert.True(t, created.Result.Report.UncertaintyQuantified, "sensitivity run counts as quantified uncertainty")

	rec = getJSON(t, server, userID, "/api/assessments/"+created.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	// Listing shows it under the project.
	rec = getJSON(t, server, userID, "/api/projects/"+p.ID.String()+"/assessments")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Assessments []assessmentResponse `json:"assessments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Assessments, 1)

	// Other users cannot read it.
	rec = getJSON(t, server, "user_intruder", "/api/assessments/"+created.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSensitivityEndpoint(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)
	userID := "user_" + uuid.New().String()[:8]
	p := createProjectViaAPI(t, server, userID)

	rec := postJSON(t, server, userID, "/api/projects/"+p.ID.String()+"/sensitivity",
		runSensitivityRequest{VariationSteps: 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Result *tea.SensitivityResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Len(t, resp.Result.Tornado, 7)
	assert.Len(t, resp.Result.CriticalParameters, 5)
}

func TestSimilarProjectsEndpoint(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)
	userID := "user_" + uuid.New().String()[:8]

	ref := createProjectViaAPI(t, server, userID)

	twin := solarProjectBody()
	twin.Name = "solar-twin"
	twin.Input.CapexPerKW = 1050
	rec := postJSON(t, server, userID, "/api/projects", twin)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = getJSON(t, server, userID, "/api/projects/"+ref.ID.String()+"/similar?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Similar []similarProjectResponse `json:"similar"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Similar)
	assert.Equal(t, "solar-twin", resp.Similar[0].Project.Name)
	assert.NotEqual(t, ref.ID, resp.Similar[0].Project.ID)
}

func TestUnknownProjectRoutes(t *testing.T) {
	db := testDB(t)
	server := testServer(t, db)

	rec := getJSON(t, server, "user_x", "/api/projects/"+uuid.New().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = getJSON(t, server, "user_x", "/api/projects/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
