package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testDatabaseURL returns a connection string for integration tests:
// DATABASE_URL when set, otherwise a disposable pgvector-enabled postgres
// container when JOULE_TEST_CONTAINERS is set. Skips the test otherwise.
func testDatabaseURL(t *testing.T) string {
	t.Helper()

	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	if os.Getenv("JOULE_TEST_CONTAINERS") == "" {
		t.Skip("DATABASE_URL not set (set JOULE_TEST_CONTAINERS=1 to use a disposable container)")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "pgvector/pgvector:pg16",
		tcpostgres.WithDatabase("joule_test"),
		tcpostgres.WithUsername("joule"),
		tcpostgres.WithPassword("joule"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

// testDB returns a migrated, connected DB or skips the test.
func testDB(t *testing.T) *DB {
	t.Helper()

	url := testDatabaseURL(t)
	require.NoError(t, Migrate(url))

	ctx := context.Background()
	db, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func solarInput() tea.Input {
	return tea.Input{
		Technology:         tea.TechSolar,
		CapacityMW:         100,
		CapacityFactor:     22,
		CapexPerKW:         1000,
		OpexPerKWYear:      15,
		DiscountRate:       0.08,
		LifetimeYears:      30,
		ElectricityPrice:   0.06,
		InstallationFactor: 1.0,
	}
}

func createTestProject(t *testing.T, db *DB, owner, name string, in tea.Input) *Project {
	t.Helper()
	p, err := db.CreateProject(context.Background(), CreateProjectParams{
		OwnerID:     owner,
		Workspace:   "test-ws",
		Name:        name,
		Input:       in,
		DataQuality: "high",
	})
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestMigrationsAreIdempotent(t *testing.T) {
	url := testDatabaseURL(t)
	require.NoError(t, Migrate(url))
	require.NoError(t, Migrate(url))
}

func TestProjectCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	owner := "user_" + uuid.New().String()[:8]

	p := createTestProject(t, db, owner, "desert-sun-100", solarInput())
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "solar", p.Technology)
	assert.Equal(t, "high", p.DataQuality)
	assert.Equal(t, 100.0, p.Input.CapacityMW)

	found, err := db.GetProjectByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, solarInput(), found.Input)

	wind := solarInput()
	wind.Technology = tea.TechWind
	wind.CapacityFactor = 35
	createTestProject(t, db, owner, "ridge-wind-50", wind)

	projects, err := db.ListProjects(ctx, ListProjectsParams{OwnerID: owner})
	require.NoError(t, err)
	assert.Len(t, projects, 2)

	solar := "solar"
	projects, err = db.ListProjects(ctx, ListProjectsParams{OwnerID: owner, Technology: &solar})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "desert-sun-100", projects[0].Name)

	require.NoError(t, db.DeleteProject(ctx, p.ID))
	found, err = db.GetProjectByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "deleted project reads back as nil")
}

func TestGetMissingProjectReturnsNil(t *testing.T) {
	db := testDB(t)

	p, err := db.GetProjectByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAssessmentRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := createTestProject(t, db, "user_assess", "assess-target", solarInput())

	result := &tea.OrchestrationResult{
		OverallConfidence:    88,
		QualityScore:         9.5,
		ShouldGenerateReport: false,
		Assessment:           &tea.QualityAssessment{OverallScore: 9.5, Grade: "A", Passed: true},
		Stages: []tea.Stage{
			{Kind: tea.StageResearch, Status: tea.StageComplete, Confidence: 80},
		},
		Recommendations: []string{"Review: capacity factor near the top of the solar range"},
	}

	a, err := db.CreateAssessment(ctx, p.ID, result)
	require.NoError(t, err)
	assert.Equal(t, 88.0, a.OverallConfidence)
	assert.Equal(t, "A", a.Grade)
	require.NotNil(t, a.Result)
	assert.Len(t, a.Result.Stages, 1)

	found, err := db.GetAssessmentByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, result.Recommendations, found.Result.Recommendations)

	latest, err := db.LatestAssessment(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, a.ID, latest.ID)

	list, err := db.ListProjectAssessments(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateAssessmentRequiresResult(t *testing.T) {
	db := testDB(t)
	_, err := db.CreateAssessment(context.Background(), uuid.New(), nil)
	require.Error(t, err)
}

func TestSensitivityRunRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := createTestProject(t, db, "user_sens", "sens-target", solarInput())

	result := &tea.SensitivityResult{
		Tornado: []tea.TornadoEntry{
			{Parameter: "capex_per_kw", Rank: 1, Elasticity: 1.33},
		},
		CriticalParameters: []string{"capex_per_kw"},
		Summary:            tea.SensitivitySummary{MostSensitiveParameter: "capex_per_kw", RobustnessScore: 67},
	}

	run, err := db.CreateSensitivityRun(ctx, p.ID, result)
	require.NoError(t, err)
	require.NotNil(t, run.Result)

	latest, err := db.LatestSensitivityRun(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, "capex_per_kw", latest.Result.Summary.MostSensitiveParameter)

	none, err := db.LatestSensitivityRun(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSimilarProjectsRanksByDistance(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	owner := "user_" + uuid.New().String()[:8]

	ref := createTestProject(t, db, owner, "solar-ref", solarInput())

	near := solarInput()
	near.CapexPerKW = 1050
	nearProject := createTestProject(t, db, owner, "solar-twin", near)

	nuclear := tea.Input{
		Technology:       tea.TechNuclear,
		CapacityMW:       1200,
		CapacityFactor:   92,
		CapexPerKW:       7000,
		OpexPerKWYear:    130,
		DiscountRate:     0.07,
		LifetimeYears:    60,
		ElectricityPrice: 0.11,
	}
	createTestProject(t, db, owner, "big-nuclear", nuclear)
	foreign := createTestProject(t, db, "someone_else", "foreign-solar", solarInput())

	similar, err := db.SimilarProjects(ctx, ref.ID, owner, 5)
	require.NoError(t, err)
	require.NotEmpty(t, similar)

	assert.Equal(t, nearProject.ID, similar[0].Project.ID, "closest project is the near-identical solar twin")
	for _, s := range similar {
		assert.NotEqual(t, ref.ID, s.Project.ID, "reference project excluded from its own neighbors")
		assert.NotEqual(t, foreign.ID, s.Project.ID, "other owners' projects never surface")
	}
	for i := 1; i < len(similar); i++ {
		assert.GreaterOrEqual(t, similar[i].Distance, similar[i-1].Distance)
	}
}
