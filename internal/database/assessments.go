package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kamilpajak/joule/pkg/tea"
)

// Assessment represents a stored orchestration run for a project.
type Assessment struct {
	ID                   uuid.UUID
	ProjectID            uuid.UUID
	OverallConfidence    float64
	QualityScore         float64
	Grade                string
	ShouldGenerateReport bool
	Result               *tea.OrchestrationResult
	CreatedAt            time.Time
}

// assessmentColumns is the standard column list for assessment queries.
const assessmentColumns = `id, project_id, overall_confidence, quality_score, grade, should_generate_report, result, created_at`

func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	var resultJSON []byte
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.OverallConfidence, &a.QualityScore,
		&a.Grade, &a.ShouldGenerateReport, &resultJSON, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Result = &tea.OrchestrationResult{}
	if err := json.Unmarshal(resultJSON, a.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment result: %w", err)
	}
	return &a, nil
}

// CreateAssessment stores an orchestration result for a project. The grade
// is denormalized out of the result for cheap listing queries.
func (db *DB) CreateAssessment(ctx context.Context, projectID uuid.UUID, result *tea.OrchestrationResult) (*Assessment, error) {
	if result == nil {
		return nil, fmt.Errorf("assessment result required")
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assessment result: %w", err)
	}

	grade := ""
	if result.Assessment != nil {
		grade = result.Assessment.Grade
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO assessments (project_id, overall_confidence, quality_score, grade, should_generate_report, result)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+assessmentColumns,
		projectID, result.OverallConfidence, result.QualityScore, grade,
		result.ShouldGenerateReport, resultJSON,
	)
	return scanAssessment(row)
}

// GetAssessmentByID retrieves an assessment by ID. Returns nil when not
// found.
func (db *DB) GetAssessmentByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`,
		id,
	)
	return scanAssessment(row)
}

// ListProjectAssessments lists a project's assessments, newest first.
func (db *DB) ListProjectAssessments(ctx context.Context, projectID uuid.UUID, limit int) ([]*Assessment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// LatestAssessment returns the most recent assessment for a project, or nil
// when the project has none.
func (db *DB) LatestAssessment(ctx context.Context, projectID uuid.UUID) (*Assessment, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`,
		projectID,
	)
	return scanAssessment(row)
}
