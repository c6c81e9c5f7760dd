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

// SensitivityRun represents a stored sensitivity analysis for a project.
type SensitivityRun struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Result    *tea.SensitivityResult
	CreatedAt time.Time
}

const sensitivityColumns = `id, project_id, result, created_at`

func scanSensitivityRun(row pgx.Row) (*SensitivityRun, error) {
	var run SensitivityRun
	var resultJSON []byte
	err := row.Scan(&run.ID, &run.ProjectID, &resultJSON, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.Result = &tea.SensitivityResult{}
	if err := json.Unmarshal(resultJSON, run.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sensitivity result: %w", err)
	}
	return &run, nil
}

// CreateSensitivityRun stores a sensitivity analysis result for a project.
func (db *DB) CreateSensitivityRun(ctx context.Context, projectID uuid.UUID, result *tea.SensitivityResult) (*SensitivityRun, error) {
	if result == nil {
		return nil, fmt.Errorf("sensitivity result required")
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sensitivity result: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO sensitivity_runs (project_id, result)
		 VALUES ($1, $2)
		 RETURNING `+sensitivityColumns,
		projectID, resultJSON,
	)
	return scanSensitivityRun(row)
}

// LatestSensitivityRun returns the most recent sensitivity run for a
// project, or nil when the project has none.
func (db *DB) LatestSensitivityRun(ctx context.Context, projectID uuid.UUID) (*SensitivityRun, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+sensitivityColumns+` FROM sensitivity_runs WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`,
		projectID,
	)
	return scanSensitivityRun(row)
}
