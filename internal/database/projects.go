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

// Project represents a stored project definition.
type Project struct {
	ID          uuid.UUID
	OwnerID     string
	Workspace   string
	Name        string
	Description string
	Technology  string
	Input       tea.Input
	DataQuality string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateProjectParams contains parameters for creating a project.
type CreateProjectParams struct {
	OwnerID     string
	Workspace   string
	Name        string
	Description string
	Input       tea.Input
	DataQuality string
}

// projectColumns is the standard column list for project queries.
const projectColumns = `id, owner_id, workspace, name, description, technology, input, data_quality, created_at, updated_at`

// scanProject scans a row into a Project and unmarshals the input JSON.
func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var inputJSON []byte
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Workspace, &p.Name, &p.Description,
		&p.Technology, &inputJSON, &p.DataQuality, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputJSON, &p.Input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project input: %w", err)
	}
	return &p, nil
}

// CreateProject stores a new project. The similarity embedding is derived
// from the input parameters at insert time.
func (db *DB) CreateProject(ctx context.Context, params CreateProjectParams) (*Project, error) {
	inputJSON, err := json.Marshal(params.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project input: %w", err)
	}
	dataQuality := params.DataQuality
	if dataQuality == "" {
		dataQuality = "medium"
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO projects (owner_id, workspace, name, description, technology, input, data_quality, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+projectColumns,
		params.OwnerID, params.Workspace, params.Name, params.Description,
		string(params.Input.Technology), inputJSON, dataQuality, projectEmbedding(params.Input),
	)
	return scanProject(row)
}

// GetProjectByID retrieves a project by ID. Returns nil when not found.
func (db *DB) GetProjectByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`,
		id,
	)
	return scanProject(row)
}

// ListProjectsParams contains parameters for listing projects.
type ListProjectsParams struct {
	OwnerID    string
	Technology *string
	Limit      int
	Offset     int
}

// ListProjects lists an owner's projects, newest first.
func (db *DB) ListProjects(ctx context.Context, params ListProjectsParams) ([]*Project, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = $1`
	args := []any{params.OwnerID}
	if params.Technology != nil {
		query += ` AND technology = $2`
		args = append(args, *params.Technology)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, params.Offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and its assessments and sensitivity runs.
func (db *DB) DeleteProject(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

// SimilarProject is a comparable past project with its cosine distance to
// the reference project's embedding.
type SimilarProject struct {
	Project  *Project
	Distance float64
}

// SimilarProjects returns up to limit of the owner's projects closest to the
// given project in embedding space, nearest first. The reference project
// itself is excluded. Useful as benchmarking context: what did comparable
// projects assume, and how did they score?
func (db *DB) SimilarProjects(ctx context.Context, id uuid.UUID, ownerID string, limit int) ([]*SimilarProject, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+projectColumns+`, embedding <=> (SELECT embedding FROM projects WHERE id = $1) AS distance
		 FROM projects
		 WHERE id != $1 AND owner_id = $2
		 ORDER BY distance
		 LIMIT $3`,
		id, ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var similar []*SimilarProject
	for rows.Next() {
		var p Project
		var inputJSON []byte
		var distance float64
		err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Workspace, &p.Name, &p.Description,
			&p.Technology, &inputJSON, &p.DataQuality, &p.CreatedAt, &p.UpdatedAt,
			&distance,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(inputJSON, &p.Input); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project input: %w", err)
		}
		similar = append(similar, &SimilarProject{Project: &p, Distance: distance})
	}
	return similar, rows.Err()
}
