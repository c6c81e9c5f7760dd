package tea

import "time"

// StageKind identifies one step of the quality orchestration pipeline.
type StageKind string

const (
	StageResearch        StageKind = "research"
	StageRefinement      StageKind = "refinement"
	StageSelfCritique    StageKind = "self_critique"
	StageFinalValidation StageKind = "final_validation"
)

// StageStatus is the lifecycle state of a pipeline stage.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageComplete   StageStatus = "complete"
	StageFailed     StageStatus = "failed"
)

// Stage records one executed pipeline stage. Stages are appended to an
// ordered log and never retried in place; a retry is a new Stage instance.
type Stage struct {
	Kind          StageKind   `json:"kind"`
	Status        StageStatus `json:"status"`
	Confidence    float64     `json:"confidence"` // 0-100
	Findings      []string    `json:"findings,omitempty"`
	Discrepancies []string    `json:"discrepancies,omitempty"`
	Corrections   []string    `json:"corrections,omitempty"`
	References    []string    `json:"references,omitempty"`
	Error         string      `json:"error,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedAt   time.Time   `json:"completed_at"`
}
