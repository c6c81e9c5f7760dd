// Package reasoning defines the external reasoning collaborators the quality
// orchestrator consults: literature research, refinement proposals, and
// self-critique. The Collaborator interface is the injection point; concrete
// variants call LLM APIs or return canned data for offline runs and tests.
package reasoning

import (
	"context"

	"github.com/kamilpajak/joule/pkg/tea"
)

// ResearchRequest asks a collaborator to cross-reference numeric claims
// against literature and standards.
type ResearchRequest struct {
	Query   string   `json:"query"`
	Domain  string   `json:"domain"`
	Sources []string `json:"sources,omitempty"`
	Depth   string   `json:"depth,omitempty"` // "standard" or "deep"
}

// ResearchResponse carries literature findings and any discrepancies found
// between the calculated results and published data.
type ResearchResponse struct {
	Findings      []string `json:"findings"`
	Discrepancies []string `json:"discrepancies,omitempty"`
	References    []string `json:"references,omitempty"`
	Confidence    float64  `json:"confidence"` // 0-100
}

// RefineContext packages what the refiner needs: the open discrepancies, the
// current calculation results, and the references gathered so far.
type RefineContext struct {
	Discrepancies  []string    `json:"discrepancies"`
	CurrentResults *tea.Result `json:"current_results,omitempty"`
	References     []string    `json:"references,omitempty"`
}

// RefineRequest asks a collaborator to propose corrections for known
// discrepancies.
type RefineRequest struct {
	Prompt  string        `json:"prompt"`
	Context RefineContext `json:"context"`
}

// RefineResponse carries proposed corrections and supporting findings.
type RefineResponse struct {
	Findings      []string `json:"findings,omitempty"`
	Corrections   []string `json:"corrections,omitempty"`
	NewReferences []string `json:"new_references,omitempty"`
	Confidence    float64  `json:"confidence"` // 0-100
}

// CritiqueRequest asks a collaborator to critique an analysis against the
// given criteria.
type CritiqueRequest struct {
	Subject  string   `json:"subject"`
	Content  string   `json:"content"`
	Criteria []string `json:"criteria,omitempty"`
}

// CritiqueResponse is a structured critique with an overall score.
type CritiqueResponse struct {
	Strengths    []string `json:"strengths,omitempty"`
	Weaknesses   []string `json:"weaknesses,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
	OverallScore float64  `json:"overall_score"` // 0-100
}

// Collaborator is the polymorphic reasoning capability the orchestrator
// depends on. Swapping implementations never touches orchestration logic.
type Collaborator interface {
	Research(ctx context.Context, req ResearchRequest) (*ResearchResponse, error)
	Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error)
	Critique(ctx context.Context, req CritiqueRequest) (*CritiqueResponse, error)
}
