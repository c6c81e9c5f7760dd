package reasoning

import "context"

// Canned is a deterministic Collaborator used for offline runs and tests.
// Zero-value Canned returns benign default responses; populate the fields to
// script specific findings, or set Err to make every call fail.
type Canned struct {
	ResearchResp *ResearchResponse
	RefineResp   *RefineResponse
	CritiqueResp *CritiqueResponse
	Err          error
}

// Research implements Collaborator.
func (c *Canned) Research(ctx context.Context, req ResearchRequest) (*ResearchResponse, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if c.ResearchResp != nil {
		return c.ResearchResp, nil
	}
	return &ResearchResponse{
		Findings: []string{
			"parameters reviewed against published cost and performance ranges",
			"no literature conflicts identified for " + req.Domain,
		},
		References: []string{"offline mode: literature cross-reference skipped"},
		Confidence: 80,
	}, nil
}

// Refine implements Collaborator.
func (c *Canned) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if c.RefineResp != nil {
		return c.RefineResp, nil
	}
	return &RefineResponse{
		Findings:   []string{"no corrections proposed in offline mode"},
		Confidence: 75,
	}, nil
}

// Critique implements Collaborator.
func (c *Canned) Critique(ctx context.Context, req CritiqueRequest) (*CritiqueResponse, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if c.CritiqueResp != nil {
		return c.CritiqueResp, nil
	}
	return &CritiqueResponse{
		Strengths:    []string{"analysis passed the structural validation and reconciliation checks"},
		Suggestions:  []string{"run with a live reasoning collaborator for a substantive critique"},
		OverallScore: 80,
	}, nil
}
