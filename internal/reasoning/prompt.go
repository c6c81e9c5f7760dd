package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"
)

const researchSystemPrompt = `You are a techno-economic analysis researcher. Cross-reference the numeric claims in the query against published literature (NREL ATB, IEA, NETL cost baselines) and industry standards.

Respond with a single JSON object:
{"findings": ["..."], "discrepancies": ["..."], "references": ["..."], "confidence": 0-100}

List a discrepancy only when a claimed value falls clearly outside published ranges. Cite every reference you rely on.`

const refineSystemPrompt = `You are a techno-economic analysis reviewer. Given a list of discrepancies and the current calculation results, propose concrete corrections.

Respond with a single JSON object:
{"findings": ["..."], "corrections": ["..."], "new_references": ["..."], "confidence": 0-100}

Each correction must name the parameter, the current value, and the proposed value with a justification.`

const critiqueSystemPrompt = `You are a critical reviewer of techno-economic analyses. Assess the supplied analysis against the given criteria.

Respond with a single JSON object:
{"strengths": ["..."], "weaknesses": ["..."], "suggestions": ["..."], "overall_score": 0-100}

Be specific: every weakness must point at a concrete number or assumption.`

func buildResearchPrompt(req ResearchRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Domain: %s\n", req.Domain)
	if req.Depth != "" {
		fmt.Fprintf(&b, "Depth: %s\n", req.Depth)
	}
	if len(req.Sources) > 0 {
		fmt.Fprintf(&b, "Preferred sources: %s\n", strings.Join(req.Sources, ", "))
	}
	b.WriteString("\n")
	b.WriteString(req.Query)
	return b.String()
}

func buildRefinePrompt(req RefineRequest) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	b.WriteString("\n\n## Discrepancies\n")
	for _, d := range req.Context.Discrepancies {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	if req.Context.CurrentResults != nil {
		b.WriteString("\n## Current results\n")
		resultsJSON, _ := json.MarshalIndent(req.Context.CurrentResults, "", "  ")
		b.Write(resultsJSON)
		b.WriteString("\n")
	}
	if len(req.Context.References) > 0 {
		b.WriteString("\n## References gathered so far\n")
		for _, r := range req.Context.References {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}

func buildCritiquePrompt(req CritiqueRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", req.Subject)
	if len(req.Criteria) > 0 {
		fmt.Fprintf(&b, "Criteria: %s\n", strings.Join(req.Criteria, ", "))
	}
	b.WriteString("\n")
	b.WriteString(req.Content)
	return b.String()
}

// extractJSON pulls the first JSON object out of a model response, tolerating
// markdown code fences and surrounding prose.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}

func decodeInto(text string, v any) error {
	raw, err := extractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to parse collaborator response: %w", err)
	}
	return nil
}
