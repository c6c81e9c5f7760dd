package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"confidence": 80}`,
			want:  `{"confidence": 80}`,
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"confidence\": 80}\n```",
			want:  `{"confidence": 80}`,
		},
		{
			name:  "surrounding prose",
			input: "Here is my assessment:\n{\"findings\": []}\nLet me know if you need more.",
			want:  `{"findings": []}`,
		},
		{
			name:    "no object",
			input:   "I could not produce a structured answer.",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeIntoRejectsMalformedJSON(t *testing.T) {
	var resp ResearchResponse
	err := decodeInto(`{"confidence": "not a number"}`, &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse collaborator response")
}

func TestBuildResearchPrompt(t *testing.T) {
	prompt := buildResearchPrompt(ResearchRequest{
		Query:   "Verify LCOE of 0.0539 $/kWh",
		Domain:  "solar",
		Sources: []string{"NREL ATB", "IEA"},
		Depth:   "standard",
	})

	assert.Contains(t, prompt, "Domain: solar")
	assert.Contains(t, prompt, "Depth: standard")
	assert.Contains(t, prompt, "NREL ATB, IEA")
	assert.True(t, strings.HasSuffix(prompt, "Verify LCOE of 0.0539 $/kWh"))
}

func TestBuildRefinePromptIncludesContext(t *testing.T) {
	prompt := buildRefinePrompt(RefineRequest{
		Prompt: "Propose corrections.",
		Context: RefineContext{
			Discrepancies: []string{"capex above range"},
			References:    []string{"NREL ATB 2024"},
		},
	})

	assert.Contains(t, prompt, "## Discrepancies")
	assert.Contains(t, prompt, "- capex above range")
	assert.Contains(t, prompt, "## References gathered so far")
	assert.NotContains(t, prompt, "## Current results", "no results section when results are nil")
}

func newGeminiAgainst(url string) *Gemini {
	return &Gemini{
		apiKey:     "test-key",
		baseURL:    url,
		model:      "gemini-2.5-flash",
		httpClient: &http.Client{},
	}
}

func geminiTextResponse(text string) any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			}},
		},
	}
}

func TestGeminiResearch(t *testing.T) {
	var gotPath string
	var gotReq geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		payload := `{"findings": ["LCOE within ATB range"], "discrepancies": [], "references": ["NREL ATB 2024"], "confidence": 88}`
		json.NewEncoder(w).Encode(geminiTextResponse("```json\n" + payload + "\n```"))
	}))
	defer server.Close()

	g := newGeminiAgainst(server.URL)
	resp, err := g.Research(context.Background(), ResearchRequest{
		Query:  "Verify LCOE",
		Domain: "solar",
	})
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/models/gemini-2.5-flash:generateContent")
	assert.Contains(t, gotPath, "key=test-key")
	require.NotNil(t, gotReq.SystemInstruction)
	assert.Contains(t, gotReq.SystemInstruction.Parts[0].Text, "techno-economic analysis researcher")
	require.Len(t, gotReq.Contents, 1)
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "Domain: solar")

	assert.Equal(t, []string{"LCOE within ATB range"}, resp.Findings)
	assert.Equal(t, 88.0, resp.Confidence)
}

func TestGeminiAPIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := newGeminiAgainst(server.URL)
	_, err := g.Research(context.Background(), ResearchRequest{Query: "q", Domain: "solar"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "research call failed")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGeminiEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	g := newGeminiAgainst(server.URL)
	_, err := g.Critique(context.Background(), CritiqueRequest{Subject: "s", Content: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response from model")
}

func newAnthropicAgainst(url string) *Anthropic {
	return &Anthropic{
		apiKey:     "test-key",
		model:      "claude-sonnet-4-20250514",
		baseURL:    url,
		httpClient: &http.Client{},
	}
}

func TestAnthropicCritique(t *testing.T) {
	var gotHeaders http.Header
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": `{"strengths": ["consistent cash flows"], "weaknesses": ["no degradation"], "overall_score": 72}`},
			},
		})
	}))
	defer server.Close()

	a := newAnthropicAgainst(server.URL)
	resp, err := a.Critique(context.Background(), CritiqueRequest{
		Subject:  "solar project techno-economic analysis",
		Content:  "## Results\nLCOE 0.0539 $/kWh",
		Criteria: []string{"calculation accuracy"},
	})
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotHeaders.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", gotHeaders.Get("anthropic-version"))
	assert.Equal(t, "claude-sonnet-4-20250514", gotReq.Model)
	assert.Contains(t, gotReq.System, "critical reviewer")
	require.Len(t, gotReq.Messages, 1)
	assert.Contains(t, gotReq.Messages[0].Content, "Criteria: calculation accuracy")

	assert.Equal(t, []string{"no degradation"}, resp.Weaknesses)
	assert.Equal(t, 72.0, resp.OverallScore)
}

func TestAnthropicSkipsNonTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "thinking", "text": ""},
				{"type": "text", "text": `{"corrections": ["lower capex"], "confidence": 70}`},
			},
		})
	}))
	defer server.Close()

	a := newAnthropicAgainst(server.URL)
	resp, err := a.Refine(context.Background(), RefineRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lower capex"}, resp.Corrections)
}

func TestCannedScriptableFailure(t *testing.T) {
	c := &Canned{Err: fmt.Errorf("scripted outage")}

	_, err := c.Research(context.Background(), ResearchRequest{})
	require.Error(t, err)
	_, err = c.Refine(context.Background(), RefineRequest{})
	require.Error(t, err)
	_, err = c.Critique(context.Background(), CritiqueRequest{})
	require.Error(t, err)
}

func TestCannedDefaultsAreBenign(t *testing.T) {
	c := &Canned{}

	research, err := c.Research(context.Background(), ResearchRequest{Domain: "wind"})
	require.NoError(t, err)
	assert.Empty(t, research.Discrepancies)
	assert.Equal(t, 80.0, research.Confidence)

	critique, err := c.Critique(context.Background(), CritiqueRequest{})
	require.NoError(t, err)
	assert.Empty(t, critique.Weaknesses)
}
