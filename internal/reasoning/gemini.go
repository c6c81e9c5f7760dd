package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Gemini is a Collaborator backed by the Google generative-language API.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGemini creates a Gemini collaborator from the GOOGLE_API_KEY
// environment variable.
func NewGemini() (*Gemini, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY environment variable required")
	}

	return &Gemini{
		apiKey:     apiKey,
		baseURL:    "https://generativelanguage.googleapis.com/v1beta",
		model:      "gemini-2.5-flash",
		httpClient: &http.Client{},
	}, nil
}

// Research implements Collaborator.
func (g *Gemini) Research(ctx context.Context, req ResearchRequest) (*ResearchResponse, error) {
	text, err := g.generate(ctx, researchSystemPrompt, buildResearchPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("research call failed: %w", err)
	}
	var resp ResearchResponse
	if err := decodeInto(text, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refine implements Collaborator.
func (g *Gemini) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	text, err := g.generate(ctx, refineSystemPrompt, buildRefinePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("refinement call failed: %w", err)
	}
	var resp RefineResponse
	if err := decodeInto(text, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Critique implements Collaborator.
func (g *Gemini) Critique(ctx context.Context, req CritiqueRequest) (*CritiqueResponse, error) {
	text, err := g.generate(ctx, critiqueSystemPrompt, buildCritiquePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("critique call failed: %w", err)
	}
	var resp CritiqueResponse
	if err := decodeInto(text, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenCfg struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) generate(ctx context.Context, system, prompt string) (string, error) {
	req := geminiRequest{
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		GenerationConfig: &geminiGenCfg{
			Temperature:     0.1,
			MaxOutputTokens: 4096,
		},
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error: %s - %s", resp.Status, string(body))
	}

	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
