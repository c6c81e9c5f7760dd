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

// Anthropic is a Collaborator backed by the Anthropic messages API.
type Anthropic struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropic creates an Anthropic collaborator from the ANTHROPIC_API_KEY
// environment variable.
func NewAnthropic() (*Anthropic, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable required")
	}

	return &Anthropic{
		apiKey:     apiKey,
		model:      "claude-sonnet-4-20250514",
		baseURL:    "https://api.anthropic.com/v1",
		httpClient: &http.Client{},
	}, nil
}

// Research implements Collaborator.
func (a *Anthropic) Research(ctx context.Context, req ResearchRequest) (*ResearchResponse, error) {
	text, err := a.complete(ctx, researchSystemPrompt, buildResearchPrompt(req))
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
func (a *Anthropic) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	text, err := a.complete(ctx, refineSystemPrompt, buildRefinePrompt(req))
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
func (a *Anthropic) Critique(ctx context.Context, req CritiqueRequest) (*CritiqueResponse, error) {
	text, err := a.complete(ctx, critiqueSystemPrompt, buildCritiquePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("critique call failed: %w", err)
	}
	var resp CritiqueResponse
	if err := decodeInto(text, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) complete(ctx context.Context, system, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:       a.model,
		MaxTokens:   4096,
		System:      system,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/messages", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var anthropicResp anthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	for _, c := range anthropicResp.Content {
		if c.Type == "text" && c.Text != "" {
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("empty response from model")
}
