package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const correctPrompt = `Fix the spelling mistakes in the following text. Reply with the corrected text only, nothing else.

Text: %s`

// CorrectClient implements spelling correction on top of Ollama's generate
// API. Callers treat correction as best-effort: an error here means the
// caller should fall back to the uncorrected text.
type CorrectClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewCorrectClient creates a spelling-correction client for the given model.
func NewCorrectClient(baseURL, model string) *CorrectClient {
	return &CorrectClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Correct returns text with spelling fixed. Deterministic for a fixed model:
// generation runs at temperature zero.
func (c *CorrectClient) Correct(ctx context.Context, text string) (string, error) {
	body, _ := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  fmt.Sprintf(correctPrompt, text),
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama correct: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama correct: status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama correct decode: %w", err)
	}

	corrected := strings.TrimSpace(result.Response)
	if corrected == "" {
		return "", fmt.Errorf("ollama correct: empty response")
	}
	return corrected, nil
}
