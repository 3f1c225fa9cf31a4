package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend implements Backend against the Gemini API.
type GeminiBackend struct {
	apiKey  string
	model   string
	timeout time.Duration
}

// NewGeminiBackend builds a backend for the given model. timeout bounds a
// single extraction call; <= 0 falls back to 90 seconds.
func NewGeminiBackend(apiKey, model string, timeout time.Duration) *GeminiBackend {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &GeminiBackend{apiKey: apiKey, model: model, timeout: timeout}
}

// Extract sends the images followed by the prompt text in one generation
// request and returns the raw response text.
func (g *GeminiBackend) Extract(ctx context.Context, images [][]byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	parts := make([]genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.ImageData("png", img))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from gemini")
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", fmt.Errorf("unexpected response format from gemini")
}
