package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GenAIClient generates text with Google's Gemini API.
type GenAIClient struct {
	client       *genai.Client
	model        string
	probeTimeout time.Duration
}

// NewGenAIClient creates a Gemini client. apiKey is required.
func NewGenAIClient(ctx context.Context, apiKey, model string, probeTimeout time.Duration) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if probeTimeout <= 0 {
		probeTimeout = 3 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}
	return &GenAIClient{client: client, model: model, probeTimeout: probeTimeout}, nil
}

// Generate implements Generator.
func (c *GenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generate content: empty response")
	}
	return text, nil
}

// CheckAvailability implements Generator by fetching the model metadata.
func (c *GenAIClient) CheckAvailability(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	_, err := c.client.Models.Get(ctx, c.model, nil)
	return err == nil
}
