package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Compile-time interface check.
var _ Backend = (*GenAIBackend)(nil)

// GenAIBackend generates replies with Google's Gemini API.
type GenAIBackend struct {
	client *genai.Client
}

// NewGenAIBackend creates a Gemini backend authenticated with apiKey.
func NewGenAIBackend(ctx context.Context, apiKey string) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("genai: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}
	return &GenAIBackend{client: client}, nil
}

// Name returns the backend name.
func (b *GenAIBackend) Name() string {
	return "genai"
}

// Chat sends prompt to model and returns the concatenated text parts.
func (b *GenAIBackend) Chat(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	result, err := b.client.Models.GenerateContent(ctx, model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens)},
	)
	if err != nil {
		return "", fmt.Errorf("genai: generate content: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", errors.New("genai: no candidates returned")
	}
	return result.Text(), nil
}
