package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Compile-time interface check.
var _ Backend = (*OllamaBackend)(nil)

const defaultOllamaEndpoint = "http://127.0.0.1:11434"

// OllamaBackend talks to a local Ollama server through /api/chat with
// streaming disabled.
type OllamaBackend struct {
	endpoint string
	http     *http.Client
}

// OllamaOption configures an OllamaBackend.
type OllamaOption func(*OllamaBackend)

// WithTimeout sets the per-request HTTP timeout. Zero keeps the default.
func WithTimeout(d time.Duration) OllamaOption {
	return func(b *OllamaBackend) {
		if d > 0 {
			b.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) OllamaOption {
	return func(b *OllamaBackend) {
		b.http = hc
	}
}

// NewOllamaBackend creates a backend for the Ollama server at endpoint.
func NewOllamaBackend(endpoint string, opts ...OllamaOption) *OllamaBackend {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultOllamaEndpoint
	}
	b := &OllamaBackend{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		http:     &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend name.
func (b *OllamaBackend) Name() string {
	return "ollama"
}

// Chat sends a single user message and returns the assistant content.
func (b *OllamaBackend) Chat(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	req := ollamaChatRequest{
		Model:    model,
		Stream:   false,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Options:  map[string]any{"num_predict": maxTokens},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: request failed on /api/chat: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Backend: "ollama", Code: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", errors.New("ollama: " + parsed.Error)
	}
	return parsed.Message.Content, nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}
