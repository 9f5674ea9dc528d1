// Package llm provides the chat backends that ensemble fans prompts out to.
// Every backend honours the same contract: one user message in, generated
// text out, bounded by a maximum number of output tokens.
package llm

import (
	"context"
	"fmt"

	"github.com/dusk-indust/ensemble/internal/config"
)

// Backend generates a reply for a single-turn chat request.
type Backend interface {
	// Chat sends prompt as a user message to model and returns the reply.
	Chat(ctx context.Context, model, prompt string, maxTokens int) (string, error)

	// Name identifies the backend in logs.
	Name() string
}

// StatusError is returned when a backend answers with a non-2xx status.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Backend, e.Code, e.Body)
}

// New creates the backend selected by cfg.Provider.
func New(ctx context.Context, cfg config.BackendConfig) (Backend, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllamaBackend(cfg.Endpoint, WithTimeout(cfg.Timeout)), nil
	case config.ProviderGenAI:
		return NewGenAIBackend(ctx, cfg.APIKey)
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
