package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/ensemble/internal/llm"
	"go.uber.org/zap"
)

const rewritePrompt = "Rewrite this prompt for clarity:\n%s"

// Rewriter asks the assistant model to restate a prompt more clearly.
type Rewriter struct {
	backend   llm.Backend
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewRewriter creates a Rewriter that calls model through backend.
func NewRewriter(backend llm.Backend, model string, maxTokens int, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{backend: backend, model: model, maxTokens: maxTokens, logger: logger}
}

// Rewrite returns the trimmed rewrite of prompt. It falls back to the
// original prompt when the call fails or the reply is blank.
func (r *Rewriter) Rewrite(ctx context.Context, prompt string) string {
	reply, err := r.backend.Chat(ctx, r.model, fmt.Sprintf(rewritePrompt, prompt), r.maxTokens)
	if err != nil {
		r.logger.Warn("rewrite failed, using original prompt",
			zap.String("model", r.model),
			zap.Error(err))
		return prompt
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		r.logger.Warn("rewrite returned empty reply, using original prompt", zap.String("model", r.model))
		return prompt
	}
	return reply
}
