package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/ensemble/internal/llm"
	"go.uber.org/zap"
)

const (
	evaluatePrompt = "Evaluate this answer:\n\nQ: %s\nA: %s\n\nIs this accurate and complete?"
	improvePrompt  = "Improve this answer:\n\nQ: %s\nA: %s"
)

// Critic evaluates the best response to a subtask and, when the critique is
// unfavourable, replaces it with an improved version.
type Critic struct {
	backend          llm.Backend
	model            string
	evaluateTokens   int
	improveTokens    int
	needsImprovement Predicate
	tolerateFailures bool
	logger           *zap.Logger
}

// CriticOption configures a Critic.
type CriticOption func(*Critic)

// WithImprovementPredicate replaces NeedsImprovement.
func WithImprovementPredicate(p Predicate) CriticOption {
	return func(c *Critic) {
		if p != nil {
			c.needsImprovement = p
		}
	}
}

// WithTolerateFailures makes Review keep the unrevised response when the
// evaluate or improve call fails.
func WithTolerateFailures(tolerate bool) CriticOption {
	return func(c *Critic) { c.tolerateFailures = tolerate }
}

// WithCriticLogger sets the logger used for tolerated failures.
func WithCriticLogger(l *zap.Logger) CriticOption {
	return func(c *Critic) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCritic creates a Critic that calls model through backend.
func NewCritic(backend llm.Backend, model string, evaluateTokens, improveTokens int, opts ...CriticOption) *Critic {
	c := &Critic{
		backend:          backend,
		model:            model,
		evaluateTokens:   evaluateTokens,
		improveTokens:    improveTokens,
		needsImprovement: NeedsImprovement,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate asks the assistant model to judge answer as a reply to question.
func (c *Critic) Evaluate(ctx context.Context, question, answer string) (string, error) {
	reply, err := c.backend.Chat(ctx, c.model, fmt.Sprintf(evaluatePrompt, question, answer), c.evaluateTokens)
	if err != nil {
		return "", fmt.Errorf("evaluate: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Improve asks the assistant model for a better answer to question.
func (c *Critic) Improve(ctx context.Context, question, answer string) (string, error) {
	reply, err := c.backend.Chat(ctx, c.model, fmt.Sprintf(improvePrompt, question, answer), c.improveTokens)
	if err != nil {
		return "", fmt.Errorf("improve: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Review returns the final text for a subtask. If the critique of response
// is unfavourable the improved answer is returned with the critique
// appended (see FormatImproved); otherwise response is returned unchanged.
func (c *Critic) Review(ctx context.Context, subtask, response string) (string, error) {
	critique, err := c.Evaluate(ctx, subtask, response)
	if err != nil {
		return c.tolerate(response, err)
	}
	if !c.needsImprovement(critique) {
		return response, nil
	}

	improved, err := c.Improve(ctx, subtask, response)
	if err != nil {
		return c.tolerate(response, err)
	}
	return FormatImproved(improved, critique), nil
}

func (c *Critic) tolerate(response string, err error) (string, error) {
	if !c.tolerateFailures {
		return "", err
	}
	c.logger.Warn("critique failed, keeping unrevised response",
		zap.String("model", c.model),
		zap.Error(err))
	return response, nil
}
