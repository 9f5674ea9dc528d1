package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/dusk-indust/ensemble/internal/llm"
	"go.uber.org/zap"
)

const planPrompt = "Break this into subtasks:\n%s"

// bulletChars are stripped, with any whitespace, from both ends of each
// planned subtask line.
const bulletChars = "-•*"

// Planner splits a multi-part prompt into independent subtasks.
type Planner struct {
	backend            llm.Backend
	model              string
	maxTokens          int
	needsDecomposition Predicate
	logger             *zap.Logger
}

// NewPlanner creates a Planner. A nil needsDecomposition uses
// NeedsDecomposition.
func NewPlanner(backend llm.Backend, model string, maxTokens int, needsDecomposition Predicate, logger *zap.Logger) *Planner {
	if needsDecomposition == nil {
		needsDecomposition = NeedsDecomposition
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		backend:            backend,
		model:              model,
		maxTokens:          maxTokens,
		needsDecomposition: needsDecomposition,
		logger:             logger,
	}
}

// Plan returns the subtasks for prompt. Prompts that do not need
// decomposition, failed calls and replies without usable lines all yield
// the single subtask [prompt]. The result is never empty.
func (p *Planner) Plan(ctx context.Context, prompt string) []string {
	if !p.needsDecomposition(prompt) {
		return []string{prompt}
	}

	reply, err := p.backend.Chat(ctx, p.model, fmt.Sprintf(planPrompt, prompt), p.maxTokens)
	if err != nil {
		p.logger.Warn("planning failed, answering as a single task",
			zap.String("model", p.model),
			zap.Error(err))
		return []string{prompt}
	}

	subtasks := ParseSubtasks(reply)
	if len(subtasks) == 0 {
		p.logger.Warn("planner reply had no subtasks", zap.String("model", p.model))
		return []string{prompt}
	}
	return subtasks
}

// ParseSubtasks splits a planner reply into lines, strips bullet markers
// and whitespace from each and drops the lines left empty.
func ParseSubtasks(reply string) []string {
	var subtasks []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimFunc(line, isBulletOrSpace)
		if line != "" {
			subtasks = append(subtasks, line)
		}
	}
	return subtasks
}

func isBulletOrSpace(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(bulletChars, r)
}
