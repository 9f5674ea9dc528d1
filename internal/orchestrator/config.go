package orchestrator

import "github.com/dusk-indust/ensemble/internal/config"

// Config holds the runtime settings of a Pipeline.
type Config struct {
	// Models are queried in parallel for every subtask, in this order.
	Models []string

	// AssistantModel rewrites, plans, evaluates and improves.
	AssistantModel string

	// Output token limits per call kind.
	QueryTokens    int
	RewriteTokens  int
	PlanTokens     int
	EvaluateTokens int
	ImproveTokens  int

	// PlannerKeywords mark a prompt as multi-part.
	PlannerKeywords KeywordSet

	// CritiqueKeywords mark a critique as asking for a better answer.
	CritiqueKeywords KeywordSet

	// TolerateCritiqueFailures keeps the unrevised response when evaluate or
	// improve fails, instead of failing the turn.
	TolerateCritiqueFailures bool
}

// ConfigFrom maps the file configuration onto pipeline settings.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Models:                   append([]string(nil), c.Models...),
		AssistantModel:           c.AssistantModel,
		QueryTokens:              c.MaxTokens.Query,
		RewriteTokens:            c.MaxTokens.Rewrite,
		PlanTokens:               c.MaxTokens.Plan,
		EvaluateTokens:           c.MaxTokens.Evaluate,
		ImproveTokens:            c.MaxTokens.Improve,
		PlannerKeywords:          KeywordSet(c.Planner.Keywords),
		CritiqueKeywords:         KeywordSet(c.Critique.Keywords),
		TolerateCritiqueFailures: c.Critique.TolerateFailures,
	}
}

// DefaultConfig mirrors config.Default.
func DefaultConfig() Config {
	def := config.Default()
	return ConfigFrom(&def)
}
