package orchestrator

import (
	"github.com/dusk-indust/ensemble/internal/embedding"
	"github.com/dusk-indust/ensemble/internal/llm"
	"go.uber.org/zap"
)

// Pipeline holds the stateless parts of a turn: the rewriter, planner,
// ranker and critic, plus the backend used for fan-out. One Pipeline is
// shared by every Session.
type Pipeline struct {
	cfg      Config
	backend  llm.Backend
	rewriter *Rewriter
	planner  *Planner
	ranker   *Ranker
	critic   *Critic
	logger   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger shared by all pipeline components.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline wires a Rewriter, Planner, Ranker and Critic from cfg.
// Empty keyword sets fall back to DecompositionKeywords and
// ImprovementKeywords.
func NewPipeline(cfg Config, backend llm.Backend, engine embedding.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	decompose := NeedsDecomposition
	if len(cfg.PlannerKeywords) > 0 {
		decompose = cfg.PlannerKeywords.Predicate()
	}
	improve := NeedsImprovement
	if len(cfg.CritiqueKeywords) > 0 {
		improve = cfg.CritiqueKeywords.Predicate()
	}

	p.rewriter = NewRewriter(backend, cfg.AssistantModel, cfg.RewriteTokens, p.logger)
	p.planner = NewPlanner(backend, cfg.AssistantModel, cfg.PlanTokens, decompose, p.logger)
	p.ranker = NewRanker(engine)
	p.critic = NewCritic(backend, cfg.AssistantModel, cfg.EvaluateTokens, cfg.ImproveTokens,
		WithImprovementPredicate(improve),
		WithTolerateFailures(cfg.TolerateCritiqueFailures),
		WithCriticLogger(p.logger),
	)
	return p
}

// Config returns the pipeline settings.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// NewSession creates an empty Session identified by id.
func (p *Pipeline) NewSession(id string) *Session {
	return &Session{
		id:       id,
		pipeline: p,
		logger:   p.logger.With(zap.String("session", id)),
	}
}
