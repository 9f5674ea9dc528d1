package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/ensemble/internal/chat"
	"github.com/dusk-indust/ensemble/internal/embedding"
	"github.com/dusk-indust/ensemble/internal/llm"
	"github.com/dusk-indust/ensemble/internal/orchestrator"
	"go.uber.org/zap"
)

// newSurface wires the backend, the embedding engine and the pipeline
// from the loaded configuration.
func (a *app) newSurface(ctx context.Context) (*chat.Surface, error) {
	backend, err := llm.New(ctx, a.cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	engine, err := embedding.NewEngine(ctx, a.cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	a.logger.Debug("pipeline ready",
		zap.String("backend", backend.Name()),
		zap.String("embedding", engine.Name()),
		zap.Strings("models", a.cfg.Models),
		zap.String("assistantModel", a.cfg.AssistantModel))

	pipeline := orchestrator.NewPipeline(orchestrator.ConfigFrom(a.cfg), backend, engine,
		orchestrator.WithLogger(a.logger.Named("orchestrator")))
	return chat.NewSurface(pipeline, chat.WithLogger(a.logger.Named("chat"))), nil
}
