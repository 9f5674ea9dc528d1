// Package embedding turns text into vectors and compares them.
// Supports a local Ollama server and Google GenAI.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/dusk-indust/ensemble/internal/config"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name returns the engine name.
	Name() string
}

// NewEngine creates the engine selected by cfg.Provider.
func NewEngine(ctx context.Context, cfg config.EmbeddingConfig) (Engine, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllamaEngine(cfg.Endpoint, cfg.Model), nil
	case config.ProviderGenAI:
		return NewGenAIEngine(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("embedding: unsupported provider %q", cfg.Provider)
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. A zero-magnitude vector scores 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding: vector dimension mismatch: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		aMag += x * x
		bMag += y * y
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(aMag) * math.Sqrt(bMag))
	// Float error can push identical vectors just past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}
